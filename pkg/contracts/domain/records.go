package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind names one master collection.
type Kind string

const (
	KindHotParts Kind = "hot-parts"
	KindPivot    Kind = "pivot"
	KindExcess   Kind = "excess"
	KindMatches  Kind = "matches"
)

// AllKinds lists the collections in export order.
func AllKinds() []Kind {
	return []Kind{KindHotParts, KindPivot, KindExcess, KindMatches}
}

// ParseKind accepts the canonical name plus the underscore spelling used by
// the storage tables.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hot-parts", "hot_parts", "hotparts":
		return KindHotParts, nil
	case "pivot":
		return KindPivot, nil
	case "excess", "excess_inventory":
		return KindExcess, nil
	case "matches", "match":
		return KindMatches, nil
	}
	return "", fmt.Errorf("unknown collection %q", s)
}

// keySep joins identity key parts. It cannot appear in spreadsheet text.
const keySep = "\x1f"

// SortKey is the (mpn, date) ordering used by every exported view.
type SortKey struct {
	MPN  string
	Date string
}

// Record is implemented by every canonical record type.
type Record interface {
	// Key returns the composite identity used for deduplication.
	Key() string
	SortKey() SortKey
	// Values returns the export row in Columns(kind) order.
	Values() []any
}

// HotPart is one demand row from a per-date sheet of a hot-parts workbook.
type HotPart struct {
	MPN          string `json:"mpn"`
	Date         string `json:"date"`
	ReqsCount    string `json:"reqs_count"`
	Manufacturer string `json:"manufacturer"`
	ProductClass string `json:"product_class"`
	Description  string `json:"description"`
	SourceFile   string `json:"source_file"`
}

func (h HotPart) Key() string      { return h.MPN + keySep + h.Date }
func (h HotPart) SortKey() SortKey { return SortKey{MPN: h.MPN, Date: h.Date} }

func (h HotPart) Values() []any {
	return []any{h.MPN, h.Date, h.ReqsCount, h.Manufacturer, h.ProductClass, h.Description, h.SourceFile}
}

// PivotRecord is one aggregate requirement count from a Pivot sheet.
type PivotRecord struct {
	MPN       string `json:"mpn"`
	ReqsCount string `json:"reqs_count"`
	Date      string `json:"date"`
}

func (p PivotRecord) Key() string      { return p.MPN + keySep + p.Date }
func (p PivotRecord) SortKey() SortKey { return SortKey{MPN: p.MPN, Date: p.Date} }
func (p PivotRecord) Values() []any    { return []any{p.MPN, p.ReqsCount, p.Date} }

// ExcessRecord is one supply row from a vendor excess workbook.
// TargetPrice is nil when the source price was absent or unparseable.
type ExcessRecord struct {
	MPN            string   `json:"mpn"`
	ExcessFilename string   `json:"excess_filename"`
	ExcessQty      int      `json:"excess_qty"`
	TargetPrice    *float64 `json:"target_price"`
	Manufacturer   string   `json:"manufacturer"`
	SheetName      string   `json:"sheet_name"`
}

func (e ExcessRecord) Key() string { return e.MPN + keySep + e.ExcessFilename }

// SortKey orders excess rows by file name in place of a date.
func (e ExcessRecord) SortKey() SortKey { return SortKey{MPN: e.MPN, Date: e.ExcessFilename} }

func (e ExcessRecord) Values() []any {
	return []any{e.MPN, e.ExcessFilename, e.ExcessQty, priceValue(e.TargetPrice), e.Manufacturer, e.SheetName}
}

// MatchRecord pairs one hot-parts record with one excess record sharing an MPN.
type MatchRecord struct {
	MPN            string   `json:"mpn"`
	HotPartsDate   string   `json:"hot_parts_date"`
	ReqsCount      string   `json:"reqs_count"`
	Manufacturer   string   `json:"manufacturer"`
	ProductClass   string   `json:"product_class"`
	Description    string   `json:"description"`
	ExcessFilename string   `json:"excess_filename"`
	ExcessQty      int      `json:"excess_qty"`
	TargetPrice    *float64 `json:"target_price"`
}

// Key is the full tuple.
func (m MatchRecord) Key() string {
	return strings.Join([]string{
		m.MPN, m.HotPartsDate, m.ReqsCount, m.Manufacturer, m.ProductClass, m.Description,
		m.ExcessFilename, strconv.Itoa(m.ExcessQty), FormatPrice(m.TargetPrice),
	}, keySep)
}

func (m MatchRecord) SortKey() SortKey { return SortKey{MPN: m.MPN, Date: m.HotPartsDate} }

func (m MatchRecord) Values() []any {
	return []any{
		m.MPN, m.HotPartsDate, m.ReqsCount, m.Manufacturer, m.ProductClass, m.Description,
		m.ExcessFilename, m.ExcessQty, priceValue(m.TargetPrice),
	}
}

// NewMatch copies demand fields from hp and supply fields from ex.
func NewMatch(hp HotPart, ex ExcessRecord) MatchRecord {
	return MatchRecord{
		MPN:            hp.MPN,
		HotPartsDate:   hp.Date,
		ReqsCount:      hp.ReqsCount,
		Manufacturer:   hp.Manufacturer,
		ProductClass:   hp.ProductClass,
		Description:    hp.Description,
		ExcessFilename: ex.ExcessFilename,
		ExcessQty:      ex.ExcessQty,
		TargetPrice:    ex.TargetPrice,
	}
}

// FormatPrice renders a nullable price; nil renders as the empty string.
func FormatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func priceValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// Columns returns the export header row for a collection.
func Columns(kind Kind) []string {
	switch kind {
	case KindHotParts:
		return []string{"MPN", "Date", "Reqs_Count", "Manufacturer", "Product_Class", "Description", "Source_File"}
	case KindPivot:
		return []string{"MPN", "Reqs_Count", "Date"}
	case KindExcess:
		return []string{"MPN", "Excess_Filename", "Excess_QTY", "Target_Price", "Manufacturer", "Sheet_Name"}
	case KindMatches:
		return []string{
			"MPN", "Weekly_Hot_Parts_Date", "Reqs_Count", "Manufacturer", "Product_Class",
			"Description", "Excess_Filename", "Excess_QTY", "Target_Price",
		}
	}
	return nil
}

// SortRecords orders records by (mpn, date) ascending. The sort is stable so
// records with equal sort keys keep their insertion order.
func SortRecords[T Record](records []T) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].SortKey(), records[j].SortKey()
		if a.MPN != b.MPN {
			return a.MPN < b.MPN
		}
		return a.Date < b.Date
	})
}

// Erase converts a typed slice to a slice of Record.
func Erase[T Record](records []T) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}
