package dataprocessing

import (
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// HotPartsToken marks a hot-parts workbook file name.
const HotPartsToken = "Weekly Hot Parts List"

// PivotSheetName is the aggregate requirement-count sheet.
const PivotSheetName = "Pivot"

// PriceMarkup is applied to every source price.
var PriceMarkup = decimal.RequireFromString("1.12")

// pricePlaces is the rounding applied after the markup.
const pricePlaces = 4

// VendorTokens are the supplier names recognized in excess file names.
var VendorTokens = []string{"Kelly Chen", "Vicky Zhang", "Micron stock", "BCM Excess"}

var (
	fileDatePattern  = regexp.MustCompile(`(\d{4}\.\d{2}\.\d{2})`)
	sheetDatePattern = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}`)
)

// CleanQuantity parses a quantity cell. Thousands separators and whitespace
// are removed and fractional values truncated; anything unparseable,
// non-finite or negative becomes 0.
func CleanQuantity(raw string) int {
	s := stripChars(raw, ",")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// CleanPrice parses a price cell and applies the markup, rounding to four
// decimal places. It returns nil for absent, unparseable or negative prices.
func CleanPrice(raw string) *float64 {
	s := stripChars(raw, "$,")
	if s == "" {
		return nil
	}
	base, err := decimal.NewFromString(s)
	if err != nil || base.IsNegative() {
		return nil
	}
	v, _ := base.Mul(PriceMarkup).Round(pricePlaces).Float64()
	return &v
}

// CleanMPN trims a part number. ok is false when nothing is left.
func CleanMPN(raw string) (string, bool) {
	mpn := strings.TrimSpace(raw)
	return mpn, mpn != ""
}

// DateFromFilename extracts the YYYY.MM.DD token of a file name.
func DateFromFilename(name string) (string, bool) {
	m := fileDatePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DateFromSheetName returns the leading YYYY.MM.DD of a per-date sheet name.
func DateFromSheetName(name string) (string, bool) {
	d := sheetDatePattern.FindString(strings.TrimSpace(name))
	return d, d != ""
}

// IsHotPartsFile reports whether name follows the hot-parts naming convention.
func IsHotPartsFile(name string) bool {
	return strings.Contains(filepath.Base(name), HotPartsToken)
}

// IsWorkbookFile reports whether name is an .xlsx file that is not an Office
// lock file.
func IsWorkbookFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".xlsx")
}

// VendorOf returns the first known vendor token in name, or "".
func VendorOf(name string) string {
	base := filepath.Base(name)
	for _, token := range VendorTokens {
		if strings.Contains(base, token) {
			return token
		}
	}
	return ""
}

func stripChars(raw, chars string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(chars, r) {
			return -1
		}
		return r
	}, raw)
}
