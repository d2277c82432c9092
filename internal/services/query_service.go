package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	apperrors "hotparts/internal/errors"
	"hotparts/pkg/contracts/domain"
)

// Masters is the read side of the master accumulator.
type Masters interface {
	HotParts() []domain.HotPart
	Excess() []domain.ExcessRecord
	Matches() []domain.MatchRecord
	Sorted(kind domain.Kind) ([]domain.Record, error)
	Count(kind domain.Kind) int
}

// LogReader reads the processing history.
type LogReader interface {
	RecentLog(ctx context.Context, limit int) ([]domain.ProcessingLog, error)
	CountLog(ctx context.Context) (int, error)
}

// RandomPartsQuery selects a sample of matched parts.
type RandomPartsQuery struct {
	Count            int     `json:"count" validate:"min=1,max=100"`
	MinPrice         float64 `json:"min_price" validate:"min=0"`
	MaxManufacturers int     `json:"max_manufacturers" validate:"min=1,max=50"`
}

// DefaultRandomPartsQuery mirrors the defaults of the query CLI.
func DefaultRandomPartsQuery() RandomPartsQuery {
	return RandomPartsQuery{Count: 10, MinPrice: 10, MaxManufacturers: 5}
}

// perManufacturerLimit caps how many parts one manufacturer contributes to a sample.
const perManufacturerLimit = 2

// DefaultLogLimit is the number of log entries returned when none is requested.
const DefaultLogLimit = 50

// QueryService answers read-only questions about the master collections.
type QueryService struct {
	masters Masters
	log     LogReader
	logger  *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewQueryService creates a query service. log may be nil when no
// processing history is kept.
func NewQueryService(masters Masters, log LogReader, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{
		masters: masters,
		log:     log,
		logger:  logger.With(slog.String("service", "query")),
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// WithRand replaces the random source used for sampling.
func (s *QueryService) WithRand(r *rand.Rand) *QueryService {
	s.rngMu.Lock()
	s.rng = r
	s.rngMu.Unlock()
	return s
}

// Stats counts every collection and reports the hot-parts date range.
func (s *QueryService) Stats(ctx context.Context) (domain.Stats, error) {
	stats := domain.Stats{
		HotPartsCount: s.masters.Count(domain.KindHotParts),
		PivotCount:    s.masters.Count(domain.KindPivot),
		ExcessCount:   s.masters.Count(domain.KindExcess),
		MatchesCount:  s.masters.Count(domain.KindMatches),
	}

	if s.log != nil {
		n, err := s.log.CountLog(ctx)
		if err != nil {
			return stats, apperrors.NewStorageError("failed to count processing log", err)
		}
		stats.ProcessingLogCount = n
	}

	hot := s.masters.HotParts()
	mpns := make(map[string]struct{}, len(hot))
	minDate, maxDate := "", ""
	for _, hp := range hot {
		mpns[hp.MPN] = struct{}{}
		if minDate == "" || hp.Date < minDate {
			minDate = hp.Date
		}
		if hp.Date > maxDate {
			maxDate = hp.Date
		}
	}
	stats.UniqueHotPartsMPNs = len(mpns)
	stats.HotPartsDateRange = "No data"
	if minDate != "" {
		stats.HotPartsDateRange = fmt.Sprintf("%s to %s", minDate, maxDate)
	}

	stats.UniqueExcessMPNs = countDistinct(s.masters.Excess(), func(r domain.ExcessRecord) string { return r.MPN })
	stats.UniqueMatchMPNs = countDistinct(s.masters.Matches(), func(r domain.MatchRecord) string { return r.MPN })

	s.logger.DebugContext(ctx, "Stats computed",
		slog.Int("hot_parts", stats.HotPartsCount),
		slog.Int("matches", stats.MatchesCount))
	return stats, nil
}

// Masters returns a collection sorted by (mpn, date). A non-empty mpn keeps
// only records with that MPN, compared case-insensitively.
func (s *QueryService) Masters(ctx context.Context, kind domain.Kind, mpn string) ([]domain.Record, error) {
	records, err := s.masters.Sorted(kind)
	if err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("collection %s", kind))
	}

	mpn = strings.TrimSpace(mpn)
	if mpn == "" {
		return records, nil
	}

	filtered := make([]domain.Record, 0)
	for _, r := range records {
		if strings.EqualFold(r.SortKey().MPN, mpn) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Summary returns the per-MPN summary of a collection. Pivot has none.
func (s *QueryService) Summary(ctx context.Context, kind domain.Kind) (any, error) {
	switch kind {
	case domain.KindHotParts:
		return s.HotPartsSummary(ctx), nil
	case domain.KindExcess:
		return s.ExcessSummary(ctx), nil
	case domain.KindMatches:
		return s.MatchesSummary(ctx), nil
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("summary for %s", kind))
}

// HotPartsSummary aggregates hot parts per MPN, most frequent first.
func (s *QueryService) HotPartsSummary(ctx context.Context) []domain.HotPartSummary {
	byMPN := make(map[string]*domain.HotPartSummary)
	var order []string
	for _, hp := range s.masters.HotParts() {
		sum, ok := byMPN[hp.MPN]
		if !ok {
			sum = &domain.HotPartSummary{MPN: hp.MPN, FirstSeen: hp.Date, LastSeen: hp.Date}
			byMPN[hp.MPN] = sum
			order = append(order, hp.MPN)
		}
		sum.TotalOccurrences++
		if hp.Date < sum.FirstSeen {
			sum.FirstSeen = hp.Date
		}
		if hp.Date >= sum.LastSeen {
			sum.LastSeen = hp.Date
			if hp.Manufacturer != "" {
				sum.Manufacturer = hp.Manufacturer
			}
		}
		if sum.Manufacturer == "" {
			sum.Manufacturer = hp.Manufacturer
		}
	}

	out := make([]domain.HotPartSummary, 0, len(order))
	for _, mpn := range order {
		out = append(out, *byMPN[mpn])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalOccurrences != out[j].TotalOccurrences {
			return out[i].TotalOccurrences > out[j].TotalOccurrences
		}
		return out[i].MPN < out[j].MPN
	})
	return out
}

// ExcessSummary aggregates supply per MPN, largest quantity first.
func (s *QueryService) ExcessSummary(ctx context.Context) []domain.ExcessSummary {
	byMPN := make(map[string]*domain.ExcessSummary)
	files := make(map[string]map[string]struct{})
	for _, ex := range s.masters.Excess() {
		sum, ok := byMPN[ex.MPN]
		if !ok {
			sum = &domain.ExcessSummary{MPN: ex.MPN}
			byMPN[ex.MPN] = sum
			files[ex.MPN] = make(map[string]struct{})
		}
		files[ex.MPN][ex.ExcessFilename] = struct{}{}
		sum.TotalAvailableQty += ex.ExcessQty
		sum.MinTargetPrice = minPrice(sum.MinTargetPrice, ex.TargetPrice)
		sum.MaxTargetPrice = maxPrice(sum.MaxTargetPrice, ex.TargetPrice)
	}

	out := make([]domain.ExcessSummary, 0, len(byMPN))
	for mpn, sum := range byMPN {
		sum.Files = len(files[mpn])
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAvailableQty != out[j].TotalAvailableQty {
			return out[i].TotalAvailableQty > out[j].TotalAvailableQty
		}
		return out[i].MPN < out[j].MPN
	})
	return out
}

// MatchesSummary aggregates matches per MPN, most matched first.
func (s *QueryService) MatchesSummary(ctx context.Context) []domain.MatchSummary {
	byMPN := make(map[string]*domain.MatchSummary)
	for _, m := range s.masters.Matches() {
		sum, ok := byMPN[m.MPN]
		if !ok {
			sum = &domain.MatchSummary{MPN: m.MPN}
			byMPN[m.MPN] = sum
		}
		if sum.Manufacturer == "" {
			sum.Manufacturer = m.Manufacturer
		}
		sum.TotalMatches++
		sum.TotalExcessQty += m.ExcessQty
		sum.MaxTargetPrice = maxPrice(sum.MaxTargetPrice, m.TargetPrice)
	}

	out := make([]domain.MatchSummary, 0, len(byMPN))
	for _, sum := range byMPN {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalMatches != out[j].TotalMatches {
			return out[i].TotalMatches > out[j].TotalMatches
		}
		return out[i].MPN < out[j].MPN
	})
	return out
}

// RandomParts draws matched parts priced above q.MinPrice from at most
// q.MaxManufacturers randomly chosen manufacturers, with no more than two
// parts per manufacturer, and returns at most q.Count of them in random order.
func (s *QueryService) RandomParts(ctx context.Context, q RandomPartsQuery) ([]domain.MatchRecord, error) {
	if q.Count < 1 || q.MaxManufacturers < 1 || q.MinPrice < 0 {
		return nil, apperrors.NewAppValidationError("count and max_manufacturers must be positive and min_price non-negative")
	}

	byMfr := make(map[string][]domain.MatchRecord)
	var manufacturers []string
	for _, m := range s.masters.Matches() {
		if m.TargetPrice == nil || *m.TargetPrice <= q.MinPrice {
			continue
		}
		if _, seen := byMfr[m.Manufacturer]; !seen {
			manufacturers = append(manufacturers, m.Manufacturer)
		}
		byMfr[m.Manufacturer] = append(byMfr[m.Manufacturer], m)
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	s.rng.Shuffle(len(manufacturers), func(i, j int) {
		manufacturers[i], manufacturers[j] = manufacturers[j], manufacturers[i]
	})
	if len(manufacturers) > q.MaxManufacturers {
		manufacturers = manufacturers[:q.MaxManufacturers]
	}

	var picked []domain.MatchRecord
	for _, mfr := range manufacturers {
		parts := append([]domain.MatchRecord(nil), byMfr[mfr]...)
		s.rng.Shuffle(len(parts), func(i, j int) { parts[i], parts[j] = parts[j], parts[i] })
		if len(parts) > perManufacturerLimit {
			parts = parts[:perManufacturerLimit]
		}
		picked = append(picked, parts...)
	}

	s.rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if len(picked) > q.Count {
		picked = picked[:q.Count]
	}

	s.logger.InfoContext(ctx, "Random parts selected",
		slog.Int("requested", q.Count),
		slog.Int("returned", len(picked)),
		slog.Int("manufacturers", len(manufacturers)))
	return picked, nil
}

// ProcessingLog returns the newest log entries first. A non-positive limit
// uses DefaultLogLimit.
func (s *QueryService) ProcessingLog(ctx context.Context, limit int) ([]domain.ProcessingLog, error) {
	if s.log == nil {
		return []domain.ProcessingLog{}, nil
	}
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	entries, err := s.log.RecentLog(ctx, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read processing log", err)
	}
	return entries, nil
}

func countDistinct[T any](records []T, key func(T) string) int {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[key(r)] = struct{}{}
	}
	return len(seen)
}

func minPrice(cur, p *float64) *float64 {
	if p == nil {
		return cur
	}
	if cur == nil || *p < *cur {
		v := *p
		return &v
	}
	return cur
}

func maxPrice(cur, p *float64) *float64 {
	if p == nil {
		return cur
	}
	if cur == nil || *p > *cur {
		v := *p
		return &v
	}
	return cur
}
