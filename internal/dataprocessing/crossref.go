package dataprocessing

import "hotparts/pkg/contracts/domain"

// Match joins excess records to hot-parts records by exact MPN. Every
// (excess, hot-part) pair sharing an MPN yields one match, in excess order
// then hot-parts order. Excess records without demand produce nothing.
func Match(excess []domain.ExcessRecord, hotParts []domain.HotPart) []domain.MatchRecord {
	if len(excess) == 0 || len(hotParts) == 0 {
		return nil
	}

	byMPN := make(map[string][]domain.HotPart, len(hotParts))
	for _, hp := range hotParts {
		byMPN[hp.MPN] = append(byMPN[hp.MPN], hp)
	}

	var matches []domain.MatchRecord
	for _, ex := range excess {
		for _, hp := range byMPN[ex.MPN] {
			matches = append(matches, domain.NewMatch(hp, ex))
		}
	}
	return matches
}
