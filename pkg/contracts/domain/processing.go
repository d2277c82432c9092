package domain

import "time"

// FileType classifies an input workbook.
type FileType string

const (
	FileTypeHotParts FileType = "hot_parts"
	FileTypeExcess   FileType = "excess"
)

// ProcessingStatus is the outcome recorded for one file pass.
type ProcessingStatus string

const (
	StatusSuccess   ProcessingStatus = "success"
	StatusDuplicate ProcessingStatus = "duplicate"
	StatusEmpty     ProcessingStatus = "empty"
	StatusError     ProcessingStatus = "error"
)

// ProcessingLog is one row of the processing history.
type ProcessingLog struct {
	ID               int64            `json:"id,omitempty"`
	Filename         string           `json:"filename"`
	FileType         FileType         `json:"file_type"`
	Status           ProcessingStatus `json:"status"`
	RecordsProcessed int              `json:"records_processed"`
	RecordsAdded     int              `json:"records_added"`
	RecordsSkipped   int              `json:"records_skipped"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	ProcessedAt      time.Time        `json:"processed_at"`
}

// Stats summarizes the master collections.
type Stats struct {
	HotPartsCount      int    `json:"hot_parts_count"`
	PivotCount         int    `json:"pivot_count"`
	ExcessCount        int    `json:"excess_inventory_count"`
	MatchesCount       int    `json:"matches_count"`
	ProcessingLogCount int    `json:"processing_log_count"`
	UniqueHotPartsMPNs int    `json:"unique_hot_parts_mpns"`
	UniqueExcessMPNs   int    `json:"unique_excess_mpns"`
	UniqueMatchMPNs    int    `json:"unique_match_mpns"`
	HotPartsDateRange  string `json:"hot_parts_date_range"`
}

// HotPartSummary aggregates the hot-parts history of one MPN.
type HotPartSummary struct {
	MPN              string `json:"mpn"`
	Manufacturer     string `json:"manufacturer"`
	TotalOccurrences int    `json:"total_occurrences"`
	FirstSeen        string `json:"first_seen"`
	LastSeen         string `json:"last_seen"`
}

// ExcessSummary aggregates supply of one MPN across vendor files.
type ExcessSummary struct {
	MPN               string   `json:"mpn"`
	Files             int      `json:"files"`
	TotalAvailableQty int      `json:"total_available_qty"`
	MinTargetPrice    *float64 `json:"min_target_price"`
	MaxTargetPrice    *float64 `json:"max_target_price"`
}

// MatchSummary aggregates the matches of one MPN.
type MatchSummary struct {
	MPN            string   `json:"mpn"`
	Manufacturer   string   `json:"manufacturer"`
	TotalMatches   int      `json:"total_matches"`
	TotalExcessQty int      `json:"total_excess_qty"`
	MaxTargetPrice *float64 `json:"max_target_price"`
}
