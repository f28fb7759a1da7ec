package pii

import "github.com/klartext/redakt/core"

// Stats aggregates detection results across multiple text units.
type Stats struct {
	TotalMatches     int
	UnitsWithPII     int
	TypeDistribution map[core.PIIType]int
}

// Aggregate collects match statistics from a set of per-unit results.
func Aggregate(results []*core.PIIResult) Stats {
	stats := Stats{
		TypeDistribution: make(map[core.PIIType]int),
	}
	for _, result := range results {
		if result.PIIDetected {
			stats.UnitsWithPII++
		}
		for _, match := range result.Matches {
			stats.TotalMatches++
			stats.TypeDistribution[match.Type]++
		}
	}
	return stats
}

// Merge combines per-unit results into a single document-level result view:
// the OR of the detected flags and the concatenation of all matches.
// Offsets in the merged match list remain relative to their source units.
func Merge(results []*core.PIIResult) *core.PIIResult {
	merged := &core.PIIResult{}
	for _, result := range results {
		merged.PIIDetected = merged.PIIDetected || result.PIIDetected
		merged.Matches = append(merged.Matches, result.Matches...)
	}
	return merged
}
