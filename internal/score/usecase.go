package score

import "changerisk/internal/scorecard"

// Record maps feature names to raw values: strings for categorical features,
// numbers for numeric ones.
type Record map[string]any

// Result is the explainable outcome of one scoring call.
type Result struct {
	// Version of the scorecard snapshot the record was scored against.
	Version int `json:"version" yaml:"version"`
	// Score is BasePoints + RawPoints, rounded to 2 decimals.
	Score float64 `json:"score" yaml:"score"`
	Band  string  `json:"band" yaml:"band"`
	// FeatureScores holds the points applied per feature.
	FeatureScores map[string]float64 `json:"feature_scores" yaml:"feature_scores"`
	// RawPoints is the sum of FeatureScores, rounded to 2 decimals.
	RawPoints float64 `json:"raw_points" yaml:"raw_points"`
}

// SnapshotSource supplies the scorecard snapshot a scoring call runs against.
type SnapshotSource interface {
	Current() *scorecard.Scorecard
}

// RecordScorer scores one record.
type RecordScorer interface {
	Score(record Record) (*Result, error)
}
