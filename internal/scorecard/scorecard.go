package scorecard

// TerminalBand is assigned to scores above every configured band threshold.
const TerminalBand = "CRITICAL"

// Band is a named risk tier covering scores up to MaxScore.
type Band struct {
	MaxScore float64 `json:"max_score" yaml:"max_score"`
	Name     string  `json:"name" yaml:"name"`
}

// Scorecard is one immutable, fully-built configuration snapshot.
// A snapshot is never modified once built; reload publishes a new one.
type Scorecard struct {
	Version    int
	ScoreName  string
	BasePoints float64

	// bands are ordered ascending by MaxScore.
	bands    []Band
	features map[string]*FeatureScorecard
	order    []string
}

// Row is a flat view of one bin, in the form exposed for transparency.
type Row struct {
	Variable string  `json:"variable"`
	Bin      string  `json:"bin"`
	Points   float64 `json:"points"`
}

// Feature returns a copy of the named feature's scorecard.
func (s *Scorecard) Feature(name string) (FeatureScorecard, error) {
	feature, found := s.features[name]
	if !found {
		return FeatureScorecard{}, NewUnknownFeatureError(name)
	}
	return *feature, nil
}

// Bands returns a copy of the risk bands, ordered ascending by MaxScore.
func (s *Scorecard) Bands() []Band {
	return append([]Band(nil), s.bands...)
}

// Features returns the registered feature names in declaration order.
func (s *Scorecard) Features() []string {
	return append([]string(nil), s.order...)
}

// Classify maps a score to the first band whose MaxScore is not below it,
// or to TerminalBand when the score exceeds every threshold.
func (s *Scorecard) Classify(score float64) string {
	for _, band := range s.bands {
		if score <= band.MaxScore {
			return band.Name
		}
	}
	return TerminalBand
}

// Rows flattens the scorecard into one row per bin, features in declaration order.
func (s *Scorecard) Rows() []Row {
	var rows []Row
	for _, name := range s.order {
		for _, bin := range s.features[name].bins {
			rows = append(rows, Row{Variable: name, Bin: bin.Label, Points: bin.Points})
		}
	}
	return rows
}

// BinCount returns the total number of bins over all features.
func (s *Scorecard) BinCount() int {
	count := 0
	for _, feature := range s.features {
		count += len(feature.bins)
	}
	return count
}

// Lint reports coverage problems of numeric features. Issues do not prevent loading:
// scoring a value that falls into a gap still fails with UnmatchedValueError.
func (s *Scorecard) Lint() []Issue {
	var issues []Issue
	for _, name := range s.order {
		issues = append(issues, s.features[name].lint()...)
	}
	return issues
}
