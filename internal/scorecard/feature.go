package scorecard

import (
	"fmt"
	"math"
)

// FeatureScorecard is the ordered list of bins of one feature.
// Bins are matched in declaration order; the first match wins.
type FeatureScorecard struct {
	Name string
	Kind Kind

	bins []BinSpec
}

// NewFeatureScorecard validates the bins of a feature and builds its scorecard.
// A feature must have at least one bin, all bins of the same kind and no duplicated
// categorical labels.
func NewFeatureScorecard(name string, bins []BinSpec) (*FeatureScorecard, error) {
	if len(bins) == 0 {
		return nil, NewConfigParseError(name, "no bins declared", nil)
	}

	kind := bins[0].Kind
	seen := make(map[string]struct{}, len(bins))
	for _, bin := range bins {
		if bin.Kind != kind {
			return nil, NewConfigParseError(name, "mixes categorical and numeric bins", nil)
		}
		if kind == KindCategorical {
			if _, dup := seen[bin.Label]; dup {
				return nil, NewConfigParseError(name, fmt.Sprintf("duplicate bin %q", bin.Label), nil)
			}
			seen[bin.Label] = struct{}{}
		}
	}

	return &FeatureScorecard{
		Name: name,
		Kind: kind,
		bins: append([]BinSpec(nil), bins...),
	}, nil
}

// Bins returns a copy of the feature's bins in declaration order.
func (f *FeatureScorecard) Bins() []BinSpec {
	return append([]BinSpec(nil), f.bins...)
}

// MatchNumeric returns the bin containing value.
// A bin matches when low <= value < high; the open-ended top interval also accepts
// any value >= low.
func (f *FeatureScorecard) MatchNumeric(value float64) (BinSpec, error) {
	if f.Kind != KindNumeric {
		return BinSpec{}, NewUnmatchedValueError(f.Name, value)
	}
	for _, bin := range f.bins {
		if bin.Contains(value) {
			return bin, nil
		}
		if bin.OpenEnded() && value >= bin.Low {
			return bin, nil
		}
	}
	return BinSpec{}, NewUnmatchedValueError(f.Name, value)
}

// MatchCategorical returns the bin whose label equals value.
func (f *FeatureScorecard) MatchCategorical(value string) (BinSpec, error) {
	for _, bin := range f.bins {
		if bin.Kind == KindCategorical && bin.Label == value {
			return bin, nil
		}
	}
	return BinSpec{}, NewCategoricalMismatchError(f.Name, value)
}

// Issue is a non-fatal coverage problem found in a numeric feature.
type Issue struct {
	Feature string `json:"feature" yaml:"feature"`
	Message string `json:"message" yaml:"message"`
}

// lint inspects a numeric feature's intervals in declared order and reports gaps,
// overlaps and missing infinite ends.
func (f *FeatureScorecard) lint() []Issue {
	if f.Kind != KindNumeric {
		return nil
	}

	var issues []Issue
	first, last := f.bins[0], f.bins[len(f.bins)-1]
	if !math.IsInf(first.Low, -1) {
		issues = append(issues, Issue{f.Name, fmt.Sprintf("values below %v are not covered", first.Low)})
	}
	if !math.IsInf(last.High, 1) {
		issues = append(issues, Issue{f.Name, fmt.Sprintf("values from %v upwards are not covered", last.High)})
	}
	for i := 1; i < len(f.bins); i++ {
		prev, cur := f.bins[i-1], f.bins[i]
		switch {
		case cur.Low > prev.High:
			issues = append(issues, Issue{f.Name, fmt.Sprintf("gap between %s and %s", prev.Label, cur.Label)})
		case cur.Low < prev.High:
			issues = append(issues, Issue{f.Name, fmt.Sprintf("%s overlaps %s", cur.Label, prev.Label)})
		}
	}
	return issues
}
