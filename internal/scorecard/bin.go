package scorecard

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind tells how a bin is matched against a raw feature value.
type Kind int

const (
	// KindCategorical bins match a string value by exact label equality.
	KindCategorical Kind = iota
	// KindNumeric bins match a numeric value falling into [Low, High).
	KindNumeric
)

func (k Kind) String() string {
	switch k {
	case KindCategorical:
		return "categorical"
	case KindNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

var (
	// intervalPattern matches "[low,high)" style labels. The bracket characters
	// are kept only for display: every interval is treated as [low, high).
	intervalPattern = regexp.MustCompile(`^\s*[\[(]\s*([^,\[\]()]+?)\s*,\s*([^,\[\]()]+?)\s*[\])]\s*$`)
	// infToken finds an "inf" bound that is not part of a longer word such as "info".
	infToken = regexp.MustCompile(`(?i)(^|[^a-z])[+-]?inf(inity)?([^a-z]|$)`)
)

// BinSpec is one scoring rule of one feature.
type BinSpec struct {
	// Label is the raw bin descriptor as declared in the document.
	Label string
	// Points is the contribution of the bin to the total score.
	Points float64
	Kind   Kind
	// Low and High bound a numeric bin; unused for categorical bins.
	Low  float64
	High float64
}

// Contains reports whether a numeric value falls in the bin's half-open interval.
func (b BinSpec) Contains(value float64) bool {
	return b.Kind == KindNumeric && b.Low <= value && value < b.High
}

// OpenEnded reports whether the bin is the terminal interval reaching +inf.
func (b BinSpec) OpenEnded() bool {
	return b.Kind == KindNumeric && math.IsInf(b.High, 1)
}

// IsNumericLabel reports whether a bin label uses interval notation.
// Unlike a plain substring check, inf only counts as a standalone bound token, so
// labels such as info or informational stay categorical.
func IsNumericLabel(label string) bool {
	return strings.ContainsAny(label, "[(") || infToken.MatchString(label)
}

// ParseBin turns one bin declaration into a BinSpec.
// Labels in interval notation become numeric bins, every other label is categorical.
func ParseBin(label string, points float64) (BinSpec, error) {
	if !IsNumericLabel(label) {
		return BinSpec{Label: label, Points: points, Kind: KindCategorical}, nil
	}

	match := intervalPattern.FindStringSubmatch(label)
	if match == nil {
		return BinSpec{}, NewConfigParseError("", "malformed interval "+strconv.Quote(label), nil)
	}

	low, err := parseBound(match[1], math.Inf(-1))
	if err != nil {
		return BinSpec{}, NewConfigParseError("", "malformed low bound in "+strconv.Quote(label), err)
	}
	high, err := parseBound(match[2], math.Inf(1))
	if err != nil {
		return BinSpec{}, NewConfigParseError("", "malformed high bound in "+strconv.Quote(label), err)
	}
	if !(low < high) {
		return BinSpec{}, NewConfigParseError("", "empty interval "+strconv.Quote(label), nil)
	}

	return BinSpec{
		Label:  label,
		Points: points,
		Kind:   KindNumeric,
		Low:    low,
		High:   high,
	}, nil
}

// parseBound parses a bound token; any token mentioning inf becomes the given infinity.
func parseBound(token string, inf float64) (float64, error) {
	if strings.Contains(strings.ToLower(token), "inf") {
		return inf, nil
	}
	return strconv.ParseFloat(token, 64)
}
