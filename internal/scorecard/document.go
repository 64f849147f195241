package scorecard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultVersion    = 1
	defaultScoreName  = "RiskScore"
	defaultBasePoints = 600
)

// document mirrors the scorecard YAML file. Pointers distinguish absent keys
// from zero values so that defaults can be applied.
type document struct {
	Version   *int         `yaml:"version"`
	ScoreName *string      `yaml:"score_name"`
	Scaling   scaling      `yaml:"scaling"`
	Bands     []bandDecl   `yaml:"bands"`
	Scorecard featureDecls `yaml:"scorecard"`
}

type scaling struct {
	Points0 *float64 `yaml:"points0"`
}

type bandDecl struct {
	MaxScore *float64 `yaml:"max_score"`
	Name     string   `yaml:"name"`
}

type binDecl struct {
	Bin    *string  `yaml:"bin"`
	Points *float64 `yaml:"points"`
}

type featureDecl struct {
	name string
	bins []binDecl
}

// featureDecls keeps the scorecard mapping in declaration order.
type featureDecls []featureDecl

func (f *featureDecls) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: scorecard must be a mapping of feature names to bins", node.Line)
	}
	seen := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var decl featureDecl
		if err := node.Content[i].Decode(&decl.name); err != nil {
			return err
		}
		if _, dup := seen[decl.name]; dup {
			return fmt.Errorf("line %d: feature %q declared twice", node.Content[i].Line, decl.name)
		}
		seen[decl.name] = struct{}{}
		if err := node.Content[i+1].Decode(&decl.bins); err != nil {
			return fmt.Errorf("feature %q: %w", decl.name, err)
		}
		*f = append(*f, decl)
	}
	return nil
}

// Load reads the document at path and builds a snapshot from it.
// The returned snapshot is independent from any snapshot built earlier.
func Load(path string) (*Scorecard, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigParseError{Path: path, message: "unable to read document", err: err}
	}
	card, err := Parse(content)
	if err != nil {
		var parseErr *ConfigParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
		}
		return nil, err
	}
	return card, nil
}

// Parse builds a snapshot from a YAML document.
func Parse(content []byte) (*Scorecard, error) {
	var doc document
	if err := yaml.NewDecoder(bytes.NewReader(content)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, NewConfigParseError("", "empty document", nil)
		}
		return nil, NewConfigParseError("", "malformed document", err)
	}
	return build(doc)
}

func build(doc document) (*Scorecard, error) {
	card := &Scorecard{
		Version:    defaultVersion,
		ScoreName:  defaultScoreName,
		BasePoints: defaultBasePoints,
		features:   make(map[string]*FeatureScorecard, len(doc.Scorecard)),
		order:      make([]string, 0, len(doc.Scorecard)),
	}
	if doc.Version != nil {
		card.Version = *doc.Version
	}
	if doc.ScoreName != nil {
		card.ScoreName = *doc.ScoreName
	}
	if doc.Scaling.Points0 != nil {
		if !finite(*doc.Scaling.Points0) {
			return nil, NewConfigParseError("", "scaling.points0 must be a finite number", nil)
		}
		card.BasePoints = *doc.Scaling.Points0
	}

	bands, err := buildBands(doc.Bands)
	if err != nil {
		return nil, err
	}
	card.bands = bands

	if len(doc.Scorecard) == 0 {
		return nil, NewConfigParseError("", "scorecard declares no features", nil)
	}
	for _, decl := range doc.Scorecard {
		feature, err := buildFeature(decl)
		if err != nil {
			return nil, err
		}
		card.features[decl.name] = feature
		card.order = append(card.order, decl.name)
	}

	return card, nil
}

func buildBands(decls []bandDecl) ([]Band, error) {
	bands := make([]Band, 0, len(decls))
	for i, decl := range decls {
		if decl.Name == "" {
			return nil, NewConfigParseError("", fmt.Sprintf("band #%d has no name", i+1), nil)
		}
		if decl.MaxScore == nil {
			return nil, NewConfigParseError("", fmt.Sprintf("band %s has no max_score", decl.Name), nil)
		}
		if !finite(*decl.MaxScore) {
			return nil, NewConfigParseError("", fmt.Sprintf("band %s has non-finite max_score", decl.Name), nil)
		}
		if i > 0 && *decl.MaxScore < bands[i-1].MaxScore {
			return nil, NewConfigParseError("", fmt.Sprintf("band %s is not ordered ascending by max_score", decl.Name), nil)
		}
		bands = append(bands, Band{MaxScore: *decl.MaxScore, Name: decl.Name})
	}
	return bands, nil
}

func buildFeature(decl featureDecl) (*FeatureScorecard, error) {
	bins := make([]BinSpec, 0, len(decl.bins))
	for i, bd := range decl.bins {
		if bd.Bin == nil || *bd.Bin == "" {
			return nil, NewConfigParseError(decl.name, fmt.Sprintf("bin #%d has no label", i+1), nil)
		}
		if bd.Points == nil {
			return nil, NewConfigParseError(decl.name, fmt.Sprintf("bin %q has no points", *bd.Bin), nil)
		}
		if !finite(*bd.Points) {
			return nil, NewConfigParseError(decl.name, fmt.Sprintf("bin %q has non-finite points", *bd.Bin), nil)
		}
		bin, err := ParseBin(*bd.Bin, *bd.Points)
		if err != nil {
			var parseErr *ConfigParseError
			if errors.As(err, &parseErr) {
				parseErr.Feature = decl.name
			}
			return nil, err
		}
		bins = append(bins, bin)
	}
	return NewFeatureScorecard(decl.name, bins)
}

// finite rejects the .nan and .inf scalars YAML accepts for floats.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
