package validation

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

// Guard rejects change records matching a condition before they are scored.
// When holds a CEL expression over the change input fields that must return a boolean.
// The CEL program is compiled by Init and executed by Eval.
type Guard struct {
	// When is the CEL condition; a record for which it is true is rejected.
	When string `yaml:"when"`
	// Reason is reported to the caller when the guard fires.
	Reason string `yaml:"reason"`

	program cel.Program
}

// Init compiles When into an executable program using env.
// Syntax and type errors are returned as is.
func (g *Guard) Init(env *cel.Env) error {
	ast, iss := env.Parse(g.When)
	if iss.Err() != nil {
		return iss.Err()
	}

	checked, iss := env.Check(ast)
	if iss.Err() != nil {
		return iss.Err()
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return fmt.Errorf("guard %q must evaluate to bool, got %s", g.When, checked.OutputType())
	}

	var err error
	g.program, err = env.Program(checked)
	if err != nil {
		return err
	}

	return nil
}

// Eval executes the guard against a record. It reports whether the guard fired.
// A record missing a referenced field yields an evaluation error.
func (g *Guard) Eval(record map[string]any) (bool, error) {
	result, _, err := g.program.Eval(record)
	if err != nil {
		return false, err
	}
	fired, ok := result.Value().(bool)
	return ok && fired, nil
}

// NewEnv declares one CEL variable per schema field: numeric fields as double,
// everything else as string.
func NewEnv(s *Schema) (*cel.Env, error) {
	fields := s.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	opts := []cel.EnvOption{cel.CrossTypeNumericComparisons(true)}
	for _, name := range names {
		if fields[name] {
			opts = append(opts, cel.Variable(name, cel.DoubleType))
		} else {
			opts = append(opts, cel.Variable(name, cel.StringType))
		}
	}
	return cel.NewEnv(opts...)
}

// LoadGuards reads a YAML list of guards and compiles each of them.
//
// The file has the form:
//
//   - when: "change_size == 'XL' && test_depth == 'NONE'"
//     reason: "XL changes require automated tests"
func LoadGuards(file string, envProvider func() (*cel.Env, error)) ([]Guard, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	guards := []Guard{}

	err = yaml.Unmarshal(content, &guards)
	if err != nil {
		return nil, fmt.Errorf("parse guards %s: %w", file, err)
	}

	for i := range guards {
		env, err := envProvider()
		if err != nil {
			return nil, err
		}

		err = guards[i].Init(env)
		if err != nil {
			return nil, fmt.Errorf("guard #%d: %w", i+1, err)
		}
		if guards[i].Reason == "" {
			guards[i].Reason = guards[i].When
		}
	}
	return guards, nil
}
