package replay

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownOp       = errors.New("unknown operation")
	ErrUnknownTarget   = errors.New("unknown target")
	ErrUnknownSnapshot = errors.New("unknown snapshot")
	ErrExpectedFailure = errors.New("step was expected to fail")
)

// Operations understood by the runner.
const (
	OpInsert    = "insert"
	OpPush      = "push"
	OpDelete    = "delete"
	OpSet       = "set"
	OpDeleteKey = "delete_key"
	OpClear     = "clear"
	OpSnapshot  = "snapshot"
	OpReadAt    = "read_at"
	OpTransact  = "transact"
)

// Scenario is a named list of steps replayed into a fresh document.
type Scenario struct {
	Name   string            `json:"name" yaml:"name"`
	Client string            `json:"client,omitempty" yaml:"client,omitempty"`
	Roots  map[string]string `json:"roots,omitempty" yaml:"roots,omitempty"`
	Steps  []Step            `json:"steps" yaml:"steps"`
}

// Step is one operation. Target is a slash separated path: a root name
// followed by map keys or array indexes leading to a nested container.
type Step struct {
	Op     string `json:"op" yaml:"op"`
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
	Index  int    `json:"index,omitempty" yaml:"index,omitempty"`
	Count  int    `json:"count,omitempty" yaml:"count,omitempty"`
	Key    string `json:"key,omitempty" yaml:"key,omitempty"`
	Value  any    `json:"value,omitempty" yaml:"value,omitempty"`
	Values []any  `json:"values,omitempty" yaml:"values,omitempty"`

	// New embeds a fresh "array" or "map" filled from Values or Value
	// instead of inserting plain values.
	New string `json:"new,omitempty" yaml:"new,omitempty"`

	Snapshot    string `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	ExpectError bool   `json:"expect_error,omitempty" yaml:"expect_error,omitempty"`

	// Steps groups mutations into one transaction for OpTransact.
	Steps []Step `json:"steps,omitempty" yaml:"steps,omitempty"`
}

func LoadScenario(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, nil
}

// LoadScenarioFile reads a scenario and names it after the file when the
// document does not.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := LoadScenario(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}
