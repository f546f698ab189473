package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pulse/internal/ir"
)

// Scenario defines a pulse conformance scenario: a network, a number of
// presses and the expectations over the resulting counts and trace.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Network is an inline network in text format.
	Network string `yaml:"network,omitempty"`

	// NetworkFile points at a network in any supported format. Relative
	// paths are resolved against the scenario file's directory.
	NetworkFile string `yaml:"network_file,omitempty"`

	// Trigger is the node the button feeds. Defaults to broadcaster.
	Trigger string `yaml:"trigger,omitempty"`

	// Presses is the number of button presses to aggregate.
	Presses int64 `yaml:"presses"`

	// TracePresses is how many leading presses are recorded in the trace.
	TracePresses int64 `yaml:"trace_presses,omitempty"`

	// Strict rejects destinations that are not declared.
	Strict bool `yaml:"strict,omitempty"`

	// Expect holds the expected aggregate counts, if any.
	Expect *ExpectCounts `yaml:"expect,omitempty"`

	// Assertions validate the trace and final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectCounts is the expected high and low totals over all presses.
type ExpectCounts struct {
	High int64 `yaml:"high"`
	Low  int64 `yaml:"low"`
}

// Assertion validates the trace, a search result or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Signal is a signal spelled "source -polarity-> destination"
	// (trace_contains).
	Signal string `yaml:"signal,omitempty"`

	// Signals must appear in this relative order (trace_order).
	Signals []string `yaml:"signals,omitempty"`

	// Node names the node under test (trace_count, first_occurrence,
	// final_state).
	Node string `yaml:"node,omitempty"`

	// Polarity filters trace_count and selects the first_occurrence
	// condition. Empty means any polarity for trace_count and high for
	// first_occurrence.
	Polarity string `yaml:"polarity,omitempty"`

	// Count is the expected number of signals sent by Node (trace_count).
	Count int `yaml:"count,omitempty"`

	// Index is the expected 1-based press index (first_occurrence).
	Index int64 `yaml:"index,omitempty"`

	// Targets are conditions like "g1:high" (composed_period).
	Targets []string `yaml:"targets,omitempty"`

	// Answer is the expected LCM of the target periods (composed_period).
	Answer int64 `yaml:"answer,omitempty"`

	// Active is the expected toggle state (final_state).
	Active *bool `yaml:"active,omitempty"`

	// Inputs are the expected remembered gate inputs (final_state).
	Inputs map[string]string `yaml:"inputs,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains   = "trace_contains"
	AssertTraceOrder      = "trace_order"
	AssertTraceCount      = "trace_count"
	AssertFirstOccurrence = "first_occurrence"
	AssertComposedPeriod  = "composed_period"
	AssertFinalState      = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. A relative
// network_file is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative network_file against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.NetworkFile != "" && !filepath.IsAbs(scenario.NetworkFile) && basePath != "" {
		scenario.NetworkFile = filepath.Join(basePath, scenario.NetworkFile)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario without resolving or validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// trigger returns the configured trigger, defaulting to broadcaster.
func (s *Scenario) trigger() ir.NodeID {
	if s.Trigger == "" {
		return ir.Broadcaster
	}
	return ir.NodeID(s.Trigger)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Network == "" && s.NetworkFile == "":
		return fmt.Errorf("one of network or network_file is required")
	case s.Network != "" && s.NetworkFile != "":
		return fmt.Errorf("network and network_file are mutually exclusive")
	}

	if s.NetworkFile != "" {
		if _, err := os.Stat(s.NetworkFile); os.IsNotExist(err) {
			return fmt.Errorf("network file not found: %s", s.NetworkFile)
		}
	}

	if s.Presses < 0 {
		return fmt.Errorf("presses must be non-negative")
	}
	if s.TracePresses < 0 || s.TracePresses > s.Presses {
		return fmt.Errorf("trace_presses must be between 0 and presses (%d)", s.Presses)
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Polarity != "" {
		if _, err := ir.ParsePolarity(a.Polarity); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Signal == "" {
			return fmt.Errorf("assertions[%d]: signal is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Signals) == 0 {
			return fmt.Errorf("assertions[%d]: signals list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFirstOccurrence:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for first_occurrence", index)
		}
		if a.Index <= 0 {
			return fmt.Errorf("assertions[%d]: index must be positive for first_occurrence", index)
		}
	case AssertComposedPeriod:
		if len(a.Targets) == 0 {
			return fmt.Errorf("assertions[%d]: targets list is required for composed_period", index)
		}
		for _, target := range a.Targets {
			if _, err := ir.ParseCondition(target); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
		if a.Answer <= 0 {
			return fmt.Errorf("assertions[%d]: answer must be positive for composed_period", index)
		}
	case AssertFinalState:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for final_state", index)
		}
		if a.Active == nil && len(a.Inputs) == 0 {
			return fmt.Errorf("assertions[%d]: active or inputs is required for final_state", index)
		}
		for src, p := range a.Inputs {
			if _, err := ir.ParsePolarity(p); err != nil {
				return fmt.Errorf("assertions[%d]: input %s: %w", index, src, err)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
