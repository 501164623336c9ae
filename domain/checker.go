package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UnknownThreshold is the config sentinel meaning "do not evaluate this severity"
const UnknownThreshold = "unknown"

// Parameter keys handed to checkers
const (
	ParamErrorThreshold   = "error_threshold"
	ParamWarningThreshold = "warning_threshold"
)

// Direction tells which side of a threshold is bad
type Direction string

const (
	// HigherIsBetter metrics fail when they drop below the threshold
	HigherIsBetter Direction = "higher_is_better"

	// LowerIsBetter metrics fail when they rise above the threshold
	LowerIsBetter Direction = "lower_is_better"
)

// Threshold is either a number or unknown
type Threshold struct {
	value float64
	known bool
}

// Unknown returns a threshold that is never evaluated
func Unknown() Threshold {
	return Threshold{}
}

// At returns a numeric threshold
func At(value float64) Threshold {
	return Threshold{value: value, known: true}
}

// IsUnknown reports whether the threshold is the unknown sentinel
func (t Threshold) IsUnknown() bool { return !t.known }

// Value returns the numeric threshold; it is 0 for unknown thresholds
func (t Threshold) Value() float64 { return t.value }

// Scaled multiplies a known threshold, unknown stays unknown
func (t Threshold) Scaled(factor float64) Threshold {
	if !t.known {
		return t
	}
	return At(t.value * factor)
}

// Fails reports whether value crosses the threshold in the given direction
func (t Threshold) Fails(value float64, dir Direction) bool {
	if !t.known {
		return false
	}
	if dir == LowerIsBetter {
		return value > t.value
	}
	return value < t.value
}

// String renders the threshold as it appears in configs
func (t Threshold) String() string {
	if !t.known {
		return UnknownThreshold
	}
	return strconv.FormatFloat(t.value, 'f', -1, 64)
}

// Raw returns the config representation: the number or "unknown"
func (t Threshold) Raw() any {
	if !t.known {
		return UnknownThreshold
	}
	return t.value
}

// MarshalJSON writes a number or "unknown"
func (t Threshold) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Raw())
}

// MarshalYAML writes a number or "unknown"
func (t Threshold) MarshalYAML() (interface{}, error) {
	return t.Raw(), nil
}

// ParseThreshold converts a raw config value to a Threshold
func ParseThreshold(raw any) (Threshold, error) {
	switch v := raw.(type) {
	case nil:
		return Unknown(), fmt.Errorf("threshold is empty")
	case Threshold:
		return v, nil
	case int:
		return At(float64(v)), nil
	case int64:
		return At(float64(v)), nil
	case float64:
		return At(v), nil
	case float32:
		return At(float64(v)), nil
	case string:
		if strings.EqualFold(strings.TrimSpace(v), UnknownThreshold) {
			return Unknown(), nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return Unknown(), fmt.Errorf("threshold must be a number or %q, got %q", UnknownThreshold, v)
		}
		return At(f), nil
	default:
		return Unknown(), fmt.Errorf("threshold must be a number or %q, got %T", UnknownThreshold, raw)
	}
}

// Thresholds is the error/warning pair shared by threshold-based checkers
type Thresholds struct {
	Error   Threshold
	Warning Threshold
}

// Disabled reports whether neither severity is evaluated
func (t Thresholds) Disabled() bool {
	return t.Error.IsUnknown() && t.Warning.IsUnknown()
}

// CheckOrder verifies that the error cutoff is strictly more severe than the warning cutoff
func (t Thresholds) CheckOrder(dir Direction) error {
	if t.Error.IsUnknown() || t.Warning.IsUnknown() {
		return nil
	}
	if dir == LowerIsBetter && t.Error.Value() <= t.Warning.Value() {
		return fmt.Errorf("error threshold %s must be greater than warning threshold %s", t.Error, t.Warning)
	}
	if dir == HigherIsBetter && t.Error.Value() >= t.Warning.Value() {
		return fmt.Errorf("error threshold %s must be lower than warning threshold %s", t.Error, t.Warning)
	}
	return nil
}

// Classify returns the severity and threshold crossed by value, if any
func (t Thresholds) Classify(value float64, dir Direction) (Severity, Threshold, bool) {
	if t.Error.Fails(value, dir) {
		return SeverityError, t.Error, true
	}
	if t.Warning.Fails(value, dir) {
		return SeverityWarning, t.Warning, true
	}
	return "", Unknown(), false
}

// CheckerConfig is the resolved parameter set of one checker for one run.
// Params uses checker-facing keys: error_threshold, warning_threshold and
// any checker specific parameter.
type CheckerConfig struct {
	Name   string
	Params map[string]any
}

// Clone returns a deep enough copy for downgrade edits
func (c CheckerConfig) Clone() CheckerConfig {
	params := make(map[string]any, len(c.Params))
	for k, v := range c.Params {
		params[k] = v
	}
	return CheckerConfig{Name: c.Name, Params: params}
}

// Has reports whether the parameter is set
func (c CheckerConfig) Has(key string) bool {
	_, ok := c.Params[key]
	return ok
}

// Threshold parses a threshold parameter
func (c CheckerConfig) Threshold(key string) (Threshold, error) {
	raw, ok := c.Params[key]
	if !ok {
		return Unknown(), NewCheckerConfigError(c.Name, key, "missing required parameter")
	}
	t, err := ParseThreshold(raw)
	if err != nil {
		return Unknown(), NewCheckerConfigError(c.Name, key, err.Error())
	}
	return t, nil
}

// Thresholds parses the error/warning pair and checks their order
func (c CheckerConfig) Thresholds(dir Direction) (Thresholds, error) {
	errT, err := c.Threshold(ParamErrorThreshold)
	if err != nil {
		return Thresholds{}, err
	}
	warnT, err := c.Threshold(ParamWarningThreshold)
	if err != nil {
		return Thresholds{}, err
	}
	t := Thresholds{Error: errT, Warning: warnT}
	if err := t.CheckOrder(dir); err != nil {
		return Thresholds{}, NewCheckerConfigError(c.Name, "error/warning", err.Error())
	}
	return t, nil
}

// Float parses a required numeric parameter
func (c CheckerConfig) Float(key string) (float64, error) {
	raw, ok := c.Params[key]
	if !ok {
		return 0, NewCheckerConfigError(c.Name, key, "missing required parameter")
	}
	t, err := ParseThreshold(raw)
	if err != nil || t.IsUnknown() {
		return 0, NewCheckerConfigError(c.Name, key, fmt.Sprintf("expected a number, got %v", raw))
	}
	return t.Value(), nil
}

// Bool parses an optional boolean parameter
func (c CheckerConfig) Bool(key string, def bool) (bool, error) {
	raw, ok := c.Params[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def, NewCheckerConfigError(c.Name, key, fmt.Sprintf("expected a boolean, got %q", v))
		}
		return b, nil
	default:
		return def, NewCheckerConfigError(c.Name, key, fmt.Sprintf("expected a boolean, got %T", raw))
	}
}

// Strings parses an optional list of strings
func (c CheckerConfig) Strings(key string) ([]string, error) {
	raw, ok := c.Params[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, NewCheckerConfigError(c.Name, key, fmt.Sprintf("expected a list of strings, found %T", item))
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, NewCheckerConfigError(c.Name, key, fmt.Sprintf("expected a list of strings, got %T", raw))
	}
}

// RunSummary is attached to every view for auditability
type RunSummary struct {
	Instrument string                    `json:"instrument_and_reagent_version" yaml:"instrument_and_reagent_version"`
	ReadLength int                       `json:"read_length" yaml:"read_length"`
	Checkers   map[string]map[string]any `json:"checkers" yaml:"checkers"`
}

// NewRunSummary builds the summary block from the resolved checker configs
func NewRunSummary(data *QCData, configs []CheckerConfig) RunSummary {
	checkers := make(map[string]map[string]any, len(configs))
	for _, cfg := range configs {
		checkers[cfg.Name] = cfg.Clone().Params
	}
	return RunSummary{
		Instrument: data.Instrument,
		ReadLength: data.ReadLength,
		Checkers:   checkers,
	}
}
