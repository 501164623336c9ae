package domain

import (
	"encoding/json"
	"fmt"
)

// Severity classifies a QC finding
type Severity string

const (
	// SeverityError is fatal: any report with this severity fails the run
	SeverityError Severity = "error"

	// SeverityWarning is informational and never fails the run on its own
	SeverityWarning Severity = "warning"
)

// DefaultOrderingKey is used by reports that do not belong to a lane
const DefaultOrderingKey = "1"

// Well-known keys of QCReport.Data
const (
	DataKeyLane      = "lane"
	DataKeyRead      = "read"
	DataKeySampleID  = "sample_id"
	DataKeyThreshold = "threshold"
	DataKeyChecker   = "qc_checker"
	DataKeyCauses    = "causes"
)

// QCReport is a single QC finding. Reports are created by checkers and are
// never mutated afterwards.
type QCReport struct {
	message     string
	severity    Severity
	orderingKey string
	data        map[string]any
}

// NewQCReport creates a report with the given severity
func NewQCReport(severity Severity, message, orderingKey string, data map[string]any) *QCReport {
	if orderingKey == "" {
		orderingKey = DefaultOrderingKey
	}
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return &QCReport{
		message:     message,
		severity:    severity,
		orderingKey: orderingKey,
		data:        copied,
	}
}

// NewFatal creates an error-severity report
func NewFatal(message, orderingKey string, data map[string]any) *QCReport {
	return NewQCReport(SeverityError, message, orderingKey, data)
}

// NewWarning creates a warning-severity report
func NewWarning(message, orderingKey string, data map[string]any) *QCReport {
	return NewQCReport(SeverityWarning, message, orderingKey, data)
}

// Message returns the human readable finding
func (r *QCReport) Message() string { return r.message }

// Severity returns the report severity
func (r *QCReport) Severity() Severity { return r.severity }

// Type returns the serialized severity, "error" or "warning"
func (r *QCReport) Type() string { return string(r.severity) }

// OrderingKey returns the key views use to order reports
func (r *QCReport) OrderingKey() string { return r.orderingKey }

// IsFatal reports whether the finding fails the run
func (r *QCReport) IsFatal() bool { return r.severity == SeverityError }

// Data returns a copy of the structured payload
func (r *QCReport) Data() map[string]any {
	copied := make(map[string]any, len(r.data))
	for k, v := range r.data {
		copied[k] = v
	}
	return copied
}

// Get returns a single payload value
func (r *QCReport) Get(key string) (any, bool) {
	v, ok := r.data[key]
	return v, ok
}

// Lane returns the lane the report is scoped to, if any
func (r *QCReport) Lane() (int, bool) {
	v, ok := r.data[DataKeyLane]
	if !ok {
		return 0, false
	}
	lane, ok := v.(int)
	return lane, ok
}

// Checker returns the name of the checker that produced the report
func (r *QCReport) Checker() string {
	if name, ok := r.data[DataKeyChecker].(string); ok {
		return name
	}
	return ""
}

// String renders the report the way it is shown to operators
func (r *QCReport) String() string {
	if r.severity == SeverityError {
		return fmt.Sprintf("Fatal QC error: %s", r.message)
	}
	return fmt.Sprintf("QC warning: %s", r.message)
}

// Equal compares message and severity
func (r *QCReport) Equal(other *QCReport) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.message == other.message && r.severity == other.severity
}

// qcReportJSON is the serialized form of a report
type qcReportJSON struct {
	Type        string         `json:"type" yaml:"type"`
	Message     string         `json:"message" yaml:"message"`
	OrderingKey string         `json:"ordering_key" yaml:"ordering_key"`
	Data        map[string]any `json:"data" yaml:"data"`
}

// MarshalJSON serializes the report with its type field
func (r *QCReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.serialized())
}

// MarshalYAML serializes the report with its type field
func (r *QCReport) MarshalYAML() (interface{}, error) {
	return r.serialized(), nil
}

func (r *QCReport) serialized() qcReportJSON {
	return qcReportJSON{
		Type:        r.Type(),
		Message:     r.message,
		OrderingKey: r.orderingKey,
		Data:        r.Data(),
	}
}

// HasFatal reports whether any of the reports is error severity
func HasFatal(reports []*QCReport) bool {
	for _, r := range reports {
		if r.IsFatal() {
			return true
		}
	}
	return false
}

// ExitStatus is 1 when any report is fatal, 0 otherwise
func ExitStatus(reports []*QCReport) int {
	if HasFatal(reports) {
		return 1
	}
	return 0
}
