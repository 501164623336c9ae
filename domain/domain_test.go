package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

// Error tests

func TestDomainError_Error(t *testing.T) {
	// Without cause
	err := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
	}
	expected := "[TEST_ERROR] Test message"
	if err.Error() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, err.Error())
	}

	// With cause
	cause := errors.New("underlying error")
	errWithCause := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
		Cause:   cause,
	}
	expectedWithCause := "[TEST_ERROR] Test message: underlying error"
	if errWithCause.Error() != expectedWithCause {
		t.Errorf("Expected '%s', got '%s'", expectedWithCause, errWithCause.Error())
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := DomainError{
		Code:    "TEST_ERROR",
		Message: "Test message",
		Cause:   cause,
	}

	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	errNoCause := DomainError{Code: "TEST_ERROR", Message: "Test message"}
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap should return nil when no cause")
	}
}

func TestNewDomainError(t *testing.T) {
	cause := errors.New("cause")
	err := NewDomainError("CODE", "message", cause)

	domainErr, ok := err.(DomainError)
	if !ok {
		t.Fatal("Should return DomainError type")
	}
	if domainErr.Code != "CODE" {
		t.Errorf("Expected code 'CODE', got '%s'", domainErr.Code)
	}
	if domainErr.Message != "message" {
		t.Errorf("Expected message 'message', got '%s'", domainErr.Message)
	}
	if domainErr.Cause != cause {
		t.Error("Cause should be set")
	}
}

func TestNewFileNotFoundError(t *testing.T) {
	err := NewFileNotFoundError("/path/to/file", nil)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeFileNotFound {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeFileNotFound, domainErr.Code)
	}
	if domainErr.Message != "file not found: /path/to/file" {
		t.Errorf("Unexpected message: %s", domainErr.Message)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("file not found errors should match ErrNotFound")
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("invalid config", nil)

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeConfigError {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeConfigError, domainErr.Code)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Error("config errors should match ErrConfiguration")
	}
	if errors.Is(err, ErrConfigEntryMissing) {
		t.Error("a plain config error is not a missing entry")
	}
}

func TestConfigEntryMissingIsConfigurationError(t *testing.T) {
	err := NewConfigEntryMissingError("novaseq_SP", 35)

	if !errors.Is(err, ErrConfigEntryMissing) {
		t.Error("expected ErrConfigEntryMissing")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Error("a missing entry is a configuration error")
	}

	wrapped := fmt.Errorf("resolving: %w", err)
	if !errors.Is(wrapped, ErrConfigEntryMissing) {
		t.Error("errors.Is should see through wrapping")
	}
	if !strings.Contains(err.Error(), "read length 35") {
		t.Errorf("message should name the read length, got %q", err.Error())
	}
}

func TestNewCheckerConfigError(t *testing.T) {
	err := NewCheckerConfigError("unidentified_index", "significance_threshold", "missing required parameter")

	msg := err.Error()
	if !strings.Contains(msg, "unidentified_index") || !strings.Contains(msg, "significance_threshold") {
		t.Errorf("message should name checker and key, got %q", msg)
	}
}

func TestNewUnsupportedFormatError(t *testing.T) {
	err := NewUnsupportedFormatError("xml")

	domainErr := err.(DomainError)
	if domainErr.Code != ErrCodeUnsupportedFormat {
		t.Errorf("Expected code '%s', got '%s'", ErrCodeUnsupportedFormat, domainErr.Code)
	}
	if domainErr.Message != "unsupported format: xml" {
		t.Errorf("Unexpected message: %s", domainErr.Message)
	}
}

// Report tests

func TestQCReport_String(t *testing.T) {
	fatal := NewFatal("boom", "", nil)
	if fatal.String() != "Fatal QC error: boom" {
		t.Errorf("unexpected fatal string %q", fatal.String())
	}
	if fatal.Type() != "error" {
		t.Errorf("expected type error, got %s", fatal.Type())
	}
	if fatal.OrderingKey() != DefaultOrderingKey {
		t.Errorf("expected default ordering key, got %s", fatal.OrderingKey())
	}

	warning := NewWarning("hmm", "3", nil)
	if warning.String() != "QC warning: hmm" {
		t.Errorf("unexpected warning string %q", warning.String())
	}
	if warning.Type() != "warning" {
		t.Errorf("expected type warning, got %s", warning.Type())
	}
}

func TestQCReport_DataIsCopied(t *testing.T) {
	data := map[string]any{"lane": 1}
	report := NewFatal("msg", "1", data)

	data["lane"] = 2
	if lane, _ := report.Lane(); lane != 1 {
		t.Errorf("report must not see later changes to the input map, lane=%d", lane)
	}

	out := report.Data()
	out["lane"] = 3
	if lane, _ := report.Lane(); lane != 1 {
		t.Errorf("report must not be mutated through Data(), lane=%d", lane)
	}
}

func TestQCReport_Equal(t *testing.T) {
	a := NewFatal("msg", "1", map[string]any{"lane": 1})
	b := NewFatal("msg", "2", map[string]any{"lane": 2})
	c := NewWarning("msg", "1", nil)

	if !a.Equal(b) {
		t.Error("reports with same message and severity should be equal")
	}
	if a.Equal(c) {
		t.Error("reports with different severity should differ")
	}
}

func TestQCReport_MarshalJSON(t *testing.T) {
	report := NewWarning("msg", "1:AAA", map[string]any{"lane": 1, "qc_checker": "unidentified_index"})

	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded["type"] != "warning" {
		t.Errorf("expected type warning, got %v", decoded["type"])
	}
	if decoded["ordering_key"] != "1:AAA" {
		t.Errorf("unexpected ordering key %v", decoded["ordering_key"])
	}
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name    string
		reports []*QCReport
		want    int
	}{
		{"no reports", nil, 0},
		{"warnings only", []*QCReport{NewWarning("a", "", nil), NewWarning("b", "", nil)}, 0},
		{"one fatal", []*QCReport{NewWarning("a", "", nil), NewFatal("b", "", nil)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitStatus(tt.reports); got != tt.want {
				t.Errorf("ExitStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Threshold tests

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		raw         any
		wantUnknown bool
		wantValue   float64
		wantErr     bool
	}{
		{"unknown", true, 0, false},
		{"Unknown", true, 0, false},
		{5, false, 5, false},
		{int64(7), false, 7, false},
		{2.5, false, 2.5, false},
		{"3.5", false, 3.5, false},
		{"lots", false, 0, true},
		{nil, false, 0, true},
		{[]string{"x"}, false, 0, true},
	}

	for _, tt := range tests {
		got, err := ParseThreshold(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseThreshold(%v) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if got.IsUnknown() != tt.wantUnknown {
			t.Errorf("ParseThreshold(%v) unknown = %v", tt.raw, got.IsUnknown())
		}
		if !tt.wantUnknown && got.Value() != tt.wantValue {
			t.Errorf("ParseThreshold(%v) = %v, want %v", tt.raw, got.Value(), tt.wantValue)
		}
	}
}

func TestThresholds_CheckOrder(t *testing.T) {
	if err := (Thresholds{Error: At(10), Warning: At(20)}).CheckOrder(HigherIsBetter); err != nil {
		t.Errorf("10 < 20 is a valid higher-is-better pair: %v", err)
	}
	if err := (Thresholds{Error: At(20), Warning: At(10)}).CheckOrder(HigherIsBetter); err == nil {
		t.Error("expected error for inverted higher-is-better pair")
	}
	if err := (Thresholds{Error: At(20), Warning: At(10)}).CheckOrder(LowerIsBetter); err != nil {
		t.Errorf("20 > 10 is a valid lower-is-better pair: %v", err)
	}
	if err := (Thresholds{Error: At(10), Warning: At(10)}).CheckOrder(LowerIsBetter); err == nil {
		t.Error("equal thresholds are not strictly ordered")
	}
	if err := (Thresholds{Error: Unknown(), Warning: At(10)}).CheckOrder(LowerIsBetter); err != nil {
		t.Errorf("unknown thresholds are never out of order: %v", err)
	}
}

func TestThresholds_Classify(t *testing.T) {
	th := Thresholds{Error: At(10), Warning: At(20)}

	if sev, crossed, ok := th.Classify(5, HigherIsBetter); !ok || sev != SeverityError || crossed.Value() != 10 {
		t.Errorf("5 should be fatal at 10, got %v %v %v", sev, crossed, ok)
	}
	if sev, _, ok := th.Classify(15, HigherIsBetter); !ok || sev != SeverityWarning {
		t.Errorf("15 should warn, got %v %v", sev, ok)
	}
	if _, _, ok := th.Classify(25, HigherIsBetter); ok {
		t.Error("25 should pass")
	}
	if _, _, ok := th.Classify(math.NaN(), HigherIsBetter); ok {
		t.Error("NaN never crosses a threshold")
	}
	if _, _, ok := (Thresholds{Error: Unknown(), Warning: Unknown()}).Classify(-1, HigherIsBetter); ok {
		t.Error("unknown thresholds never fire")
	}
}

func TestCheckerConfig_Params(t *testing.T) {
	cfg := CheckerConfig{
		Name: "unidentified_index",
		Params: map[string]any{
			"significance_threshold": 1,
			"white_listed_indexes":   []any{"^AAA", "CCC"},
			"flag":                   "true",
		},
	}

	v, err := cfg.Float("significance_threshold")
	if err != nil || v != 1 {
		t.Errorf("Float() = %v, %v", v, err)
	}
	if _, err := cfg.Float("missing"); err == nil {
		t.Error("expected error for missing parameter")
	}
	list, err := cfg.Strings("white_listed_indexes")
	if err != nil || len(list) != 2 {
		t.Errorf("Strings() = %v, %v", list, err)
	}
	b, err := cfg.Bool("flag", false)
	if err != nil || !b {
		t.Errorf("Bool() = %v, %v", b, err)
	}
	b, err = cfg.Bool("absent", true)
	if err != nil || !b {
		t.Errorf("Bool() default = %v, %v", b, err)
	}
}

func TestLaneMetrics_MeanPercentPhixAligned(t *testing.T) {
	lane := LaneMetrics{Reads: map[int]ReadMetrics{
		1: {MeanPercentPhixAligned: 1.0},
		2: {MeanPercentPhixAligned: math.NaN()},
		3: {MeanPercentPhixAligned: 3.0},
	}}
	if got := lane.MeanPercentPhixAligned(); got != 2.0 {
		t.Errorf("expected NaN to be ignored, got %v", got)
	}

	allNaN := LaneMetrics{Reads: map[int]ReadMetrics{1: {MeanPercentPhixAligned: math.NaN()}}}
	if got := allNaN.MeanPercentPhixAligned(); got != 0 {
		t.Errorf("all-NaN lanes should yield 0, got %v", got)
	}
}

func TestJoinIndex(t *testing.T) {
	if JoinIndex("AAA", "") != "AAA" {
		t.Error("single index should be returned unchanged")
	}
	if JoinIndex("AAA", "CCC") != "AAA+CCC" {
		t.Error("dual index should be joined with '+'")
	}
}

func TestErrorCodeConstants(t *testing.T) {
	codes := map[string]string{
		ErrCodeInvalidInput:       "INVALID_INPUT",
		ErrCodeFileNotFound:       "FILE_NOT_FOUND",
		ErrCodeParseError:         "PARSE_ERROR",
		ErrCodeConfigError:        "CONFIG_ERROR",
		ErrCodeConfigEntryMissing: "CONFIG_ENTRY_MISSING",
		ErrCodeOutputError:        "OUTPUT_ERROR",
		ErrCodeUnsupportedFormat:  "UNSUPPORTED_FORMAT",
	}

	for code, expected := range codes {
		if code != expected {
			t.Errorf("Error code should be '%s', got '%s'", expected, code)
		}
	}
}
