// internal/models/outcome.go
package models

// FailureKind groups failure reasons so callers can decide what to do next.
type FailureKind string

const (
	ConfigurationFailure FailureKind = "configuration"
	ResourceFailure      FailureKind = "resource"
	TransportFailure     FailureKind = "transport"
	FormatFailure        FailureKind = "format"
	ValidationFailure    FailureKind = "validation"
)

// AnalysisOutcome is either {ok: true, record} or {ok: false, reason, kind}.
type AnalysisOutcome struct {
	OK     bool             `json:"ok"`
	Record *NutritionRecord `json:"record,omitempty"`
	Reason string           `json:"reason,omitempty"`
	Kind   FailureKind      `json:"kind,omitempty"`
}

func Succeeded(record *NutritionRecord) AnalysisOutcome {
	return AnalysisOutcome{OK: true, Record: record}
}

func Failed(kind FailureKind, reason string) AnalysisOutcome {
	return AnalysisOutcome{OK: false, Reason: reason, Kind: kind}
}
