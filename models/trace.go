package models

import (
	"encoding/json"
	"time"
)

type StrategyOutcome string

const (
	OutcomeMatched StrategyOutcome = "matched"
	OutcomeMiss    StrategyOutcome = "miss"
	OutcomeErrored StrategyOutcome = "errored"
	OutcomeInvalid StrategyOutcome = "invalid"
)

// StrategyAttempt records one strategy's outcome within a field chain.
// A miss and an error both let the chain continue, but they are kept
// apart here so schema drift shows up as errors rather than silence.
type StrategyAttempt struct {
	Strategy string          `json:"strategy"`
	Outcome  StrategyOutcome `json:"outcome"`
	Detail   string          `json:"detail,omitempty"`
}

type FieldTrace struct {
	Field     string            `json:"field"`
	Found     bool              `json:"found"`
	MatchedBy string            `json:"matched_by,omitempty"`
	Attempts  []StrategyAttempt `json:"attempts"`
}

// ExtractionTrace is the per-record audit of which strategy produced
// which field. It replaces process-wide diagnostic state: one trace per
// page visit, returned alongside the canonical record.
type ExtractionTrace struct {
	URL        string       `json:"url"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Fields     []FieldTrace `json:"fields"`
}

func (t *ExtractionTrace) Record(ft FieldTrace) {
	t.Fields = append(t.Fields, ft)
}

// Field returns the trace for a named field, or nil.
func (t *ExtractionTrace) Field(name string) *FieldTrace {
	for i := range t.Fields {
		if t.Fields[i].Field == name {
			return &t.Fields[i]
		}
	}
	return nil
}

func (t *ExtractionTrace) FieldsFound() int {
	n := 0
	for _, f := range t.Fields {
		if f.Found {
			n++
		}
	}
	return n
}

func (t *ExtractionTrace) ToJSON() json.RawMessage {
	data, err := json.Marshal(t)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
