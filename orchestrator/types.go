package orchestrator

import (
	"time"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

// Filter narrows the utterances sent to the scorer.
type Filter struct {
	// Sections keeps only these sections; empty keeps all.
	Sections []transcript.Section
	// Limit keeps the first N utterances after section filtering; 0 keeps all.
	Limit int
}

type CallSummary struct {
	CallID     string `json:"call_id"`
	Path       string `json:"path"`
	Utterances int    `json:"utterances"`
	QA         int    `json:"qa_utterances"`
	Pairs      int    `json:"pairs"`
}

// Manifest describes one pipeline run and is written next to its outputs.
type Manifest struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	RawRoot     string        `json:"raw_root"`
	Provider    string        `json:"provider"`
	Model       string        `json:"model,omitempty"`
	Calls       []CallSummary `json:"calls"`
	Utterances  int           `json:"utterances"`
	Scored      int           `json:"scored"`
	Pairs       int           `json:"pairs"`
	Files       []string      `json:"files"`
}

// Result is returned by Run.
type Result struct {
	Dir      string
	Manifest Manifest
}

// SummaryRow holds descriptive statistics of one column within one section.
type SummaryRow struct {
	Section string
	Column  string
	Count   int
	Mean    float64
	Std     float64
	Min     float64
	Q25     float64
	Median  float64
	Q75     float64
	Max     float64
}
