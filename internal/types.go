package internal

import "time"

// TranslationRequest is one recorded call to a translation service.
type TranslationRequest struct {
	ID          string    `json:"id"`
	ServiceName string    `json:"service_name"`
	SourceText  string    `json:"source_text"`
	SourceLang  string    `json:"source_lang"`
	TargetLang  string    `json:"target_lang"`
	StatusCode  int       `json:"status_code,omitempty"`
	Error       string    `json:"error,omitempty"`
	LatencyMs   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`

	// CharsConsumed counts the source characters billed for this request;
	// zero when the call failed.
	CharsConsumed int `json:"chars_consumed"`
}
