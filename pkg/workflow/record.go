// Package workflow owns the per-session learning workflow: the session
// record, the states derived from it and the operations that move a
// session from a YouTube URL to a transcript, a summary and its follow-ups.
package workflow

import (
	"slices"

	"github.com/ethanbaker/learnwithai/pkg/transcript"
)

// State is the workflow position of a session, derived from its record
type State string

const (
	StateEmpty             State = "empty"
	StateTranscriptLoading State = "transcript_loading"
	StateTranscriptReady   State = "transcript_ready"
	StateRunningPrimary    State = "running_primary"
	StateSummaryReady      State = "summary_ready"
	StateRunningFollowup   State = "running_followup"
)

// Record is the state owned by one user session. It is created empty,
// changed only by orchestrator operations and cleared by Reset.
type Record struct {
	VideoID              string                `json:"video_id,omitempty"`
	AvailableLanguages   []transcript.Language `json:"available_languages,omitempty"`
	TranscriptText       string                `json:"transcript_text,omitempty"`
	TranscriptLang       string                `json:"transcript_lang,omitempty"`
	SummaryText          string                `json:"summary_text,omitempty"`
	SummaryLang          string                `json:"summary_lang,omitempty"`
	ManualFallbackActive bool                  `json:"manual_fallback_active"`

	// Credential is the chat provider key supplied by the user
	Credential      string `json:"credential,omitempty"`
	CredentialValid bool   `json:"credential_valid"`

	// Running is set while a task executes
	Running State `json:"running,omitempty"`
}

// State derives the workflow state from the record
func (r *Record) State() State {
	switch {
	case r.Running != "":
		return r.Running
	case r.SummaryText != "":
		return StateSummaryReady
	case r.TranscriptText != "":
		return StateTranscriptReady
	case r.VideoID != "" || r.ManualFallbackActive:
		return StateTranscriptLoading
	default:
		return StateEmpty
	}
}

// stateAfterRun is the state the record settles in once the running marker
// is cleared
func (r *Record) stateAfterRun() State {
	settled := *r
	settled.Running = ""
	return settled.State()
}

// HasTranscript reports whether the hub text is available
func (r *Record) HasTranscript() bool {
	return r.TranscriptText != ""
}

// HasSummary reports whether a chainable summary is available
func (r *Record) HasSummary() bool {
	return r.SummaryText != ""
}

// HasCredential reports whether a validated credential is stored
func (r *Record) HasCredential() bool {
	return r.Credential != "" && r.CredentialValid
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	r.AvailableLanguages = slices.Clone(r.AvailableLanguages)
	return r
}

// Redacted returns a copy without the credential, safe to hand to clients
func (r Record) Redacted() Record {
	c := r.Clone()
	c.Credential = ""
	return c
}

func (r *Record) clearTranscript() {
	r.TranscriptText = ""
	r.TranscriptLang = ""
	r.clearSummary()
}

func (r *Record) clearSummary() {
	r.SummaryText = ""
	r.SummaryLang = ""
}

func (r *Record) forgetCredential() {
	r.Credential = ""
	r.CredentialValid = false
}
