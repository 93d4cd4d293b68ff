package sdk

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ethanbaker/learnwithai/pkg/transcript"
	"github.com/ethanbaker/learnwithai/pkg/workflow"
)

// StatusType is the JSend-style status of a response
type StatusType string

const (
	StatusSuccess StatusType = "success" // The request succeeded
	StatusFail    StatusType = "fail"    // The request was rejected (client error)
	StatusError   StatusType = "error"   // The server failed to handle the request
)

// ApiResponse represents a standard API response structure
type ApiResponse[T any] struct {
	Status  StatusType `json:"status"`          // Status message
	Code    int        `json:"code"`            // Status code
	Message string     `json:"message"`         // Human-readable message
	Data    T          `json:"data,omitempty"`  // Optional data field for successful responses
	Error   any        `json:"error,omitempty"` // Optional errors field for error responses
}

// AsGinResponse converts the ApiResponse to a format suitable for Gin framework
func (r ApiResponse[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

// AsJSON converts the ApiResponse to a format suitable for JSON responses
func (r ApiResponse[T]) AsJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func NewSuccess(message string) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  StatusSuccess,
		Code:    http.StatusOK,
		Message: message,
	}
}

func NewSuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  StatusSuccess,
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(code int, message string, err any) ApiResponse[any] {
	status := StatusError
	if code < http.StatusInternalServerError {
		status = StatusFail
	}

	return ApiResponse[any]{
		Status:  status,
		Code:    code,
		Message: message,
		Error:   err,
	}
}

/** Requests */

// LoadTranscriptOptionsRequest carries the YouTube watch URL
type LoadTranscriptOptionsRequest struct {
	URL string `json:"url" binding:"required"`
}

// FetchTranscriptRequest selects one of the listed caption languages
type FetchTranscriptRequest struct {
	Language string `json:"language" binding:"required"`
}

// ManualTranscriptRequest carries pasted transcript text
type ManualTranscriptRequest struct {
	Text string `json:"text" binding:"required"`
}

// CredentialRequest carries the chat provider API key
type CredentialRequest struct {
	ApiKey string `json:"api_key" binding:"required"`
}

// TaskRequest runs a primary or follow-up task
type TaskRequest struct {
	Task           string `json:"task" binding:"required"`
	TargetLanguage string `json:"target_language"` // Required by translation tasks
}

/** Responses */

// Session is the public view of a workflow session. The credential is never
// included.
type Session struct {
	ID        string          `json:"id"`
	State     workflow.State  `json:"state"`
	Record    workflow.Record `json:"record"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewSession builds the public view of a stored session
func NewSession(s *workflow.Session) Session {
	return Session{
		ID:        s.ID.String(),
		State:     s.Record.State(),
		Record:    s.Record.Redacted(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Artifact is a task output. Text outputs carry text and rendered html, binary
// outputs carry base64 encoded data.
type Artifact struct {
	Kind        workflow.ArtifactKind `json:"kind"`
	Text        string                `json:"text,omitempty"`
	HTML        string                `json:"html,omitempty"`
	Lang        string                `json:"lang,omitempty"`
	Filename    string                `json:"filename,omitempty"`
	ContentType string                `json:"content_type,omitempty"`
	Data        string                `json:"data,omitempty"`
}

// Decode returns the artifact's binary payload
func (a *Artifact) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(a.Data)
}

// ActionResponse is returned by every workflow action
type ActionResponse struct {
	Session  Session   `json:"session"`
	Message  string    `json:"message"`
	Artifact *Artifact `json:"artifact,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
}

// ActionError is the error payload of a failed workflow action. Session holds
// the record after the failure, e.g. with the manual fallback activated.
type ActionError struct {
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
	Session *Session       `json:"session,omitempty"`
}

// LanguagesResponse lists the translation target languages
type LanguagesResponse struct {
	Languages []transcript.Language `json:"languages"`
}
