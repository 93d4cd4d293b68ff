package workflow_module

import (
	"bytes"
	"encoding/base64"
	"log"
	"net/http"

	apperrors "github.com/ethanbaker/learnwithai/internal/errors"
	"github.com/ethanbaker/learnwithai/pkg/sdk"
	"github.com/ethanbaker/learnwithai/pkg/workflow"
	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
)

var markdown = goldmark.New()

// CreateSession handles POST requests to create a new empty session
func CreateSession(c *gin.Context) {
	session, err := GetService().Create(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to create session", err, nil)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Session created successfully", sdk.NewSession(session)).AsGinResponse())
}

// GetSession handles GET requests to retrieve an existing session by UUID
func GetSession(c *gin.Context) {
	session, err := GetService().Get(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		respondError(c, "Session not found", err, nil)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Session retrieved successfully", sdk.NewSession(session)).AsGinResponse())
}

// DeleteSession handles DELETE requests to remove a session by UUID
func DeleteSession(c *gin.Context) {
	if err := GetService().Delete(c.Request.Context(), c.Param("uuid")); err != nil {
		respondError(c, "Failed to delete session", err, nil)
		return
	}

	c.JSON(sdk.NewSuccess("Session deleted successfully").AsGinResponse())
}

// ResetSession handles POST requests to clear every field of a session
func ResetSession(c *gin.Context) {
	session, result, err := GetService().Reset(c.Request.Context(), c.Param("uuid"))
	respondAction(c, session, result, err)
}

// LoadTranscriptOptions handles POST requests listing the caption languages of a video
func LoadTranscriptOptions(c *gin.Context) {
	var req sdk.LoadTranscriptOptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	session, result, err := GetService().LoadTranscriptOptions(c.Request.Context(), c.Param("uuid"), req.URL)
	respondAction(c, session, result, err)
}

// FetchTranscript handles POST requests retrieving the transcript in a language
func FetchTranscript(c *gin.Context) {
	var req sdk.FetchTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	session, result, err := GetService().FetchTranscript(c.Request.Context(), c.Param("uuid"), req.Language)
	respondAction(c, session, result, err)
}

// SubmitManualTranscript handles POST requests with pasted transcript text
func SubmitManualTranscript(c *gin.Context) {
	var req sdk.ManualTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	session, result, err := GetService().SubmitManualTranscript(c.Request.Context(), c.Param("uuid"), req.Text)
	respondAction(c, session, result, err)
}

// SetCredential handles POST requests supplying the chat provider API key
func SetCredential(c *gin.Context) {
	var req sdk.CredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	session, result, err := GetService().SetCredential(c.Request.Context(), c.Param("uuid"), req.ApiKey)
	respondAction(c, session, result, err)
}

// RunPrimaryTask handles POST requests applying a task to the transcript
func RunPrimaryTask(c *gin.Context) {
	var req sdk.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	session, result, err := GetService().RunPrimary(c.Request.Context(), c.Param("uuid"), req.Task, req.TargetLanguage)
	respondAction(c, session, result, err)
}

// RunFollowupTask handles POST requests applying a task to the summary
func RunFollowupTask(c *gin.Context) {
	var req sdk.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	session, result, err := GetService().RunFollowup(c.Request.Context(), c.Param("uuid"), req.Task, req.TargetLanguage)
	respondAction(c, session, result, err)
}

// DownloadSummary handles GET requests for the summary as a text file
func DownloadSummary(c *gin.Context) {
	session, result, err := GetService().RunFollowup(c.Request.Context(), c.Param("uuid"), string(workflow.TaskDownloadSummary), "")
	if err != nil {
		respondError(c, "Summary not available", err, session)
		return
	}

	artifact := result.Artifact
	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// GetLanguages handles GET requests for the translation target languages
func GetLanguages(c *gin.Context) {
	resp := sdk.LanguagesResponse{Languages: GetService().Languages()}
	c.JSON(sdk.NewSuccessResponse("Languages retrieved successfully", resp).AsGinResponse())
}

/** Helpers */

// respondAction writes the envelope for a workflow action
func respondAction(c *gin.Context, session *workflow.Session, result *workflow.Result, err error) {
	if err != nil {
		respondError(c, "", err, session)
		return
	}

	resp := sdk.ActionResponse{
		Session:  sdk.NewSession(session),
		Message:  result.Message,
		Artifact: toSDKArtifact(result.Artifact),
		Warnings: result.Warnings,
	}
	c.JSON(sdk.NewSuccessResponse(result.Message, resp).AsGinResponse())
}

// respondError maps an error onto the envelope. Unknown errors are reported
// as internal without leaking their text.
func respondError(c *gin.Context, fallback string, err error, session *workflow.Session) {
	appErr, ok := apperrors.As(err)
	if !ok {
		log.Printf("[WORKFLOW-API]: %s %s: %v", c.Request.Method, c.FullPath(), err)
		appErr = apperrors.NewInternal(err)
		appErr.Message = "Internal server error"
	}

	detail := sdk.ActionError{Code: string(appErr.Code), Details: appErr.Details}
	if session != nil {
		view := sdk.NewSession(session)
		detail.Session = &view
	}

	message := appErr.Message
	if message == "" {
		message = fallback
	}
	c.JSON(sdk.NewErrorResponse(appErr.Status, message, detail).AsGinResponse())
}

// toSDKArtifact renders text artifacts to HTML and encodes binary data
func toSDKArtifact(a *workflow.Artifact) *sdk.Artifact {
	if a == nil {
		return nil
	}

	out := &sdk.Artifact{
		Kind:        a.Kind,
		Text:        a.Text,
		Lang:        a.Lang,
		Filename:    a.Filename,
		ContentType: a.ContentType,
	}

	if a.Kind == workflow.ArtifactAudio {
		out.Data = base64.StdEncoding.EncodeToString(a.Data)
		return out
	}

	if a.Text != "" {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(a.Text), &buf); err != nil {
			log.Printf("[WORKFLOW-API]: failed to render %s artifact: %v", a.Kind, err)
		} else {
			out.HTML = buf.String()
		}
	}
	return out
}
