package workflow_module

import (
	"crypto/subtle"
	"net/http"

	"github.com/ethanbaker/learnwithai/pkg/sdk"
	"github.com/ethanbaker/learnwithai/pkg/utils"
	"github.com/gin-gonic/gin"
)

// Register routes for the workflow module
func RegisterRoutes(g *gin.RouterGroup, cfg *utils.Config) {
	// Create base group for workflow routes
	group := g.Group("/workflow")
	if key := cfg.Get("API_KEY"); key != "" {
		group.Use(APIKeyHandler(key))
	}

	// Session management routes
	group.POST("/sessions", CreateSession)            // Create a new empty session
	group.GET("/sessions/:uuid", GetSession)          // Get an existing session by UUID
	group.DELETE("/sessions/:uuid", DeleteSession)    // Delete an existing session
	group.POST("/sessions/:uuid/reset", ResetSession) // Clear every field of a session

	// Transcript routes
	group.POST("/sessions/:uuid/transcript/options", LoadTranscriptOptions) // List caption languages for a URL
	group.POST("/sessions/:uuid/transcript/fetch", FetchTranscript)         // Fetch the transcript in one language
	group.POST("/sessions/:uuid/transcript/manual", SubmitManualTranscript) // Paste a transcript after retrieval failed

	// Task routes
	group.POST("/sessions/:uuid/credential", SetCredential)       // Validate and store the chat API key
	group.POST("/sessions/:uuid/tasks/primary", RunPrimaryTask)   // Run a task on the transcript
	group.POST("/sessions/:uuid/tasks/followup", RunFollowupTask) // Run a task on the summary
	group.GET("/sessions/:uuid/summary.txt", DownloadSummary)     // Download the current summary

	group.GET("/languages", GetLanguages) // Translation target languages
}

// APIKeyHandler rejects requests whose X-API-KEY header does not match key
func APIKeyHandler(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-API-KEY")
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			c.JSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Invalid or missing API key", nil).AsGinResponse())
			c.Abort()
			return
		}
		c.Next()
	}
}
