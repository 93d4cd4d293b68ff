package health

import (
	"github.com/ethanbaker/learnwithai/pkg/sdk"
	"github.com/gin-gonic/gin"
)

// Return status of the API
func getStatus(c *gin.Context) {
	c.JSON(sdk.NewSuccess("OK").AsGinResponse())
}
