package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes the payload as-is; the UI expects flat JSON bodies,
// not an envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error writes the shared error shape: a status code plus {"detail": ...}.
func Error(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
