package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func JSONSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": message})
}

func JSONWarning(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"warning": message})
}

func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}
