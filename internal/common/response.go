package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes data as the whole response body.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Fail aborts the request with a {code, detail} body.
func Fail(c *gin.Context, httpStatus int, code int, detail string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{
		"code":   code,
		"detail": detail,
	})
}
