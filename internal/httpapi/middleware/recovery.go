package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/attackforge/internal/common"
)

// Recovery turns panics into a JSON 500 instead of gin's empty body.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			"path", c.Request.URL.Path,
			"request_id", RequestIDFrom(c),
			"panic", recovered,
		)
		common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
	})
}
