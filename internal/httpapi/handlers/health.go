package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/attackforge/internal/common"
)

func (h *Handler) Root(c *gin.Context) {
	common.OK(c, gin.H{"message": "AttackForge API is running"})
}

func (h *Handler) Healthz(c *gin.Context) {
	common.OK(c, gin.H{"status": "ok"})
}
