package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"papertrade/internal/repository"
	"papertrade/internal/service"
)

type AdminHandler struct {
	Repo         repository.Repository
	Orchestrator *service.Orchestrator
	Auth         Auth
	Logger       *zap.Logger
}

func (h *AdminHandler) Register(r *gin.Engine) {
	g := r.Group("/admin", h.Auth.RequireL2())
	g.POST("/sync", h.sync)
	g.DELETE("/clear-all", h.clearAll)
}

func (h *AdminHandler) sync(c *gin.Context) {
	result, err := h.Orchestrator.RunSyncAndSettle(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, "market sync failed", nil)
		return
	}
	if result.Skipped {
		Ok(c, gin.H{"skipped": true}, nil)
		return
	}
	Ok(c, gin.H{
		"skipped":     false,
		"report":      result.Report,
		"payout_logs": len(result.PayoutLogs),
	}, nil)
}

// clearAll wipes users, positions, orders and payout history. Market and
// outcome rows survive so the venue mirror does not need a resync.
func (h *AdminHandler) clearAll(c *gin.Context) {
	if err := h.Repo.ClearAll(c.Request.Context()); err != nil {
		h.Logger.Error("clear all failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "an unexpected error occurred", nil)
		return
	}
	Ok(c, gin.H{"cleared": true}, nil)
}
