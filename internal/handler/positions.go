package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"papertrade/internal/repository"
)

type PositionHandler struct {
	Repo repository.Repository
}

func (h *PositionHandler) Register(r *gin.Engine) {
	g := r.Group("/positions")
	g.GET("", h.list)
	g.GET("/:user", h.listByUser)
}

func (h *PositionHandler) list(c *gin.Context) {
	items, err := h.Repo.ListPositions(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to fetch positions", nil)
		return
	}
	Ok(c, items, nil)
}

func (h *PositionHandler) listByUser(c *gin.Context) {
	name := c.Param("user")
	user, err := h.Repo.GetUserByName(c.Request.Context(), name)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to fetch user", nil)
		return
	}
	if user == nil {
		Error(c, http.StatusNotFound, "user not found", nil)
		return
	}
	items, err := h.Repo.ListPositionsByUser(c.Request.Context(), name)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to fetch positions", nil)
		return
	}
	Ok(c, items, nil)
}
