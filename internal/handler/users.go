package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"papertrade/internal/models"
	"papertrade/internal/repository"
)

type UserHandler struct {
	Repo   repository.Repository
	Auth   Auth
	Logger *zap.Logger
}

func (h *UserHandler) Register(r *gin.Engine) {
	g := r.Group("/users")
	g.POST("", h.create)
	g.PATCH("/reset", h.Auth.RequireL1(), h.reset)
}

type createUserRequest struct {
	Name    string           `json:"name" binding:"required"`
	Balance *decimal.Decimal `json:"balance"`
}

func (h *UserHandler) create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	balance := models.DefaultBalance
	if req.Balance != nil {
		if req.Balance.IsNegative() {
			Error(c, http.StatusBadRequest, "balance must be non-negative", nil)
			return
		}
		balance = req.Balance.Truncate(2)
	}
	user := &models.User{Name: req.Name, Balance: balance}
	if err := h.Repo.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Error(c, http.StatusConflict, "user already exists", nil)
			return
		}
		h.Logger.Error("create user failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "an unexpected error occurred", nil)
		return
	}
	Created(c, user, nil)
}

type resetUserRequest struct {
	Name    string           `json:"name" binding:"required"`
	Balance *decimal.Decimal `json:"balance"`
}

// reset puts a user's balance back to the default (or a caller-supplied
// amount) and records the reset in the audit log.
func (h *UserHandler) reset(c *gin.Context) {
	var req resetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	balance := models.DefaultBalance
	if req.Balance != nil {
		if req.Balance.IsNegative() {
			Error(c, http.StatusBadRequest, "balance must be non-negative", nil)
			return
		}
		balance = req.Balance.Truncate(2)
	}

	var updated *models.User
	err := h.Repo.InTx(c.Request.Context(), func(tx repository.Repository) error {
		user, err := tx.GetUserByNameForUpdate(c.Request.Context(), req.Name)
		if err != nil {
			return err
		}
		if user == nil {
			return gorm.ErrRecordNotFound
		}
		user.Balance = balance
		if err := tx.SaveUser(c.Request.Context(), user); err != nil {
			return err
		}
		if err := tx.InsertResetLog(c.Request.Context(), &models.ResetLog{
			UserName:     user.Name,
			BalanceReset: balance,
		}); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		Error(c, http.StatusNotFound, "user not found", nil)
		return
	}
	if err != nil {
		h.Logger.Error("reset user failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "an unexpected error occurred", nil)
		return
	}
	Ok(c, updated, nil)
}
