package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"papertrade/internal/client/clob"
	"papertrade/internal/models"
	"papertrade/internal/repository"
	"papertrade/internal/service"
)

type OrderHandler struct {
	Repo         repository.Repository
	Feed         service.MarketFeed
	Logger       *zap.Logger
	MaxOrderUSDC decimal.Decimal
}

func (h *OrderHandler) Register(r *gin.Engine) {
	g := r.Group("/orders")
	g.POST("/buy", h.buy)
	g.POST("/sell", h.sell)
	g.GET("", h.list)
	g.GET("/:user", h.listByUser)
}

type buyOrderRequest struct {
	UserName   string          `json:"user_name" binding:"required"`
	Market     string          `json:"market" binding:"required"`
	Token      string          `json:"token" binding:"required"`
	AmountUSDC decimal.Decimal `json:"amount_usdc" binding:"required"`
}

type sellOrderRequest struct {
	UserName string          `json:"user_name" binding:"required"`
	Market   string          `json:"market" binding:"required"`
	Token    string          `json:"token" binding:"required"`
	Shares   decimal.Decimal `json:"shares" binding:"required"`
}

type orderDetails struct {
	AmountUSDC   decimal.Decimal `json:"amount_usdc"`
	Shares       decimal.Decimal `json:"shares"`
	AveragePrice decimal.Decimal `json:"average_price"`
	FillCount    int             `json:"fill_count"`
}

func (h *OrderHandler) buy(c *gin.Context) {
	var req buyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !req.AmountUSDC.IsPositive() {
		Error(c, http.StatusBadRequest, "amount_usdc must be positive", nil)
		return
	}
	if h.MaxOrderUSDC.IsPositive() && req.AmountUSDC.GreaterThan(h.MaxOrderUSDC) {
		Error(c, http.StatusBadRequest, "amount_usdc exceeds the per-order limit", map[string]any{
			"max_order_usdc": h.MaxOrderUSDC,
		})
		return
	}
	amount := req.AmountUSDC.Truncate(2)

	ctx := c.Request.Context()
	if !h.checkTradable(ctx, c, req.Market, req.Token) {
		return
	}
	user, err := h.Repo.GetUserByName(ctx, req.UserName)
	if err != nil {
		h.Logger.Error("fetch user failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "an unexpected error occurred", nil)
		return
	}
	if user == nil {
		Error(c, http.StatusNotFound, "user not found", nil)
		return
	}
	if user.Balance.LessThan(amount) {
		Error(c, http.StatusBadRequest, "insufficient balance", map[string]any{
			"balance": user.Balance,
		})
		return
	}

	levels, ok := h.fetchLevels(ctx, c, req.Token, clob.SideBuy)
	if !ok {
		return
	}
	result := service.SimulateBuy(amount, levels)
	if result.Status == service.FillStatusExceedsLiquidity {
		Error(c, http.StatusBadRequest, "order exceeds available liquidity", map[string]any{
			"max_amount": result.MaxAmount,
			"max_shares": result.MaxShares,
		})
		return
	}

	var order *models.Order
	err = h.Repo.InTx(ctx, func(tx repository.Repository) error {
		locked, err := tx.GetUserByNameForUpdate(ctx, req.UserName)
		if err != nil {
			return err
		}
		if locked == nil {
			return errUserGone
		}
		if locked.Balance.LessThan(result.Total) {
			return errInsufficientBalance
		}
		locked.Balance = locked.Balance.Sub(result.Total)
		if err := tx.SaveUser(ctx, locked); err != nil {
			return err
		}

		pos, err := tx.GetPositionForUpdate(ctx, req.UserName, req.Market, req.Token)
		if err != nil {
			return err
		}
		if pos == nil {
			pos = &models.UserPosition{
				UserName: req.UserName,
				Market:   req.Market,
				Token:    req.Token,
				Shares:   decimal.Zero,
			}
		}
		pos.Shares = pos.Shares.Add(result.Shares)
		if err := tx.SavePosition(ctx, pos); err != nil {
			return err
		}

		order = &models.Order{
			UserName:   req.UserName,
			Market:     req.Market,
			Token:      req.Token,
			Side:       models.OrderSideBuy,
			OrderType:  models.OrderTypeMarket,
			Status:     models.OrderStatusFilled,
			AmountUSDC: result.Total,
			Shares:     result.Shares,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return tx.CreateOrderFills(ctx, fillRows(order.ID, result.Fills))
	})
	if !h.handleTxError(c, err, "buy order failed") {
		return
	}

	Created(c, order, map[string]any{"details": details(result)})
}

func (h *OrderHandler) sell(c *gin.Context) {
	var req sellOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if !req.Shares.IsPositive() {
		Error(c, http.StatusBadRequest, "shares must be positive", nil)
		return
	}
	shares := req.Shares.Truncate(2)

	ctx := c.Request.Context()
	if !h.checkTradable(ctx, c, req.Market, req.Token) {
		return
	}
	user, err := h.Repo.GetUserByName(ctx, req.UserName)
	if err != nil {
		h.Logger.Error("fetch user failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "an unexpected error occurred", nil)
		return
	}
	if user == nil {
		Error(c, http.StatusNotFound, "user not found", nil)
		return
	}
	pos, err := h.Repo.GetPosition(ctx, req.UserName, req.Market, req.Token)
	if err != nil {
		h.Logger.Error("fetch position failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "an unexpected error occurred", nil)
		return
	}
	if pos == nil || pos.Shares.LessThan(shares) {
		held := decimal.Zero
		if pos != nil {
			held = pos.Shares
		}
		Error(c, http.StatusBadRequest, "insufficient shares", map[string]any{
			"shares_held": held,
		})
		return
	}

	levels, ok := h.fetchLevels(ctx, c, req.Token, clob.SideSell)
	if !ok {
		return
	}
	result := service.SimulateSell(shares, levels)
	if result.Status == service.FillStatusExceedsLiquidity {
		Error(c, http.StatusBadRequest, "order exceeds available liquidity", map[string]any{
			"max_amount": result.MaxAmount,
			"max_shares": result.MaxShares,
		})
		return
	}

	var order *models.Order
	err = h.Repo.InTx(ctx, func(tx repository.Repository) error {
		// Lock order is user row first, position row second, same as buy.
		locked, err := tx.GetUserByNameForUpdate(ctx, req.UserName)
		if err != nil {
			return err
		}
		if locked == nil {
			return errUserGone
		}

		lockedPos, err := tx.GetPositionForUpdate(ctx, req.UserName, req.Market, req.Token)
		if err != nil {
			return err
		}
		if lockedPos == nil || lockedPos.Shares.LessThan(result.Shares) {
			return errInsufficientShares
		}
		lockedPos.Shares = lockedPos.Shares.Sub(result.Shares)
		if lockedPos.Shares.IsZero() {
			if err := tx.DeletePosition(ctx, lockedPos); err != nil {
				return err
			}
		} else {
			if err := tx.SavePosition(ctx, lockedPos); err != nil {
				return err
			}
		}

		locked.Balance = locked.Balance.Add(result.Total)
		if err := tx.SaveUser(ctx, locked); err != nil {
			return err
		}

		order = &models.Order{
			UserName:   req.UserName,
			Market:     req.Market,
			Token:      req.Token,
			Side:       models.OrderSideSell,
			OrderType:  models.OrderTypeMarket,
			Status:     models.OrderStatusFilled,
			AmountUSDC: result.Total,
			Shares:     result.Shares,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return tx.CreateOrderFills(ctx, fillRows(order.ID, result.Fills))
	})
	if !h.handleTxError(c, err, "sell order failed") {
		return
	}

	Created(c, order, map[string]any{"details": details(result)})
}

func (h *OrderHandler) list(c *gin.Context) {
	items, err := h.Repo.ListOrders(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to fetch orders", nil)
		return
	}
	Ok(c, items, nil)
}

func (h *OrderHandler) listByUser(c *gin.Context) {
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
	items, err := h.Repo.ListOrdersByUser(c.Request.Context(), name)
	if err != nil {
		Error(c, http.StatusInternalServerError, "failed to fetch orders", nil)
		return
	}
	Ok(c, items, nil)
}

// checkTradable verifies the outcome exists and its market is still tradable.
// Writes the error response itself and reports whether the caller may proceed.
func (h *OrderHandler) checkTradable(ctx context.Context, c *gin.Context, market, token string) bool {
	outcome, err := h.Repo.GetMarketOutcome(ctx, market, token)
	if err != nil {
		h.Logger.Error("fetch outcome failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "an unexpected error occurred", nil)
		return false
	}
	if outcome == nil {
		Error(c, http.StatusNotFound, "market outcome not found", nil)
		return false
	}
	mkt, err := h.Repo.GetMarket(ctx, market)
	if err != nil {
		h.Logger.Error("fetch market failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "an unexpected error occurred", nil)
		return false
	}
	if mkt == nil || !mkt.IsTradable {
		Error(c, http.StatusBadRequest, "market is not tradable", nil)
		return false
	}
	return true
}

func (h *OrderHandler) fetchLevels(ctx context.Context, c *gin.Context, token string, side clob.Side) ([]clob.Level, bool) {
	book, err := h.Feed.GetBook(ctx, token)
	if err != nil {
		h.Logger.Error("fetch order book failed", zap.String("token", token), zap.Error(err))
		Error(c, http.StatusBadGateway, "failed to fetch order book", nil)
		return nil, false
	}
	levels, err := book.SideLevels(side)
	if err != nil {
		Error(c, http.StatusInternalServerError, "an unexpected error occurred", nil)
		return nil, false
	}
	return levels, true
}

// handleTxError maps the sentinel races to 409 so the client can retry with
// fresh state. Reports whether the caller may continue to the success path.
func (h *OrderHandler) handleTxError(c *gin.Context, err error, logMsg string) bool {
	switch err {
	case nil:
		return true
	case errInsufficientBalance:
		Error(c, http.StatusConflict, "balance changed, insufficient for this order", nil)
	case errInsufficientShares:
		Error(c, http.StatusConflict, "position changed, insufficient shares for this order", nil)
	case errUserGone:
		Error(c, http.StatusConflict, "user no longer exists", nil)
	default:
		h.Logger.Error(logMsg, zap.Error(err))
		Error(c, http.StatusInternalServerError, "an unexpected error occurred", nil)
	}
	return false
}

func fillRows(orderID uint64, fills []service.Fill) []models.OrderFill {
	rows := make([]models.OrderFill, 0, len(fills))
	for _, f := range fills {
		rows = append(rows, models.OrderFill{
			OrderID:    orderID,
			FillPrice:  f.Price,
			FillShares: f.Shares,
		})
	}
	return rows
}

func details(result service.FillResult) orderDetails {
	avg := decimal.Zero
	if result.Shares.IsPositive() {
		avg = result.Total.DivRound(result.Shares, 4)
	}
	return orderDetails{
		AmountUSDC:   result.Total,
		Shares:       result.Shares,
		AveragePrice: avg,
		FillCount:    len(result.Fills),
	}
}
