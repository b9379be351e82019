package repository

import (
	"context"

	"papertrade/internal/models"
)

// Repository is the ledger store. Engines only stage mutations through it;
// InTx is the single place a unit of work commits or rolls back, and the
// repository handed to fn is bound to that transaction.
type Repository interface {
	InTx(ctx context.Context, fn func(Repository) error) error

	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	GetUserByNameForUpdate(ctx context.Context, name string) (*models.User, error)
	ListUsersByNames(ctx context.Context, names []string) ([]models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	InsertResetLog(ctx context.Context, item *models.ResetLog) error

	// Stable markets. CreateMarket reports whether a row was actually
	// inserted, so retried syncs stay idempotent.
	GetMarket(ctx context.Context, conditionID string) (*models.Market, error)
	ListMarkets(ctx context.Context) ([]models.Market, error)
	CreateMarket(ctx context.Context, item *models.Market) (bool, error)
	MarkMarketsUntradable(ctx context.Context, conditionIDs []string) ([]string, error)

	// Outcomes.
	GetMarketOutcome(ctx context.Context, market, token string) (*models.MarketOutcome, error)
	CreateMarketOutcome(ctx context.Context, item *models.MarketOutcome) (bool, error)
	MarkOutcomeWinners(ctx context.Context, market string, tokenIDs []string) (int64, error)

	// Hot tracking set and its audit log.
	ListSyncHotMarkets(ctx context.Context) ([]models.SyncHotMarket, error)
	CreateSyncHotMarket(ctx context.Context, item *models.SyncHotMarket) (bool, error)
	DeleteSyncHotMarket(ctx context.Context, conditionID string) error
	InsertMarketChangeLog(ctx context.Context, item *models.MarketChangeLog) error

	// Positions.
	GetPosition(ctx context.Context, userName, market, token string) (*models.UserPosition, error)
	GetPositionForUpdate(ctx context.Context, userName, market, token string) (*models.UserPosition, error)
	SavePosition(ctx context.Context, item *models.UserPosition) error
	DeletePosition(ctx context.Context, item *models.UserPosition) error
	ListPositions(ctx context.Context) ([]models.UserPosition, error)
	ListPositionsByUser(ctx context.Context, userName string) ([]models.UserPosition, error)
	ListPositionsByMarket(ctx context.Context, market string) ([]models.UserPosition, error)

	// Orders.
	CreateOrder(ctx context.Context, item *models.Order) error
	CreateOrderFills(ctx context.Context, items []models.OrderFill) error
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByUser(ctx context.Context, userName string) ([]models.Order, error)

	// Settlement audit.
	InsertPayoutLog(ctx context.Context, item *models.PayoutLog) error

	// Admin.
	ClearAll(ctx context.Context) error
}
