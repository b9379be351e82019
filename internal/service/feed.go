package service

import (
	"context"

	"papertrade/internal/client/clob"
)

// MarketFeed is the external venue as the engines see it: a read-only source
// of the tradable market set, per-market resolution data, and liquidity books.
type MarketFeed interface {
	ListTradableMarkets(ctx context.Context) ([]clob.Market, error)
	GetMarket(ctx context.Context, conditionID string) (*clob.Market, error)
	GetBook(ctx context.Context, tokenID string) (*clob.OrderBook, error)
}
