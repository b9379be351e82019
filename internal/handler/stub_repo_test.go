package handler

import (
	"context"
	"fmt"

	"papertrade/internal/client/clob"
	"papertrade/internal/models"
	"papertrade/internal/repository"
	"papertrade/internal/service"
)

// stubRepo is a test-only in-memory repository.Repository. Mutating and
// locking calls are appended to calls so tests can assert acquisition order.
type stubRepo struct {
	users     map[string]*models.User
	markets   map[string]*models.Market
	outcomes  map[string]*models.MarketOutcome
	positions map[string]*models.UserPosition
	resetLogs []models.ResetLog
	orders    []models.Order
	fills     []models.OrderFill

	calls   []string
	cleared bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:     map[string]*models.User{},
		markets:   map[string]*models.Market{},
		outcomes:  map[string]*models.MarketOutcome{},
		positions: map[string]*models.UserPosition{},
	}
}

func posKey(user, market, token string) string {
	return user + "|" + market + "|" + token
}

func (s *stubRepo) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *stubRepo) InTx(ctx context.Context, fn func(repository.Repository) error) error {
	s.record("InTx")
	return fn(s)
}

func (s *stubRepo) CreateUser(ctx context.Context, user *models.User) error {
	if _, ok := s.users[user.Name]; ok {
		return fmt.Errorf("duplicate user %s", user.Name)
	}
	u := *user
	s.users[user.Name] = &u
	return nil
}

func (s *stubRepo) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	u, ok := s.users[name]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (s *stubRepo) GetUserByNameForUpdate(ctx context.Context, name string) (*models.User, error) {
	s.record("GetUserByNameForUpdate")
	return s.GetUserByName(ctx, name)
}

func (s *stubRepo) ListUsersByNames(ctx context.Context, names []string) ([]models.User, error) {
	var out []models.User
	for _, name := range names {
		if u, ok := s.users[name]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *stubRepo) SaveUser(ctx context.Context, user *models.User) error {
	s.record("SaveUser")
	u := *user
	s.users[user.Name] = &u
	return nil
}

func (s *stubRepo) InsertResetLog(ctx context.Context, item *models.ResetLog) error {
	s.resetLogs = append(s.resetLogs, *item)
	return nil
}

func (s *stubRepo) GetMarket(ctx context.Context, conditionID string) (*models.Market, error) {
	m, ok := s.markets[conditionID]
	if !ok {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (s *stubRepo) ListMarkets(ctx context.Context) ([]models.Market, error) {
	return nil, nil
}

func (s *stubRepo) CreateMarket(ctx context.Context, item *models.Market) (bool, error) {
	if _, ok := s.markets[item.ConditionID]; ok {
		return false, nil
	}
	m := *item
	s.markets[item.ConditionID] = &m
	return true, nil
}

func (s *stubRepo) MarkMarketsUntradable(ctx context.Context, conditionIDs []string) ([]string, error) {
	return nil, nil
}

func (s *stubRepo) GetMarketOutcome(ctx context.Context, market, token string) (*models.MarketOutcome, error) {
	o, ok := s.outcomes[market+"|"+token]
	if !ok {
		return nil, nil
	}
	c := *o
	return &c, nil
}

func (s *stubRepo) CreateMarketOutcome(ctx context.Context, item *models.MarketOutcome) (bool, error) {
	key := item.Market + "|" + item.Token
	if _, ok := s.outcomes[key]; ok {
		return false, nil
	}
	o := *item
	s.outcomes[key] = &o
	return true, nil
}

func (s *stubRepo) MarkOutcomeWinners(ctx context.Context, market string, tokenIDs []string) (int64, error) {
	return 0, nil
}

func (s *stubRepo) ListSyncHotMarkets(ctx context.Context) ([]models.SyncHotMarket, error) {
	return nil, nil
}

func (s *stubRepo) CreateSyncHotMarket(ctx context.Context, item *models.SyncHotMarket) (bool, error) {
	return false, nil
}

func (s *stubRepo) DeleteSyncHotMarket(ctx context.Context, conditionID string) error {
	return nil
}

func (s *stubRepo) InsertMarketChangeLog(ctx context.Context, item *models.MarketChangeLog) error {
	return nil
}

func (s *stubRepo) GetPosition(ctx context.Context, userName, market, token string) (*models.UserPosition, error) {
	p, ok := s.positions[posKey(userName, market, token)]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (s *stubRepo) GetPositionForUpdate(ctx context.Context, userName, market, token string) (*models.UserPosition, error) {
	s.record("GetPositionForUpdate")
	return s.GetPosition(ctx, userName, market, token)
}

func (s *stubRepo) SavePosition(ctx context.Context, item *models.UserPosition) error {
	s.record("SavePosition")
	p := *item
	s.positions[posKey(item.UserName, item.Market, item.Token)] = &p
	return nil
}

func (s *stubRepo) DeletePosition(ctx context.Context, item *models.UserPosition) error {
	s.record("DeletePosition")
	delete(s.positions, posKey(item.UserName, item.Market, item.Token))
	return nil
}

func (s *stubRepo) ListPositions(ctx context.Context) ([]models.UserPosition, error) {
	var out []models.UserPosition
	for _, p := range s.positions {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubRepo) ListPositionsByUser(ctx context.Context, userName string) ([]models.UserPosition, error) {
	var out []models.UserPosition
	for _, p := range s.positions {
		if p.UserName == userName {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubRepo) ListPositionsByMarket(ctx context.Context, market string) ([]models.UserPosition, error) {
	var out []models.UserPosition
	for _, p := range s.positions {
		if p.Market == market {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubRepo) CreateOrder(ctx context.Context, item *models.Order) error {
	s.record("CreateOrder")
	item.ID = uint64(len(s.orders) + 1)
	s.orders = append(s.orders, *item)
	return nil
}

func (s *stubRepo) CreateOrderFills(ctx context.Context, items []models.OrderFill) error {
	s.record("CreateOrderFills")
	s.fills = append(s.fills, items...)
	return nil
}

func (s *stubRepo) ListOrders(ctx context.Context) ([]models.Order, error) {
	return append([]models.Order(nil), s.orders...), nil
}

func (s *stubRepo) ListOrdersByUser(ctx context.Context, userName string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.UserName == userName {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubRepo) InsertPayoutLog(ctx context.Context, item *models.PayoutLog) error {
	return nil
}

func (s *stubRepo) ClearAll(ctx context.Context) error {
	s.cleared = true
	s.users = map[string]*models.User{}
	s.positions = map[string]*models.UserPosition{}
	s.orders = nil
	s.fills = nil
	return nil
}

var _ repository.Repository = (*stubRepo)(nil)

// stubFeed serves scripted order books.
type stubFeed struct {
	books map[string]*clob.OrderBook
}

func (f *stubFeed) ListTradableMarkets(ctx context.Context) ([]clob.Market, error) {
	return nil, nil
}

func (f *stubFeed) GetMarket(ctx context.Context, conditionID string) (*clob.Market, error) {
	return nil, fmt.Errorf("market %s not found", conditionID)
}

func (f *stubFeed) GetBook(ctx context.Context, tokenID string) (*clob.OrderBook, error) {
	if b, ok := f.books[tokenID]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("book %s not found", tokenID)
}

var _ service.MarketFeed = (*stubFeed)(nil)
