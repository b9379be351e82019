package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"papertrade/internal/client/clob"
	"papertrade/internal/models"
	"papertrade/internal/repository"
)

// stubStore is a test-only in-memory implementation of repository.Repository.
// failOn injects an error for a named operation so stage tagging can be
// asserted without a database.
type stubStore struct {
	users      map[string]*models.User
	markets    map[string]*models.Market
	outcomes   map[string]*models.MarketOutcome
	hot        map[string]*models.SyncHotMarket
	positions  map[string]*models.UserPosition
	changeLogs []models.MarketChangeLog
	resetLogs  []models.ResetLog
	payoutLogs []models.PayoutLog
	orders     []models.Order
	fills      []models.OrderFill

	failOn  map[string]error
	txCount int
}

func newStubStore() *stubStore {
	return &stubStore{
		users:     map[string]*models.User{},
		markets:   map[string]*models.Market{},
		outcomes:  map[string]*models.MarketOutcome{},
		hot:       map[string]*models.SyncHotMarket{},
		positions: map[string]*models.UserPosition{},
		failOn:    map[string]error{},
	}
}

func outcomeKey(market, token string) string {
	return market + "|" + token
}

func positionKey(user, market, token string) string {
	return user + "|" + market + "|" + token
}

func (s *stubStore) fail(op string) error {
	return s.failOn[op]
}

func (s *stubStore) InTx(ctx context.Context, fn func(repository.Repository) error) error {
	if err := s.fail("InTx"); err != nil {
		return err
	}
	s.txCount++
	return fn(s)
}

func (s *stubStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.fail("CreateUser"); err != nil {
		return err
	}
	if _, ok := s.users[user.Name]; ok {
		return fmt.Errorf("duplicate user %s", user.Name)
	}
	u := *user
	s.users[user.Name] = &u
	return nil
}

func (s *stubStore) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	if err := s.fail("GetUserByName"); err != nil {
		return nil, err
	}
	u, ok := s.users[name]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (s *stubStore) GetUserByNameForUpdate(ctx context.Context, name string) (*models.User, error) {
	return s.GetUserByName(ctx, name)
}

func (s *stubStore) ListUsersByNames(ctx context.Context, names []string) ([]models.User, error) {
	if err := s.fail("ListUsersByNames"); err != nil {
		return nil, err
	}
	var out []models.User
	for _, name := range names {
		if u, ok := s.users[name]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *stubStore) SaveUser(ctx context.Context, user *models.User) error {
	if err := s.fail("SaveUser"); err != nil {
		return err
	}
	u := *user
	s.users[user.Name] = &u
	return nil
}

func (s *stubStore) InsertResetLog(ctx context.Context, item *models.ResetLog) error {
	if err := s.fail("InsertResetLog"); err != nil {
		return err
	}
	s.resetLogs = append(s.resetLogs, *item)
	return nil
}

func (s *stubStore) GetMarket(ctx context.Context, conditionID string) (*models.Market, error) {
	if err := s.fail("GetMarket"); err != nil {
		return nil, err
	}
	m, ok := s.markets[conditionID]
	if !ok {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (s *stubStore) ListMarkets(ctx context.Context) ([]models.Market, error) {
	if err := s.fail("ListMarkets"); err != nil {
		return nil, err
	}
	out := make([]models.Market, 0, len(s.markets))
	for _, id := range sortedKeys(s.markets) {
		out = append(out, *s.markets[id])
	}
	return out, nil
}

func (s *stubStore) CreateMarket(ctx context.Context, item *models.Market) (bool, error) {
	if err := s.fail("CreateMarket"); err != nil {
		return false, err
	}
	if _, ok := s.markets[item.ConditionID]; ok {
		return false, nil
	}
	m := *item
	s.markets[item.ConditionID] = &m
	return true, nil
}

func (s *stubStore) MarkMarketsUntradable(ctx context.Context, conditionIDs []string) ([]string, error) {
	if err := s.fail("MarkMarketsUntradable"); err != nil {
		return nil, err
	}
	var marked []string
	for _, id := range conditionIDs {
		m, ok := s.markets[id]
		if !ok || !m.IsTradable {
			continue
		}
		m.IsTradable = false
		marked = append(marked, id)
	}
	return marked, nil
}

func (s *stubStore) GetMarketOutcome(ctx context.Context, market, token string) (*models.MarketOutcome, error) {
	if err := s.fail("GetMarketOutcome"); err != nil {
		return nil, err
	}
	o, ok := s.outcomes[outcomeKey(market, token)]
	if !ok {
		return nil, nil
	}
	c := *o
	return &c, nil
}

func (s *stubStore) CreateMarketOutcome(ctx context.Context, item *models.MarketOutcome) (bool, error) {
	if err := s.fail("CreateMarketOutcome"); err != nil {
		return false, err
	}
	key := outcomeKey(item.Market, item.Token)
	if _, ok := s.outcomes[key]; ok {
		return false, nil
	}
	o := *item
	s.outcomes[key] = &o
	return true, nil
}

func (s *stubStore) MarkOutcomeWinners(ctx context.Context, market string, tokenIDs []string) (int64, error) {
	if err := s.fail("MarkOutcomeWinners"); err != nil {
		return 0, err
	}
	var n int64
	for _, token := range tokenIDs {
		if o, ok := s.outcomes[outcomeKey(market, token)]; ok && !o.IsWinner {
			o.IsWinner = true
			n++
		}
	}
	return n, nil
}

func (s *stubStore) ListSyncHotMarkets(ctx context.Context) ([]models.SyncHotMarket, error) {
	if err := s.fail("ListSyncHotMarkets"); err != nil {
		return nil, err
	}
	out := make([]models.SyncHotMarket, 0, len(s.hot))
	for _, id := range sortedKeys(s.hot) {
		out = append(out, *s.hot[id])
	}
	return out, nil
}

func (s *stubStore) CreateSyncHotMarket(ctx context.Context, item *models.SyncHotMarket) (bool, error) {
	if err := s.fail("CreateSyncHotMarket"); err != nil {
		return false, err
	}
	if _, ok := s.hot[item.ConditionID]; ok {
		return false, nil
	}
	m := *item
	s.hot[item.ConditionID] = &m
	return true, nil
}

func (s *stubStore) DeleteSyncHotMarket(ctx context.Context, conditionID string) error {
	if err := s.fail("DeleteSyncHotMarket"); err != nil {
		return err
	}
	delete(s.hot, conditionID)
	return nil
}

func (s *stubStore) InsertMarketChangeLog(ctx context.Context, item *models.MarketChangeLog) error {
	if err := s.fail("InsertMarketChangeLog"); err != nil {
		return err
	}
	s.changeLogs = append(s.changeLogs, *item)
	return nil
}

func (s *stubStore) GetPosition(ctx context.Context, userName, market, token string) (*models.UserPosition, error) {
	if err := s.fail("GetPosition"); err != nil {
		return nil, err
	}
	p, ok := s.positions[positionKey(userName, market, token)]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (s *stubStore) GetPositionForUpdate(ctx context.Context, userName, market, token string) (*models.UserPosition, error) {
	return s.GetPosition(ctx, userName, market, token)
}

func (s *stubStore) SavePosition(ctx context.Context, item *models.UserPosition) error {
	if err := s.fail("SavePosition"); err != nil {
		return err
	}
	p := *item
	s.positions[positionKey(item.UserName, item.Market, item.Token)] = &p
	return nil
}

func (s *stubStore) DeletePosition(ctx context.Context, item *models.UserPosition) error {
	if err := s.fail("DeletePosition"); err != nil {
		return err
	}
	delete(s.positions, positionKey(item.UserName, item.Market, item.Token))
	return nil
}

func (s *stubStore) ListPositions(ctx context.Context) ([]models.UserPosition, error) {
	if err := s.fail("ListPositions"); err != nil {
		return nil, err
	}
	out := make([]models.UserPosition, 0, len(s.positions))
	for _, key := range sortedKeys(s.positions) {
		out = append(out, *s.positions[key])
	}
	return out, nil
}

func (s *stubStore) ListPositionsByUser(ctx context.Context, userName string) ([]models.UserPosition, error) {
	all, err := s.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.UserPosition
	for _, p := range all {
		if p.UserName == userName {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) ListPositionsByMarket(ctx context.Context, market string) ([]models.UserPosition, error) {
	if err := s.fail("ListPositionsByMarket"); err != nil {
		return nil, err
	}
	var out []models.UserPosition
	for _, key := range sortedKeys(s.positions) {
		if s.positions[key].Market == market {
			out = append(out, *s.positions[key])
		}
	}
	return out, nil
}

func (s *stubStore) CreateOrder(ctx context.Context, item *models.Order) error {
	if err := s.fail("CreateOrder"); err != nil {
		return err
	}
	item.ID = uint64(len(s.orders) + 1)
	s.orders = append(s.orders, *item)
	return nil
}

func (s *stubStore) CreateOrderFills(ctx context.Context, items []models.OrderFill) error {
	if err := s.fail("CreateOrderFills"); err != nil {
		return err
	}
	s.fills = append(s.fills, items...)
	return nil
}

func (s *stubStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	return append([]models.Order(nil), s.orders...), nil
}

func (s *stubStore) ListOrdersByUser(ctx context.Context, userName string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.UserName == userName {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubStore) InsertPayoutLog(ctx context.Context, item *models.PayoutLog) error {
	if err := s.fail("InsertPayoutLog"); err != nil {
		return err
	}
	s.payoutLogs = append(s.payoutLogs, *item)
	return nil
}

func (s *stubStore) ClearAll(ctx context.Context) error {
	if err := s.fail("ClearAll"); err != nil {
		return err
	}
	s.users = map[string]*models.User{}
	s.positions = map[string]*models.UserPosition{}
	s.orders = nil
	s.fills = nil
	s.payoutLogs = nil
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stubFeed is a scripted MarketFeed.
type stubFeed struct {
	markets    []clob.Market
	marketByID map[string]*clob.Market
	books      map[string]*clob.OrderBook
	listErr    error
	getErr     error
}

func (f *stubFeed) ListTradableMarkets(ctx context.Context) ([]clob.Market, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.markets, nil
}

func (f *stubFeed) GetMarket(ctx context.Context, conditionID string) (*clob.Market, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if m, ok := f.marketByID[conditionID]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("market %s not found", conditionID)
}

func (f *stubFeed) GetBook(ctx context.Context, tokenID string) (*clob.OrderBook, error) {
	if b, ok := f.books[tokenID]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("book %s not found", tokenID)
}

var _ repository.Repository = (*stubStore)(nil)
var _ MarketFeed = (*stubFeed)(nil)

func containsAll(haystack []string, needles ...string) bool {
	set := make(map[string]struct{}, len(haystack))
	for _, h := range haystack {
		set[h] = struct{}{}
	}
	for _, n := range needles {
		if _, ok := set[n]; !ok {
			return false
		}
	}
	return true
}

func joined(ids []string) string {
	return strings.Join(ids, ",")
}
