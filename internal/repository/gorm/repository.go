package gormrepository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"papertrade/internal/models"
	"papertrade/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(repository.Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// --- users -------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *Store) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByNameForUpdate(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) ListUsersByNames(ctx context.Context, names []string) ([]models.User, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("name IN ?", names).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *Store) InsertResetLog(ctx context.Context, item *models.ResetLog) error {
	return s.db.WithContext(ctx).Create(item).Error
}

// --- stable markets ----------------------------------------------------

func (s *Store) GetMarket(ctx context.Context, conditionID string) (*models.Market, error) {
	var m models.Market
	err := s.db.WithContext(ctx).First(&m, "condition_id = ?", conditionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListMarkets(ctx context.Context) ([]models.Market, error) {
	var items []models.Market
	if err := s.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateMarket(ctx context.Context, item *models.Market) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) MarkMarketsUntradable(ctx context.Context, conditionIDs []string) ([]string, error) {
	if len(conditionIDs) == 0 {
		return nil, nil
	}
	var existing []models.Market
	if err := s.db.WithContext(ctx).Where("condition_id IN ?", conditionIDs).Find(&existing).Error; err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(existing))
	for _, m := range existing {
		ids = append(ids, m.ConditionID)
	}
	err := s.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("condition_id IN ?", ids).
		Update("is_tradable", false).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// --- outcomes ----------------------------------------------------------

func (s *Store) GetMarketOutcome(ctx context.Context, market, token string) (*models.MarketOutcome, error) {
	var mo models.MarketOutcome
	err := s.db.WithContext(ctx).First(&mo, "market = ? AND token = ?", market, token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mo, nil
}

func (s *Store) CreateMarketOutcome(ctx context.Context, item *models.MarketOutcome) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) MarkOutcomeWinners(ctx context.Context, market string, tokenIDs []string) (int64, error) {
	if len(tokenIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.MarketOutcome{}).
		Where("market = ? AND token IN ?", market, tokenIDs).
		Update("is_winner", true)
	return res.RowsAffected, res.Error
}

// --- hot tracking ------------------------------------------------------

func (s *Store) ListSyncHotMarkets(ctx context.Context) ([]models.SyncHotMarket, error) {
	var items []models.SyncHotMarket
	if err := s.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateSyncHotMarket(ctx context.Context, item *models.SyncHotMarket) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) DeleteSyncHotMarket(ctx context.Context, conditionID string) error {
	return s.db.WithContext(ctx).
		Delete(&models.SyncHotMarket{ConditionID: conditionID}).Error
}

func (s *Store) InsertMarketChangeLog(ctx context.Context, item *models.MarketChangeLog) error {
	return s.db.WithContext(ctx).Create(item).Error
}

// --- positions ---------------------------------------------------------

func (s *Store) GetPosition(ctx context.Context, userName, market, token string) (*models.UserPosition, error) {
	return s.getPosition(ctx, s.db, userName, market, token)
}

func (s *Store) GetPositionForUpdate(ctx context.Context, userName, market, token string) (*models.UserPosition, error) {
	return s.getPosition(ctx, s.db.Clauses(clause.Locking{Strength: "UPDATE"}), userName, market, token)
}

func (s *Store) getPosition(ctx context.Context, db *gorm.DB, userName, market, token string) (*models.UserPosition, error) {
	var pos models.UserPosition
	err := db.WithContext(ctx).
		First(&pos, "user_name = ? AND market = ? AND token = ?", userName, market, token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func (s *Store) SavePosition(ctx context.Context, item *models.UserPosition) error {
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) DeletePosition(ctx context.Context, item *models.UserPosition) error {
	return s.db.WithContext(ctx).
		Delete(&models.UserPosition{}, "user_name = ? AND market = ? AND token = ?",
			item.UserName, item.Market, item.Token).Error
}

func (s *Store) ListPositions(ctx context.Context) ([]models.UserPosition, error) {
	var items []models.UserPosition
	if err := s.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListPositionsByUser(ctx context.Context, userName string) ([]models.UserPosition, error) {
	var items []models.UserPosition
	if err := s.db.WithContext(ctx).Where("user_name = ?", userName).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListPositionsByMarket(ctx context.Context, market string) ([]models.UserPosition, error) {
	var items []models.UserPosition
	if err := s.db.WithContext(ctx).Where("market = ?", market).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- orders ------------------------------------------------------------

func (s *Store) CreateOrder(ctx context.Context, item *models.Order) error {
	return s.db.WithContext(ctx).Omit("Fills").Create(item).Error
}

func (s *Store) CreateOrderFills(ctx context.Context, items []models.OrderFill) error {
	if len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&items).Error
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var items []models.Order
	err := s.db.WithContext(ctx).Preload("Fills").Order("id").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userName string) ([]models.Order, error) {
	var items []models.Order
	err := s.db.WithContext(ctx).
		Preload("Fills").
		Where("user_name = ?", userName).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- settlement audit ---------------------------------------------------

func (s *Store) InsertPayoutLog(ctx context.Context, item *models.PayoutLog) error {
	return s.db.WithContext(ctx).Create(item).Error
}

// --- admin ---------------------------------------------------------------

func (s *Store) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.OrderFill{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&models.Order{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&models.UserPosition{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&models.PayoutLog{}).Error; err != nil {
			return err
		}
		return all.Delete(&models.User{}).Error
	})
}
