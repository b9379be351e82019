package db

import (
	"papertrade/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.User{},
		&models.Market{},
		&models.MarketOutcome{},
		&models.SyncHotMarket{},
		&models.MarketChangeLog{},
		&models.UserPosition{},
		&models.Order{},
		&models.OrderFill{},
		&models.PayoutLog{},
		&models.ResetLog{},
	)
}
