package repo

import (
	"github.com/PerterPon/ff/internal/entity"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.BacktestRun{})
}
