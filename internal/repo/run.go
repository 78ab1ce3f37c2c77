package repo

import (
	"context"
	"github.com/PerterPon/ff/internal/entity"
	"gorm.io/gorm"
)

type RunRepo interface {
	Create(ctx context.Context, run entity.BacktestRun) (int64, error)
	FindById(ctx context.Context, id int64) (entity.BacktestRun, error)
	FindByStrategy(ctx context.Context, strategy string) ([]entity.BacktestRun, error)
	FindAll(ctx context.Context) ([]entity.BacktestRun, error)
}

type runRepo struct {
	db *gorm.DB
}

func NewRunRepo(db *gorm.DB) RunRepo {
	return &runRepo{
		db: db,
	}
}

func (r *runRepo) Create(ctx context.Context, run entity.BacktestRun) (int64, error) {
	err := r.db.WithContext(ctx).Create(&run).Error
	if err != nil {
		return 0, err
	}
	return run.Id, nil
}

func (r *runRepo) FindById(ctx context.Context, id int64) (entity.BacktestRun, error) {
	var run entity.BacktestRun
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if err != nil {
		return entity.BacktestRun{}, err
	}
	return run, nil
}

func (r *runRepo) FindByStrategy(ctx context.Context, strategy string) ([]entity.BacktestRun, error) {
	var runs []entity.BacktestRun
	err := r.db.WithContext(ctx).Where("strategy = ?", strategy).Order("created_at desc").Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *runRepo) FindAll(ctx context.Context) ([]entity.BacktestRun, error) {
	var runs []entity.BacktestRun
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
