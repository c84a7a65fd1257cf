package repository

import (
	"context"
	"time"

	"DrawSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OmissionRepository 遗漏计数仓储。49行固定存在，批量CASE更新压缩往返。
type OmissionRepository interface {
	Count(ctx context.Context) (int64, error)
	// Seed 引导期一次性写入全部分类的初始计数（已存在则覆盖）
	Seed(ctx context.Context, counts map[string]int) error
	// ApplyDraw 单条批量语句：held内的分类归零，其余+1
	ApplyDraw(ctx context.Context, held []string) error
	ListAll(ctx context.Context) ([]*model.OmissionCounter, error)
}

type omissionRepository struct {
	db *gorm.DB
}

func NewOmissionRepository(db *gorm.DB) OmissionRepository {
	return &omissionRepository{db: db}
}

func (r *omissionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.OmissionCounter{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *omissionRepository) Seed(ctx context.Context, counts map[string]int) error {
	rows := make([]*model.OmissionCounter, 0, len(counts))
	for cat, count := range counts {
		rows = append(rows, &model.OmissionCounter{Category: cat, Count: count})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"count", "updated_at"}),
	}).Create(&rows).Error
}

func (r *omissionRepository) ApplyDraw(ctx context.Context, held []string) error {
	if len(held) == 0 {
		return nil
	}
	// 一条语句完成49行的归零/+1，避免逐行往返
	return r.db.WithContext(ctx).Exec(
		"UPDATE omission_counters SET count = CASE WHEN category IN (?) THEN 0 ELSE count + 1 END, updated_at = ?",
		held, time.Now(),
	).Error
}

func (r *omissionRepository) ListAll(ctx context.Context) ([]*model.OmissionCounter, error) {
	var rows []*model.OmissionCounter
	if err := r.db.WithContext(ctx).Order("category ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
