package repository

import (
	"context"
	"strings"
	"time"

	"DrawSync/internal/model"

	"gorm.io/gorm"
)

// DailyStatRepository 日统计仓储
type DailyStatRepository interface {
	// IncrCategories 组upsert：命中的分类当日计数+1，行不存在则以1创建
	IncrCategories(ctx context.Context, date string, cats []string) error
	// TruncateDate 清空某日全部计数（重建用）
	TruncateDate(ctx context.Context, date string) error
	ListByDate(ctx context.Context, date string) ([]*model.DailyStat, error)
}

type dailyStatRepository struct {
	db *gorm.DB
}

func NewDailyStatRepository(db *gorm.DB) DailyStatRepository {
	return &dailyStatRepository{db: db}
}

func (r *dailyStatRepository) IncrCategories(ctx context.Context, date string, cats []string) error {
	if len(cats) == 0 {
		return nil
	}
	now := time.Now()
	var sb strings.Builder
	sb.WriteString("INSERT INTO daily_stats (date, category, count, updated_at) VALUES ")
	args := make([]interface{}, 0, len(cats)*3)
	for i, cat := range cats {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, 1, ?)")
		args = append(args, date, cat, now)
	}
	sb.WriteString(" ON DUPLICATE KEY UPDATE count = count + 1, updated_at = VALUES(updated_at)")
	return r.db.WithContext(ctx).Exec(sb.String(), args...).Error
}

func (r *dailyStatRepository) TruncateDate(ctx context.Context, date string) error {
	return r.db.WithContext(ctx).Where("date = ?", date).Delete(&model.DailyStat{}).Error
}

func (r *dailyStatRepository) ListByDate(ctx context.Context, date string) ([]*model.DailyStat, error) {
	var rows []*model.DailyStat
	if err := r.db.WithContext(ctx).Where("date = ?", date).Order("category ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
