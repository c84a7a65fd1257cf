package repository

import (
	"context"
	"errors"
	"time"

	"DrawSync/internal/model"

	"gorm.io/gorm"
)

// DrawRepository 开奖主表仓储
type DrawRepository interface {
	// Insert 插入一期开奖。唯一键冲突原样返回，由写入方按幂等处理。
	Insert(ctx context.Context, draw *model.Draw) error
	// MaxIssue 库内最大期号；空表返回 ("", gorm.ErrRecordNotFound)
	MaxIssue(ctx context.Context) (string, error)
	// GetByIssue 按期号查询；不存在返回 (nil, nil)
	GetByIssue(ctx context.Context, issue string) (*model.Draw, error)
	// ListLatest 最近N期，期号倒序
	ListLatest(ctx context.Context, limit int) ([]*model.Draw, error)
	// ListPage 期号倒序分页（遗漏引擎引导扫描用）
	ListPage(ctx context.Context, offset, limit int) ([]*model.Draw, error)
	// ListByDate 某 +08:00 自然日的全部开奖，时间正序（日统计重建用）
	ListByDate(ctx context.Context, date string) ([]*model.Draw, error)
}

type drawRepository struct {
	db *gorm.DB
}

func NewDrawRepository(db *gorm.DB) DrawRepository {
	return &drawRepository{db: db}
}

func (r *drawRepository) Insert(ctx context.Context, draw *model.Draw) error {
	return r.db.WithContext(ctx).Create(draw).Error
}

func (r *drawRepository) MaxIssue(ctx context.Context) (string, error) {
	var draw model.Draw
	if err := r.db.WithContext(ctx).Order("issue DESC").Select("issue").First(&draw).Error; err != nil {
		return "", err
	}
	return draw.Issue, nil
}

func (r *drawRepository) GetByIssue(ctx context.Context, issue string) (*model.Draw, error) {
	var draw model.Draw
	if err := r.db.WithContext(ctx).Where("issue = ?", issue).First(&draw).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &draw, nil
}

func (r *drawRepository) ListLatest(ctx context.Context, limit int) ([]*model.Draw, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var draws []*model.Draw
	if err := r.db.WithContext(ctx).Order("issue DESC").Limit(limit).Find(&draws).Error; err != nil {
		return nil, err
	}
	return draws, nil
}

func (r *drawRepository) ListPage(ctx context.Context, offset, limit int) ([]*model.Draw, error) {
	var draws []*model.Draw
	if err := r.db.WithContext(ctx).Order("issue DESC").Offset(offset).Limit(limit).Find(&draws).Error; err != nil {
		return nil, err
	}
	return draws, nil
}

func (r *drawRepository) ListByDate(ctx context.Context, date string) ([]*model.Draw, error) {
	dayStart, err := time.ParseInLocation("2006-01-02", date, model.CSTZone)
	if err != nil {
		return nil, err
	}
	dayEnd := dayStart.Add(24 * time.Hour)
	var draws []*model.Draw
	if err := r.db.WithContext(ctx).
		Where("open_time >= ? AND open_time < ?", dayStart, dayEnd).
		Order("open_time ASC").Find(&draws).Error; err != nil {
		return nil, err
	}
	return draws, nil
}
