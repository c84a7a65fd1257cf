package repository

import (
	"context"
	"errors"

	"DrawSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PredictionRepository 预测记录仓储
type PredictionRepository interface {
	// Upsert (issue,type) 唯一：冲突时覆盖预测值（同一期的重复预测以后写为准）
	Upsert(ctx context.Context, p *model.Prediction) error
	// Get 按 (issue,type) 查询；不存在返回 (nil, nil)
	Get(ctx context.Context, issue string, typ model.PredictionType) (*model.Prediction, error)
	// UpdateOutcome 回填实际开奖与命中结果
	UpdateOutcome(ctx context.Context, p *model.Prediction) error
	// ListRecentValues 最近N条该类型的预测值（仅predicted_value投影，期号倒序）
	ListRecentValues(ctx context.Context, typ model.PredictionType, limit int) ([]string, error)
	// ListResolved 最近N条已验证（hit非NULL）预测，期号倒序
	ListResolved(ctx context.Context, typ model.PredictionType, limit int) ([]*model.Prediction, error)
	// ListLatest 最近N条该类型预测，期号倒序
	ListLatest(ctx context.Context, typ model.PredictionType, limit int) ([]*model.Prediction, error)
}

type predictionRepository struct {
	db *gorm.DB
}

func NewPredictionRepository(db *gorm.DB) PredictionRepository {
	return &predictionRepository{db: db}
}

func (r *predictionRepository) Upsert(ctx context.Context, p *model.Prediction) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "issue"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"predicted_value", "updated_at"}),
	}).Create(p).Error
}

func (r *predictionRepository) Get(ctx context.Context, issue string, typ model.PredictionType) (*model.Prediction, error) {
	var p model.Prediction
	if err := r.db.WithContext(ctx).Where("issue = ? AND type = ?", issue, typ).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *predictionRepository) UpdateOutcome(ctx context.Context, p *model.Prediction) error {
	return r.db.WithContext(ctx).Model(&model.Prediction{}).
		Where("issue = ? AND type = ?", p.Issue, p.Type).
		Updates(map[string]interface{}{
			"actual_numbers": p.ActualNumbers,
			"actual_sum":     p.ActualSum,
			"actual_value":   p.ActualValue,
			"hit":            p.Hit,
		}).Error
}

func (r *predictionRepository) ListRecentValues(ctx context.Context, typ model.PredictionType, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	var values []string
	if err := r.db.WithContext(ctx).Model(&model.Prediction{}).
		Where("type = ?", typ).
		Order("issue DESC").Limit(limit).
		Pluck("predicted_value", &values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

func (r *predictionRepository) ListResolved(ctx context.Context, typ model.PredictionType, limit int) ([]*model.Prediction, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []*model.Prediction
	if err := r.db.WithContext(ctx).
		Where("type = ? AND hit IS NOT NULL", typ).
		Order("issue DESC").Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *predictionRepository) ListLatest(ctx context.Context, typ model.PredictionType, limit int) ([]*model.Prediction, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	var rows []*model.Prediction
	if err := r.db.WithContext(ctx).
		Where("type = ?", typ).
		Order("issue DESC").Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
