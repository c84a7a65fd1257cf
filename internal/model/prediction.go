package model

import "time"

// PredictionType 预测流类型，四路互相独立
type PredictionType string

const (
	PredictParity    PredictionType = "parity"    // 单双
	PredictMagnitude PredictionType = "magnitude" // 大小
	PredictCombo     PredictionType = "combo"     // 组合二选（两个不同标签）
	PredictKill      PredictionType = "kill"      // 杀组合（单标签，命中=未开出）
)

// AllPredictionTypes 四路预测类型（顺序固定）
func AllPredictionTypes() []PredictionType {
	return []PredictionType{PredictParity, PredictMagnitude, PredictCombo, PredictKill}
}

// 预测值文法使用的中文标签
const (
	LabelOdd   = "单"
	LabelEven  = "双"
	LabelBig   = "大"
	LabelSmall = "小"

	LabelBigOdd    = "大单"
	LabelSmallOdd  = "小单"
	LabelBigEven   = "大双"
	LabelSmallEven = "小双"
)

// ComboLabels 组合标签全集（大单/小单/大双/小双）
func ComboLabels() []string {
	return []string{LabelBigOdd, LabelSmallOdd, LabelBigEven, LabelSmallEven}
}

// Prediction 预测记录，(issue, type) 唯一。hit 三态：NULL=未验证
type Prediction struct {
	ID             uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Issue          string         `gorm:"column:issue;type:char(7);not null;uniqueIndex:uk_issue_type,priority:1;index:idx_type_issue,priority:2,sort:desc;index:idx_type_hit,priority:3,sort:desc;comment:目标期号"`
	Type           PredictionType `gorm:"column:type;type:varchar(16);not null;uniqueIndex:uk_issue_type,priority:2;index:idx_type_issue,priority:1;index:idx_type_hit,priority:1;comment:预测类型"`
	PredictedValue string         `gorm:"column:predicted_value;type:varchar(32);not null;comment:预测值"`
	ActualNumbers  string         `gorm:"column:actual_numbers;type:varchar(8);comment:实际号码"`
	ActualSum      *int           `gorm:"column:actual_sum;type:tinyint;comment:实际和值"`
	ActualValue    string         `gorm:"column:actual_value;type:varchar(16);comment:实际对应标签"`
	Hit            *bool          `gorm:"column:hit;type:boolean;index:idx_type_hit,priority:2;comment:是否命中(NULL=未验证)"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

func (Prediction) TableName() string { return "predictions" }

// HitRate 单类型命中率快照：最近100条已验证预测
type HitRate struct {
	Type   PredictionType `json:"type"`
	Total  int            `json:"total"`
	Hits   int            `json:"hits"`
	Misses int            `json:"misses"`
	Rate   float64        `json:"rate"`
}
