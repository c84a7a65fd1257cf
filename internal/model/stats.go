package model

import "time"

// OmissionCounter 遗漏计数：该分类自最近一次开出以来累计的期数。
// 49行固定存在，开出归零、未开出+1，从不删除。
type OmissionCounter struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Category  string    `gorm:"column:category;type:varchar(16);uniqueIndex:uk_category;not null;comment:分类标签"`
	Count     int       `gorm:"column:count;type:int;not null;default:0;comment:遗漏期数"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

func (OmissionCounter) TableName() string { return "omission_counters" }

// DailyStat 日统计：(日期, 分类) -> 当日开出次数。日期取开奖时刻在 +08:00 的自然日。
type DailyStat struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Date      string    `gorm:"column:date;type:char(10);not null;uniqueIndex:uk_date_category,priority:1;comment:日期 yyyy-mm-dd"`
	Category  string    `gorm:"column:category;type:varchar(16);not null;uniqueIndex:uk_date_category,priority:2;comment:分类标签"`
	Count     int       `gorm:"column:count;type:int;not null;default:0;comment:当日开出次数"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

func (DailyStat) TableName() string { return "daily_stats" }
