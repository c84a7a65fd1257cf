package model

import (
	"time"
)

// CSTZone 开奖源所在时区（+08:00）。所有源端时间串均按该时区解析，
// 入库后统一为绝对时刻，读侧不做任何补偿。
var CSTZone = time.FixedZone("CST", 8*3600)

// RawDraw 采集器产出的原始开奖记录（入库前）
type RawDraw struct {
	Issue    string // 期号，7位数字
	OpenTime string // 源端时间串，"2006-01-02 15:04:05" 或 "01-02 15:04:05"
	OpenNums string // 开奖号码，规范形式 "a+b+c"
	Sum      int    // 和值 0~27
	Source   string // 采集源名称（竞速获胜者）
}

// Draw 开奖主表（含19个派生字段，入库前由 enrich 一次性计算，读侧不再推导）
type Draw struct {
	ID       uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Issue    string    `gorm:"column:issue;type:char(7);uniqueIndex:uk_issue;not null;comment:期号"`
	OpenTime time.Time `gorm:"column:open_time;type:datetime;not null;index:idx_open_time,sort:desc;comment:开奖时间"`
	OpenNums string    `gorm:"column:open_nums;type:varchar(8);not null;comment:开奖号码 a+b+c"`
	Sum      int       `gorm:"column:sum;type:tinyint;not null;comment:和值0~27"`
	Source   string    `gorm:"column:source;type:varchar(32);not null;comment:采集源"`

	IsBig          bool   `gorm:"column:is_big;type:boolean;not null;comment:大(和值>=14)"`
	IsSmall        bool   `gorm:"column:is_small;type:boolean;not null;comment:小(和值<=13)"`
	IsOdd          bool   `gorm:"column:is_odd;type:boolean;not null;comment:单"`
	IsEven         bool   `gorm:"column:is_even;type:boolean;not null;comment:双"`
	IsExtremeBig   bool   `gorm:"column:is_extreme_big;type:boolean;not null;comment:极大(和值>=22)"`
	IsExtremeSmall bool   `gorm:"column:is_extreme_small;type:boolean;not null;comment:极小(和值<=5)"`
	Combination    string `gorm:"column:combination;type:varchar(16);not null;comment:组合(大单/小单/大双/小双)"`
	IsTriple       bool   `gorm:"column:is_triple;type:boolean;not null;comment:豹子"`
	IsPair         bool   `gorm:"column:is_pair;type:boolean;not null;comment:对子"`
	IsStraight     bool   `gorm:"column:is_straight;type:boolean;not null;comment:顺子"`
	IsMisc         bool   `gorm:"column:is_misc;type:boolean;not null;comment:杂六"`
	IsSmallEdge    bool   `gorm:"column:is_small_edge;type:boolean;not null;comment:小边(0~9)"`
	IsMiddle       bool   `gorm:"column:is_middle;type:boolean;not null;comment:中数(10~17)"`
	IsBigEdge      bool   `gorm:"column:is_big_edge;type:boolean;not null;comment:大边(18~27)"`
	IsEdge         bool   `gorm:"column:is_edge;type:boolean;not null;comment:边(小边或大边)"`
	IsDragon       bool   `gorm:"column:is_dragon;type:boolean;not null;comment:龙(首位>末位)"`
	IsTiger        bool   `gorm:"column:is_tiger;type:boolean;not null;comment:虎(首位<末位)"`
	IsTie          bool   `gorm:"column:is_tie;type:boolean;not null;comment:和(首位=末位)"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

func (Draw) TableName() string { return "draws" }

// Digits 拆出三位号码。调用方保证 OpenNums 已是规范形式 "a+b+c"。
func (d *Draw) Digits() (a, b, c int) {
	if len(d.OpenNums) != 5 {
		return 0, 0, 0
	}
	return int(d.OpenNums[0] - '0'), int(d.OpenNums[2] - '0'), int(d.OpenNums[4] - '0')
}
