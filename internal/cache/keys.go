package cache

import (
	"fmt"
	"time"

	"DrawSync/internal/model"
)

// 缓存键文法：全部键带统一命名空间前缀。各键类的归属与TTL见各使用方。
type Keys struct {
	prefix string
}

func NewKeys(prefix string) *Keys {
	if prefix == "" {
		prefix = "drawsync:"
	}
	return &Keys{prefix: prefix}
}

// IssueLock 写入互斥锁，TTL秒级
func (k *Keys) IssueLock(issue string) string {
	return k.prefix + "lock:issue:" + issue
}

// SeenIssue 已见集合成员，TTL 1小时
func (k *Keys) SeenIssue(issue string) string {
	return k.prefix + "seen:issue:" + issue
}

// LastIssue 最新期号指针，无TTL
func (k *Keys) LastIssue() string {
	return k.prefix + "last:issue"
}

// LatestDraws 最新开奖列表载荷（按limit分键）
func (k *Keys) LatestDraws(limit int) string {
	return fmt.Sprintf("%skj:limit:%d", k.prefix, limit)
}

// LatestDrawsPattern 最新开奖列表全部limit变体
func (k *Keys) LatestDrawsPattern() string {
	return k.prefix + "kj:limit:*"
}

// Omission 遗漏快照载荷
func (k *Keys) Omission() string { return k.prefix + "yl" }

// DailyStats 日统计快照载荷
func (k *Keys) DailyStats() string { return k.prefix + "yk" }

// Predictions 预测列表载荷（按类型与limit分键）
func (k *Keys) Predictions(typ model.PredictionType, limit int) string {
	return fmt.Sprintf("%spredict:%s:limit:%d", k.prefix, typ, limit)
}

// PredictionsPattern 某类型的全部预测载荷
func (k *Keys) PredictionsPattern(typ model.PredictionType) string {
	return fmt.Sprintf("%spredict:%s:limit:*", k.prefix, typ)
}

// PredictLock 预测周期锁，TTL 300秒
func (k *Keys) PredictLock(issue string) string {
	return k.prefix + "predict:lock:" + issue
}

// WinRate 命中率快照，TTL 5分钟
func (k *Keys) WinRate(typ model.PredictionType) string {
	return fmt.Sprintf("%swinrate:%s", k.prefix, typ)
}

// ExcelLottery 开奖导出产物，TTL 3分钟
func (k *Keys) ExcelLottery(limit int) string {
	return fmt.Sprintf("%sexcel:lottery:%d", k.prefix, limit)
}

func (k *Keys) ExcelLotteryPattern() string { return k.prefix + "excel:lottery:*" }

// ExcelStats 统计导出产物，TTL 3分钟
func (k *Keys) ExcelStats(days int) string {
	return fmt.Sprintf("%sexcel:stats:%d", k.prefix, days)
}

func (k *Keys) ExcelStatsPattern() string { return k.prefix + "excel:stats:*" }

// TodayStatsProcessed 日统计逐期幂等标记，TTL至当日午夜
func (k *Keys) TodayStatsProcessed(date, issue string) string {
	return fmt.Sprintf("%stoday_stats:processed:%s:%s", k.prefix, date, issue)
}

// TodayStatsProcessedPattern 某日期全部幂等标记（重建时清理）
func (k *Keys) TodayStatsProcessedPattern(date string) string {
	return fmt.Sprintf("%stoday_stats:processed:%s:*", k.prefix, date)
}

// UntilMidnight 距 +08:00 当日午夜的剩余时长（幂等标记TTL）
func UntilMidnight(now time.Time) time.Duration {
	cst := now.In(model.CSTZone)
	midnight := time.Date(cst.Year(), cst.Month(), cst.Day(), 0, 0, 0, 0, model.CSTZone).Add(24 * time.Hour)
	return midnight.Sub(cst)
}
