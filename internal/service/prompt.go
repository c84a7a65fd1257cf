package service

import (
	"fmt"
	"strings"
	"time"

	"DrawSync/internal/model"
)

// 偏置检测：最近10条预测中单一标签占比超过70%时注入平衡提示
const (
	biasWindow    = 10
	biasThreshold = 0.7
)

// systemPrompts 各预测流的系统提示词
var systemPrompts = map[model.PredictionType]string{
	model.PredictParity:    "你是彩票数据分析师。根据历史开奖数据预测下一期和值的单双。只回答一个字：单 或 双。",
	model.PredictMagnitude: "你是彩票数据分析师。根据历史开奖数据预测下一期和值的大小（和值>=14为大）。只回答一个字：大 或 小。",
	model.PredictCombo:     "你是彩票数据分析师。根据历史开奖数据从 大单/小单/大双/小双 中选出最可能的两个组合。只回答两个组合，用逗号分隔，如：大单,小双。",
	model.PredictKill:      "你是彩票数据分析师。根据历史开奖数据从 大单/小单/大双/小双 中选出最不可能开出的一个组合（杀组合）。只回答一个组合，如：大单。",
}

// BuildPrompt 构造单路预测的提示词：近期历史、当日汇总、三期走势，
// 以及触发阈值时的偏置平衡提示。history 期号倒序（最新在前）。
func BuildPrompt(typ model.PredictionType, history []*model.Draw, recentValues []string, now time.Time) (system, user string) {
	system = systemPrompts[typ]

	var sb strings.Builder
	sb.WriteString("最近开奖（新到旧）：\n")
	for _, d := range history {
		sb.WriteString(fmt.Sprintf("期号%s 号码%s 和值%d %s%s %s\n",
			d.Issue, d.OpenNums, d.Sum,
			magnitudeLabel(d.Sum), parityLabel(d.Sum), comboLabel(d.Sum)))
	}

	sb.WriteString("\n" + sameDaySummary(history, now))
	sb.WriteString("\n近三期走势：" + trendLine(history, typ))

	if hint := biasHint(typ, recentValues); hint != "" {
		sb.WriteString("\n" + hint)
	}

	sb.WriteString("\n\n请给出下一期预测。")
	return system, sb.String()
}

// sameDaySummary 当日（+08:00）各标签开出次数汇总
func sameDaySummary(history []*model.Draw, now time.Time) string {
	today := now.In(model.CSTZone).Format("2006-01-02")
	var total, big, odd int
	for _, d := range history {
		if d.OpenTime.In(model.CSTZone).Format("2006-01-02") != today {
			continue
		}
		total++
		if d.Sum >= 14 {
			big++
		}
		if d.Sum%2 == 1 {
			odd++
		}
	}
	if total == 0 {
		return "今日暂无开奖。"
	}
	return fmt.Sprintf("今日已开%d期：大%d小%d，单%d双%d。",
		total, big, total-big, odd, total-odd)
}

// trendLine 最近三期的标签走势串（新到旧）
func trendLine(history []*model.Draw, typ model.PredictionType) string {
	n := 3
	if len(history) < n {
		n = len(history)
	}
	if n == 0 {
		return "无"
	}
	labels := make([]string, 0, n)
	for _, d := range history[:n] {
		switch typ {
		case model.PredictParity:
			labels = append(labels, parityLabel(d.Sum))
		case model.PredictMagnitude:
			labels = append(labels, magnitudeLabel(d.Sum))
		default:
			labels = append(labels, comboLabel(d.Sum))
		}
	}
	return strings.Join(labels, " -> ")
}

// biasHint 最近预测的标签直方图中单一标签占比超阈值时返回平衡提示
func biasHint(typ model.PredictionType, recentValues []string) string {
	if len(recentValues) == 0 {
		return ""
	}
	window := recentValues
	if len(window) > biasWindow {
		window = window[:biasWindow]
	}

	hist := make(map[string]int)
	for _, v := range window {
		// 组合类预测值可能含多个标签，逐标签计数
		for _, label := range strings.Split(v, ",") {
			label = strings.TrimSpace(label)
			if label != "" {
				hist[label]++
			}
		}
	}

	var topLabel string
	var topCount int
	for label, n := range hist {
		if n > topCount {
			topLabel, topCount = label, n
		}
	}
	if float64(topCount) <= biasThreshold*float64(len(window)) {
		return ""
	}
	return fmt.Sprintf("注意：你最近%d次预测中有%d次给出了「%s」，存在明显偏向，本次请重新独立判断，避免惯性。",
		len(window), topCount, topLabel)
}

// ParseReply 按类型文法解析模型回复，容忍空白与多余文字。
// 文法不匹配对该任务致命（不重试）。
func ParseReply(typ model.PredictionType, reply string) (string, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("回复为空")
	}
	switch typ {
	case model.PredictParity:
		return firstLabel(reply, []string{model.LabelOdd, model.LabelEven})
	case model.PredictMagnitude:
		return firstLabel(reply, []string{model.LabelBig, model.LabelSmall})
	case model.PredictCombo:
		labels := scanComboLabels(reply)
		if len(labels) < 2 {
			return "", fmt.Errorf("组合预测应含两个不同标签，回复%q", reply)
		}
		return labels[0] + "," + labels[1], nil
	case model.PredictKill:
		labels := scanComboLabels(reply)
		if len(labels) == 0 {
			return "", fmt.Errorf("杀组合预测未含有效标签，回复%q", reply)
		}
		return labels[0], nil
	default:
		return "", fmt.Errorf("未知预测类型%s", typ)
	}
}

// firstLabel 取回复中最先出现的候选标签
func firstLabel(reply string, candidates []string) (string, error) {
	best := ""
	bestIdx := -1
	for _, label := range candidates {
		if idx := strings.Index(reply, label); idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
			best, bestIdx = label, idx
		}
	}
	if bestIdx < 0 {
		return "", fmt.Errorf("回复%q未含有效标签", reply)
	}
	return best, nil
}

// scanComboLabels 按出现顺序扫描组合标签并去重
func scanComboLabels(reply string) []string {
	type hit struct {
		label string
		idx   int
	}
	var hits []hit
	for _, label := range model.ComboLabels() {
		if idx := strings.Index(reply, label); idx >= 0 {
			hits = append(hits, hit{label: label, idx: idx})
		}
	}
	for i := 0; i < len(hits); i++ {
		for j := i + 1; j < len(hits); j++ {
			if hits[j].idx < hits[i].idx {
				hits[i], hits[j] = hits[j], hits[i]
			}
		}
	}
	labels := make([]string, 0, len(hits))
	for _, h := range hits {
		labels = append(labels, h.label)
	}
	return labels
}

// 和值到标签的换算（验证与提示词共用同一口径）

func parityLabel(sum int) string {
	if sum%2 == 1 {
		return model.LabelOdd
	}
	return model.LabelEven
}

func magnitudeLabel(sum int) string {
	if sum >= 14 {
		return model.LabelBig
	}
	return model.LabelSmall
}

func comboLabel(sum int) string {
	return magnitudeLabel(sum) + parityLabel(sum)
}
