package service

import (
	"context"
	"fmt"
	"strings"

	"DrawSync/internal/model"
	"DrawSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// Verifier 预测验证器：开奖提交后用实际开奖回填该期四路预测的命中结果。
// 命中口径：单双/大小精确匹配；组合二选实际标签命中任一即中；
// 杀组合反向计——预测的组合没开出即中。
type Verifier struct {
	repo   repository.PredictionRepository
	logger *logrus.Logger
}

func NewVerifier(repo repository.PredictionRepository, logger *logrus.Logger) *Verifier {
	return &Verifier{repo: repo, logger: logger}
}

// OnDrawCommitted 逐路验证当期预测。某路尚无预测记录时跳过该路；
// 全部验证后输出一条对账日志（四路结果与命中比）。
func (v *Verifier) OnDrawCommitted(ctx context.Context, d *model.Draw) {
	actualCombo := comboLabel(d.Sum)
	var outcomes []string
	var verified, hits int

	for _, typ := range model.AllPredictionTypes() {
		p, err := v.repo.Get(ctx, d.Issue, typ)
		if err != nil {
			v.logger.WithError(err).WithFields(logrus.Fields{
				"issue": d.Issue,
				"type":  typ,
			}).Error("预测查询失败")
			continue
		}
		if p == nil {
			outcomes = append(outcomes, fmt.Sprintf("%s:无", typ))
			continue
		}

		actual, hit := judge(typ, p.PredictedValue, d.Sum, actualCombo)
		sum := d.Sum
		p.ActualNumbers = d.OpenNums
		p.ActualSum = &sum
		p.ActualValue = actual
		p.Hit = &hit

		if err := v.repo.UpdateOutcome(ctx, p); err != nil {
			v.logger.WithError(err).WithFields(logrus.Fields{
				"issue": d.Issue,
				"type":  typ,
			}).Error("预测结果回填失败")
			continue
		}

		verified++
		mark := "✗"
		if hit {
			hits++
			mark = "✓"
		}
		outcomes = append(outcomes, fmt.Sprintf("%s:%s%s", typ, p.PredictedValue, mark))
	}

	if verified == 0 {
		return
	}
	v.logger.WithFields(logrus.Fields{
		"issue": d.Issue,
		"nums":  d.OpenNums,
		"sum":   d.Sum,
		"ratio": fmt.Sprintf("%d/%d", hits, verified),
	}).Infof("预测对账 %s", strings.Join(outcomes, " "))
}

// judge 返回实际标签与是否命中
func judge(typ model.PredictionType, predicted string, sum int, actualCombo string) (string, bool) {
	switch typ {
	case model.PredictParity:
		actual := parityLabel(sum)
		return actual, predicted == actual
	case model.PredictMagnitude:
		actual := magnitudeLabel(sum)
		return actual, predicted == actual
	case model.PredictCombo:
		for _, label := range strings.Split(predicted, ",") {
			if strings.TrimSpace(label) == actualCombo {
				return actualCombo, true
			}
		}
		return actualCombo, false
	case model.PredictKill:
		// 杀组合：预测的组合未开出即命中
		return actualCombo, predicted != actualCombo
	default:
		return "", false
	}
}
