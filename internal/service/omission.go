package service

import (
	"context"
	"sync"

	"DrawSync/internal/enrich"
	"DrawSync/internal/model"
	"DrawSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// 引导扫描分页大小与扫描上限默认值
const (
	bootstrapPageSize   = 500
	defaultBootstrapCap = 10000
)

// OmissionEngine 遗漏引擎。不变式：每个分类的计数等于该分类最近一次开出以来
// 已提交的期数。逐期幂等性由协调器的已见集合保证，同一期重放视为缺陷。
type OmissionEngine struct {
	repo         repository.OmissionRepository
	draws        repository.DrawRepository
	bootstrapCap int
	logger       *logrus.Logger

	mu          sync.Mutex
	initialized bool
}

func NewOmissionEngine(repo repository.OmissionRepository, draws repository.DrawRepository, bootstrapCap int, logger *logrus.Logger) *OmissionEngine {
	if bootstrapCap <= 0 {
		bootstrapCap = defaultBootstrapCap
	}
	return &OmissionEngine{
		repo:         repo,
		draws:        draws,
		bootstrapCap: bootstrapCap,
		logger:       logger,
	}
}

// Apply 推进一期：开出的分类归零，其余+1。
// 计数表为空时先做引导扫描；引导扫描已覆盖当期（当期已落库、倒序扫描首条即它），
// 引导完成后直接返回，避免对同一期重复推进。
func (e *OmissionEngine) Apply(ctx context.Context, d *model.Draw) error {
	bootstrapped, err := e.ensureInitialized(ctx)
	if err != nil {
		return err
	}
	if bootstrapped {
		return nil
	}
	return e.repo.ApplyDraw(ctx, enrich.Categories(d))
}

// ensureInitialized 返回本次调用是否执行了引导
func (e *OmissionEngine) ensureInitialized(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return false, nil
	}
	n, err := e.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		e.initialized = true
		return false, nil
	}
	if err := e.bootstrap(ctx); err != nil {
		return false, err
	}
	e.initialized = true
	return true, nil
}

// bootstrap 倒序分页扫描已提交开奖，每个分类记下首次出现的下标；
// 扫描到上限仍未出现的分类，计数取已扫描总数。
func (e *OmissionEngine) bootstrap(ctx context.Context) error {
	counts := make(map[string]int)
	scanned := 0

	for scanned < e.bootstrapCap && len(counts) < len(model.AllCategories()) {
		page, err := e.draws.ListPage(ctx, scanned, bootstrapPageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		for _, d := range page {
			for _, cat := range enrich.Categories(d) {
				if _, seen := counts[cat]; !seen {
					counts[cat] = scanned
				}
			}
			scanned++
			if scanned >= e.bootstrapCap {
				break
			}
		}
	}

	for _, cat := range model.AllCategories() {
		if _, seen := counts[cat]; !seen {
			counts[cat] = scanned
		}
	}

	e.logger.WithFields(logrus.Fields{
		"scanned":    scanned,
		"categories": len(counts),
	}).Info("遗漏计数引导完成")
	return e.repo.Seed(ctx, counts)
}
