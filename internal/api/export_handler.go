package api

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"DrawSync/internal/cache"
	"DrawSync/internal/model"
	"DrawSync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 导出产物缓存TTL与并发上限
const (
	exportTTL         = 3 * time.Minute
	exportConcurrency = 2
)

// ExportHandler 报表导出接口。产物按参数缓存3分钟；
// 生成并发受限，超限直接返回503。
type ExportHandler struct {
	draws  repository.DrawRepository
	daily  repository.DailyStatRepository
	store  *cache.Store
	keys   *cache.Keys
	logger *logrus.Logger
	sem    chan struct{}
}

func NewExportHandler(readDB *gorm.DB, store *cache.Store, keys *cache.Keys, logger *logrus.Logger) *ExportHandler {
	return &ExportHandler{
		draws:  repository.NewDrawRepository(readDB),
		daily:  repository.NewDailyStatRepository(readDB),
		store:  store,
		keys:   keys,
		logger: logger,
		sem:    make(chan struct{}, exportConcurrency),
	}
}

// ExportDraws 最近N期开奖明细
// GET /api/export/draws?limit=100
func (h *ExportHandler) ExportDraws(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	key := h.keys.ExcelLottery(limit)
	h.export(c, key, "draws.csv", func() ([]byte, error) {
		draws, err := h.draws.ListLatest(c.Request.Context(), limit)
		if err != nil {
			return nil, err
		}
		return renderDrawsCSV(draws)
	})
}

// ExportStats 最近N天的日统计
// GET /api/export/stats?days=7
func (h *ExportHandler) ExportStats(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days <= 0 || days > 90 {
		days = 7
	}

	key := h.keys.ExcelStats(days)
	h.export(c, key, "stats.csv", func() ([]byte, error) {
		return h.renderStatsCSV(c, days)
	})
}

// export 缓存命中直接回包；未命中则限并发生成、回填缓存
func (h *ExportHandler) export(c *gin.Context, key, filename string, render func() ([]byte, error)) {
	if h.store.Healthy() {
		if payload, ok, err := h.store.Get(c.Request.Context(), key); err == nil && ok {
			h.writeCSV(c, filename, []byte(payload))
			return
		}
	}

	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "导出任务繁忙，请稍后重试"})
		return
	}

	payload, err := render()
	if err != nil {
		h.logger.WithError(err).WithField("key", key).Error("导出生成失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.store.Healthy() {
		if err := h.store.Set(c.Request.Context(), key, string(payload), exportTTL); err != nil {
			h.logger.WithError(err).WithField("key", key).Warn("导出产物回填缓存失败")
		}
	}
	h.writeCSV(c, filename, payload)
}

func (h *ExportHandler) writeCSV(c *gin.Context, filename string, payload []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", payload)
}

func renderDrawsCSV(draws []*model.Draw) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"期号", "开奖时间", "号码", "和值", "大小", "单双", "组合", "形态", "采集源"}); err != nil {
		return nil, err
	}
	for _, d := range draws {
		size := "小"
		if d.IsBig {
			size = "大"
		}
		parity := "双"
		if d.IsOdd {
			parity = "单"
		}
		form := "杂六"
		switch {
		case d.IsTriple:
			form = "豹子"
		case d.IsStraight:
			form = "顺子"
		case d.IsPair:
			form = "对子"
		}
		row := []string{
			d.Issue,
			d.OpenTime.In(model.CSTZone).Format("2006-01-02 15:04:05"),
			d.OpenNums,
			strconv.Itoa(d.Sum),
			size, parity, d.Combination, form,
			d.Source,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (h *ExportHandler) renderStatsCSV(c *gin.Context, days int) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"日期", "分类", "次数"}); err != nil {
		return nil, err
	}

	today := time.Now().In(model.CSTZone)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, -i).Format("2006-01-02")
		rows, err := h.daily.ListByDate(c.Request.Context(), date)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if err := w.Write([]string{r.Date, r.Category, strconv.Itoa(r.Count)}); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
