package api

import (
	"encoding/json"
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

// 读侧载荷缓存TTL
const (
	latestDrawsTTL = 30 * time.Second
	omissionTTL    = 30 * time.Second
	dailyStatsTTL  = time.Minute
)

// DrawHandler 开奖与统计查询接口（读穿缓存，缓存不可用时直查读库）
type DrawHandler struct {
	draws    repository.DrawRepository
	omission repository.OmissionRepository
	daily    repository.DailyStatRepository
	store    *cache.Store
	keys     *cache.Keys
	logger   *logrus.Logger
}

func NewDrawHandler(readDB *gorm.DB, store *cache.Store, keys *cache.Keys, logger *logrus.Logger) *DrawHandler {
	return &DrawHandler{
		draws:    repository.NewDrawRepository(readDB),
		omission: repository.NewOmissionRepository(readDB),
		daily:    repository.NewDailyStatRepository(readDB),
		store:    store,
		keys:     keys,
		logger:   logger,
	}
}

// LatestDraws 最新开奖列表
// GET /api/draws/latest?limit=20
func (h *DrawHandler) LatestDraws(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	key := h.keys.LatestDraws(limit)
	if h.serveCached(c, key) {
		return
	}

	draws, err := h.draws.ListLatest(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("查询最新开奖失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.respondAndCache(c, key, gin.H{"list": draws, "count": len(draws)}, latestDrawsTTL)
}

// Omission 遗漏计数快照
// GET /api/omission
func (h *DrawHandler) Omission(c *gin.Context) {
	key := h.keys.Omission()
	if h.serveCached(c, key) {
		return
	}

	rows, err := h.omission.ListAll(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("查询遗漏计数失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.respondAndCache(c, key, gin.H{"list": rows}, omissionTTL)
}

// DailyStats 日统计。缺省查当日（+08:00）。
// GET /api/daily-stats?date=2025-06-15
func (h *DrawHandler) DailyStats(c *gin.Context) {
	date := c.Query("date")
	today := time.Now().In(model.CSTZone).Format("2006-01-02")
	if date == "" {
		date = today
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date须为 yyyy-mm-dd"})
		return
	}

	// 只有当日快照走缓存（历史日期不可变，直查也便宜）
	useCache := date == today
	key := h.keys.DailyStats()
	if useCache && h.serveCached(c, key) {
		return
	}

	rows, err := h.daily.ListByDate(c.Request.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("查询日统计失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{"date": date, "list": rows}
	if useCache {
		h.respondAndCache(c, key, body, dailyStatsTTL)
		return
	}
	c.JSON(http.StatusOK, body)
}

// serveCached 命中缓存则直接回包
func (h *DrawHandler) serveCached(c *gin.Context, key string) bool {
	if !h.store.Healthy() {
		return false
	}
	payload, ok, err := h.store.Get(c.Request.Context(), key)
	if err != nil || !ok {
		return false
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(payload))
	return true
}

// respondAndCache 序列化响应、尽力回填缓存后回包
func (h *DrawHandler) respondAndCache(c *gin.Context, key string, body gin.H, ttl time.Duration) {
	raw, err := json.Marshal(body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if h.store.Healthy() {
		if err := h.store.Set(c.Request.Context(), key, string(raw), ttl); err != nil {
			h.logger.WithError(err).WithField("key", key).Warn("读侧载荷回填缓存失败")
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
