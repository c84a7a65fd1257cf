package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"DrawSync/internal/cache"
	"DrawSync/internal/model"
	"DrawSync/internal/repository"
	"DrawSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const predictionsTTL = 30 * time.Second

// PredictionHandler 预测查询接口
type PredictionHandler struct {
	preds   repository.PredictionRepository
	winrate *service.WinRateService
	store   *cache.Store
	keys    *cache.Keys
	logger  *logrus.Logger
}

func NewPredictionHandler(readDB *gorm.DB, winrate *service.WinRateService, store *cache.Store, keys *cache.Keys, logger *logrus.Logger) *PredictionHandler {
	return &PredictionHandler{
		preds:   repository.NewPredictionRepository(readDB),
		winrate: winrate,
		store:   store,
		keys:    keys,
		logger:  logger,
	}
}

// parseType 校验路径参数中的预测类型
func parseType(c *gin.Context) (model.PredictionType, bool) {
	typ := model.PredictionType(c.Param("type"))
	for _, t := range model.AllPredictionTypes() {
		if typ == t {
			return typ, true
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "type须为 parity/magnitude/combo/kill"})
	return "", false
}

// ListPredictions 某类型最近的预测记录（含已验证结果）
// GET /api/predictions/:type?limit=20
func (h *PredictionHandler) ListPredictions(c *gin.Context) {
	typ, ok := parseType(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	key := h.keys.Predictions(typ, limit)
	if h.store.Healthy() {
		if payload, hit, err := h.store.Get(c.Request.Context(), key); err == nil && hit {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(payload))
			return
		}
	}

	rows, err := h.preds.ListLatest(c.Request.Context(), typ, limit)
	if err != nil {
		h.logger.WithError(err).Error("查询预测记录失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	raw, err := json.Marshal(gin.H{"type": typ, "list": rows})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if h.store.Healthy() {
		if err := h.store.Set(c.Request.Context(), key, string(raw), predictionsTTL); err != nil {
			h.logger.WithError(err).WithField("key", key).Warn("预测列表回填缓存失败")
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// WinRate 某类型的命中率快照（最近100条已验证）
// GET /api/winrate/:type
func (h *PredictionHandler) WinRate(c *gin.Context) {
	typ, ok := parseType(c)
	if !ok {
		return
	}

	hr, err := h.winrate.Get(c.Request.Context(), typ)
	if err != nil {
		h.logger.WithError(err).Error("查询命中率失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, hr)
}
