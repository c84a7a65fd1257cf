package api

import (
	"net/http"
	"time"

	"DrawSync/internal/service"
	"DrawSync/internal/tracker"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminHandler 健康检查与运维操作接口
type AdminHandler struct {
	health  *service.HealthChecker
	daily   *service.DailyStatsEngine
	tracker *tracker.Tracker
	logger  *logrus.Logger
}

func NewAdminHandler(health *service.HealthChecker, daily *service.DailyStatsEngine, tr *tracker.Tracker, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		health:  health,
		daily:   daily,
		tracker: tr,
		logger:  logger,
	}
}

// Health 健康快照。依赖全挂时仍返回200，由load balancer按字段判活。
// GET /health
func (h *AdminHandler) Health(c *gin.Context) {
	status := h.health.Status()
	c.JSON(http.StatusOK, gin.H{
		"redis":        status.Redis,
		"mysql":        status.MySQL,
		"latest_issue": h.tracker.Latest(),
	})
}

// RebuildDailyStats 手动重建某日统计（清空后按时间正序重放）
// POST /api/daily-stats/rebuild?date=2025-06-15
func (h *AdminHandler) RebuildDailyStats(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date不能为空"})
		return
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date须为 yyyy-mm-dd"})
		return
	}

	if err := h.daily.Rebuild(c.Request.Context(), date); err != nil {
		h.logger.WithError(err).WithField("date", date).Error("日统计重建失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "status": "rebuilt"})
}
