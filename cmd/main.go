package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"DrawSync/internal/adapter"
	"DrawSync/internal/api"
	"DrawSync/internal/bus"
	"DrawSync/internal/cache"
	"DrawSync/internal/config"
	"DrawSync/internal/dedup"
	"DrawSync/internal/llm"
	"DrawSync/internal/lock"
	"DrawSync/internal/model"
	"DrawSync/internal/repository"
	"DrawSync/internal/service"
	"DrawSync/internal/tracker"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openDB 打开一个带连接池参数的gorm句柄
func openDB(dsn string, maxOpen, maxIdle int, lifetime time.Duration, gl gormlogger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gl})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if lifetime > 0 {
		sqlDB.SetConnMaxLifetime(lifetime)
	}
	return db, nil
}

func main() {
	// 1. 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 2. 初始化日志
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.Info("配置文件加载成功")

	// 3. 初始化MySQL写库（读库单独配置时另开读池）
	gl := gormlogger.Default.LogMode(gormlogger.Warn)
	db, err := openDB(cfg.MySQL.DSN, cfg.MySQL.MaxOpenConns, cfg.MySQL.MaxIdleConns, cfg.MySQL.ConnMaxLifetime, gl)
	if err != nil {
		logger.Fatalf("连接MySQL失败: %v", err)
	}
	readDB := db
	if cfg.MySQL.ReadDSN != "" {
		readDB, err = openDB(cfg.MySQL.ReadDSN, cfg.MySQL.ReadMaxOpenConns, cfg.MySQL.ReadMaxIdleConns, cfg.MySQL.ConnMaxLifetime, gl)
		if err != nil {
			logger.Fatalf("连接MySQL读库失败: %v", err)
		}
	}
	logger.Info("MySQL连接成功")

	// 4. 库表不存在则自动创建
	if err := db.AutoMigrate(
		&model.Draw{},
		&model.OmissionCounter{},
		&model.DailyStat{},
		&model.Prediction{},
	); err != nil {
		logger.Fatalf("数据库表结构迁移失败: %v", err)
	}
	logger.Info("数据库表结构检查完成（不存在则已创建）")

	// 5. Redis与缓存层
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := cache.NewStore(rdb, logger)
	keys := cache.NewKeys(cfg.Cache.Prefix)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health := service.NewHealthChecker(store, db, logger)
	health.Start(rootCtx)

	// 6. 仓储与核心组件
	drawRepo := repository.NewDrawRepository(db)
	omissionRepo := repository.NewOmissionRepository(db)
	dailyRepo := repository.NewDailyStatRepository(db)
	predRepo := repository.NewPredictionRepository(db)

	tr := tracker.New(logger)
	if err := tr.Initialize(rootCtx, drawRepo); err != nil {
		logger.Fatalf("期号追踪器初始化失败: %v", err)
	}

	dedupStore := dedup.NewStore(store, keys, cfg.Dedup.SnapshotPath, logger)
	defer dedupStore.Close()
	locks := lock.NewService(store, logger)

	omissionEngine := service.NewOmissionEngine(omissionRepo, drawRepo, cfg.Omission.BootstrapCap, logger)
	dailyEngine := service.NewDailyStatsEngine(dailyRepo, drawRepo, store, keys, logger)

	// 7. 事件总线与订阅者：验证器在派发协程上同步执行，
	// 预测编排与缓存失效各自走协程
	eventBus := bus.New(logger)

	verifier := service.NewVerifier(predRepo, logger)
	eventBus.SubscribeDraw(verifier.OnDrawCommitted)

	llmClient := llm.New(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Proxy:   cfg.LLM.Proxy,
	}, logger)
	orchestrator, err := service.NewOrchestrator(predRepo, drawRepo, llmClient, locks, keys, eventBus, logger)
	if err != nil {
		logger.Fatalf("预测编排器初始化失败: %v", err)
	}
	defer orchestrator.Close()
	eventBus.SubscribeDraw(orchestrator.OnDrawCommitted)

	cacheManager := service.NewCacheManager(store, keys, logger)
	eventBus.SubscribeDraw(func(ctx context.Context, d *model.Draw) {
		go cacheManager.OnDrawCommitted(ctx, d)
	})
	eventBus.SubscribePrediction(cacheManager.OnPredictionCommitted)

	winrate := service.NewWinRateService(predRepo, store, keys, logger)
	eventBus.SubscribeAllPredictionsDone(winrate.RefreshAll)

	eventBus.Start(rootCtx)

	coordinator := service.NewCoordinator(tr, dedupStore, locks, keys, drawRepo, omissionEngine, dailyEngine, eventBus, logger)

	// 8. 采集器启动（多个源竞速，去重漏斗保证单次提交）
	var pollers []*adapter.Poller
	for _, src := range cfg.Sources {
		if src.Disabled {
			continue
		}
		p, err := adapter.NewPoller(adapter.Source{
			Name:     src.Name,
			URL:      src.URL,
			Interval: src.Interval,
			ParserID: src.Parser,
			SkipTLS:  src.SkipTLS,
			Headers:  src.Headers,
		}, func(raw model.RawDraw) {
			coordinator.HandleRaw(rootCtx, raw)
		}, logger)
		if err != nil {
			logger.Fatalf("采集器初始化失败: %v", err)
		}
		p.Start(rootCtx)
		pollers = append(pollers, p)
	}
	logger.Infof("已启动%d个采集器", len(pollers))

	// 9. 定时任务：每日00:05重建前一日统计（吸收跨午夜故障造成的重复计数）
	scheduler := cron.New()
	_, err = scheduler.AddFunc("5 0 * * *", func() {
		yesterday := time.Now().In(model.CSTZone).AddDate(0, 0, -1).Format("2006-01-02")
		if err := dailyEngine.Rebuild(rootCtx, yesterday); err != nil {
			logger.WithError(err).WithField("date", yesterday).Error("前一日统计重建失败")
		}
	})
	if err != nil {
		logger.Fatalf("注册定时任务失败: %v", err)
	}
	scheduler.Start()

	// 10. 配置Gin运行模式与路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	pprof.Register(r)
	logger.Infof("Gin运行模式: %s", cfg.Server.Mode)

	// 请求级超时：普通查询30秒、导出60秒、健康探针5秒，到期返回408
	stdTimeout := api.WithTimeout(api.DefaultTimeout)

	drawHandler := api.NewDrawHandler(readDB, store, keys, logger)
	r.GET("/api/draws/latest", stdTimeout, drawHandler.LatestDraws)
	r.GET("/api/omission", stdTimeout, drawHandler.Omission)
	r.GET("/api/daily-stats", stdTimeout, drawHandler.DailyStats)

	predictionHandler := api.NewPredictionHandler(readDB, winrate, store, keys, logger)
	r.GET("/api/predictions/:type", stdTimeout, predictionHandler.ListPredictions)
	r.GET("/api/winrate/:type", stdTimeout, predictionHandler.WinRate)

	exportHandler := api.NewExportHandler(readDB, store, keys, logger)
	exportTimeout := api.WithTimeout(api.ExportTimeout)
	r.GET("/api/export/draws", exportTimeout, exportHandler.ExportDraws)
	r.GET("/api/export/stats", exportTimeout, exportHandler.ExportStats)

	adminHandler := api.NewAdminHandler(health, dailyEngine, tr, logger)
	r.GET("/health", api.WithTimeout(api.HealthTimeout), adminHandler.Health)
	r.POST("/api/daily-stats/rebuild", stdTimeout, adminHandler.RebuildDailyStats)

	// 11. 启动服务并等待退出信号
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}
	go func() {
		logger.Infof("服务启动成功，端口：%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("启动服务失败: %v", err)
		}
	}()

	<-rootCtx.Done()
	logger.Info("收到退出信号，开始优雅停机")

	// 先停采集（不再有新提交），再停对外服务，最后等事件派发结束
	for _, p := range pollers {
		p.Stop()
	}
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP服务停机超时")
	}
	eventBus.Wait()
	logger.Info("停机完成")
}
