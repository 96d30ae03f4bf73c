package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"community-desk/config"
	"community-desk/internal/handler"
	"community-desk/internal/model"
	"community-desk/internal/scheduler"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化数据库
	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect database:", err)
	}

	// 自动迁移
	db.AutoMigrate(
		&model.ModerationRecord{},
		&model.AuditEntry{},
		&model.PublishedStory{},
		&model.WeeklySelection{},
		&model.Feed{},
		&model.Config{},
	)

	// 初始化默认配置
	initDefaultConfig(db)

	// 初始化服务与路由
	gin.SetMode(cfg.Server.Mode)
	h := handler.NewHandler(db, cfg)

	// 启动定时任务
	sched := scheduler.NewScheduler(h.Feed(), h.Ranking(), cfg.Cron)
	sched.Start()
	defer sched.Stop()
	h.SetScheduler(sched)

	// 初始化Gin
	r := gin.Default()
	h.RegisterRoutes(r)

	// 启动服务
	log.Println("Server starting on", cfg.GetServerAddress())
	r.Run(cfg.GetServerAddress())
}

func initDefaultConfig(db *gorm.DB) {
	defaults := map[string]string{
		model.ConfigAnalyzerApiURL:  "",
		model.ConfigAnalyzerApiKey:  "",
		model.ConfigAnalyzerTimeout: "5",
		model.ConfigTermsDenylist:   "illegals,vermin,subhuman,thugs,degenerates",
		model.ConfigTermsTriggers:   "suicide,self-harm,overdose,sexual assault,domestic violence",
	}

	for key, value := range defaults {
		db.Where("key = ?", key).FirstOrCreate(&model.Config{Key: key, Value: value})
	}
}
