package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"community-desk/config"
	"community-desk/internal/model"
	"community-desk/internal/ratelimit"
	"community-desk/internal/service"
	"community-desk/internal/store"
)

// Handler 薄HTTP适配层:只负责绑定请求、调用核心服务、翻译结果,
// 决策逻辑全部在service层
type Handler struct {
	db        *gorm.DB
	store     *store.Store
	pipeline  *service.PipelineService
	feed      *service.FeedService
	analyzer  *service.AnalyzerService
	ranking   *service.RankingService
	status    *service.StatusService
	scheduler interface {
		GetNextFetchTime() time.Time
		GetNextSelectionTime() time.Time
	}
}

func NewHandler(db *gorm.DB, cfg *config.Config) *Handler {
	st := store.New(db)
	limiter := ratelimit.New(
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		cfg.RateLimit.DefaultMax,
		cfg.RateLimit.ClassMax,
	)
	analyzer := service.NewAnalyzerService(db)
	pipeline := service.NewPipelineService(
		limiter,
		service.NewValidatorService(db),
		service.NewDedupService(st),
		analyzer,
		service.NewClassifierService(),
		st,
	)

	return &Handler{
		db:       db,
		store:    st,
		pipeline: pipeline,
		feed:     service.NewFeedService(db, pipeline),
		analyzer: analyzer,
		ranking:  service.NewRankingService(st),
		status:   service.NewStatusService(db),
	}
}

// Pipeline 摄入管线(调度器等外部协作方使用)
func (h *Handler) Pipeline() *service.PipelineService { return h.pipeline }

// Feed 内容源服务
func (h *Handler) Feed() *service.FeedService { return h.feed }

// Ranking 选题服务
func (h *Handler) Ranking() *service.RankingService { return h.ranking }

// SetScheduler 设置调度器引用
func (h *Handler) SetScheduler(scheduler interface {
	GetNextFetchTime() time.Time
	GetNextSelectionTime() time.Time
}) {
	h.scheduler = scheduler
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// 提交入口
		api.POST("/submissions", h.Submit)

		// 审核队列
		api.GET("/queue", h.ListQueue)
		api.GET("/queue/:id", h.GetRecord)
		api.POST("/queue/:id/review", h.ReviewRecord)

		// 发布内容与投票
		api.GET("/stories", h.ListStories)
		api.POST("/stories/:id/vote", h.VoteStory)

		// 选题
		api.POST("/selection/run", h.RunSelection)
		api.GET("/selection/latest", h.LatestSelection)

		// 内容源
		api.GET("/feeds", h.ListFeeds)
		api.POST("/feeds", h.CreateFeed)
		api.DELETE("/feeds/:id", h.DeleteFeed)
		api.POST("/feeds/:id/fetch", h.FetchFeed)

		// 配置
		api.GET("/config", h.GetConfig)
		api.POST("/config", h.SaveConfig)
		api.POST("/analyzer/test", h.TestAnalyzer)

		// 状态
		api.GET("/status", h.GetStatus)
	}
}

// ===== 提交相关 =====

func (h *Handler) Submit(c *gin.Context) {
	var raw model.RawSubmission
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := c.GetHeader("X-Source-Identity")
	if identity == "" {
		identity = "anonymous:" + c.ClientIP()
	}

	rec, err := h.pipeline.Submit(c.Request.Context(), raw, identity)
	switch {
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited, retry later"})
	case errors.Is(err, service.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"record": rec,
		})
	case errors.Is(err, service.ErrDuplicateDetected):
		c.JSON(http.StatusConflict, gin.H{
			"error":  "duplicate submission",
			"record": rec,
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		status := http.StatusAccepted // 进人工队列
		if rec.Decision == model.DecisionAutoApproved {
			status = http.StatusOK
		}
		c.JSON(status, rec)
	}
}

// ===== 队列相关 =====

func (h *Handler) ListQueue(c *gin.Context) {
	decision := model.Decision(c.Query("decision")) // auto-approved, queued-for-review, rejected
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize := 20

	recs, total, err := h.store.ListByDecision(decision, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  recs,
		"total": total,
		"page":  page,
	})
}

func (h *Handler) GetRecord(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	rec, err := h.store.FindByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	audit, _ := h.store.AuditTrail(rec.ID)
	c.JSON(http.StatusOK, gin.H{
		"record": rec,
		"audit":  audit,
	})
}

type reviewRequest struct {
	Outcome    string `json:"outcome" binding:"required,oneof=approved rejected"`
	ReviewerID string `json:"reviewer_id" binding:"required"`
	Note       string `json:"note"`
}

func (h *Handler) ReviewRecord(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.store.UpdateReview(uint(id), req.Outcome, req.ReviewerID, req.Note)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, store.ErrNotReviewable):
		c.JSON(http.StatusConflict, gin.H{"error": "record is not queued for review"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, rec)
	}
}

// ===== 发布内容相关 =====

func (h *Handler) ListStories(c *gin.Context) {
	stories, err := h.store.ListStories(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stories)
}

func (h *Handler) VoteStory(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	if err := h.store.AddVote(uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "story not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "voted"})
}

// ===== 选题相关 =====

func (h *Handler) RunSelection(c *gin.Context) {
	sel, err := h.ranking.SelectWeekly()
	if err != nil {
		if errors.Is(err, service.ErrEmptyPool) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "candidate pool is empty"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sel)
}

func (h *Handler) LatestSelection(c *gin.Context) {
	sel, err := h.store.LatestSelection()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no selection yet"})
		return
	}
	c.JSON(http.StatusOK, sel)
}

// ===== 内容源相关 =====

func (h *Handler) ListFeeds(c *gin.Context) {
	var feeds []model.Feed
	h.db.Find(&feeds)
	c.JSON(http.StatusOK, feeds)
}

func (h *Handler) CreateFeed(c *gin.Context) {
	var feed model.Feed
	if err := c.ShouldBindJSON(&feed); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Create(&feed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, feed)
}

func (h *Handler) DeleteFeed(c *gin.Context) {
	id := c.Param("id")
	h.db.Delete(&model.Feed{}, id)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) FetchFeed(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	var feed model.Feed
	if err := h.db.First(&feed, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
		return
	}

	count, err := h.feed.FetchFeed(c.Request.Context(), &feed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accepted": count})
}

// ===== 配置相关 =====

func (h *Handler) GetConfig(c *gin.Context) {
	var configs []model.Config
	h.db.Find(&configs)

	result := make(map[string]string)
	for _, cfg := range configs {
		result[cfg.Key] = cfg.Value
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) SaveConfig(c *gin.Context) {
	var input map[string]string
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for key, value := range input {
		h.db.Where("key = ?", key).Assign(model.Config{Value: value}).FirstOrCreate(&model.Config{Key: key})
	}

	c.JSON(http.StatusOK, gin.H{"message": "saved"})
}

func (h *Handler) TestAnalyzer(c *gin.Context) {
	response, err := h.analyzer.TestConnection(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "连接成功",
		"response": response,
	})
}

// ===== 状态相关 =====

func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.status.GetSystemStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// 添加定时任务信息
	if h.scheduler != nil {
		status.NextFetchTime = h.scheduler.GetNextFetchTime()
		status.NextSelectionTime = h.scheduler.GetNextSelectionTime()
	}

	c.JSON(http.StatusOK, status)
}
