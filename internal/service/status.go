package service

import (
	"time"

	"gorm.io/gorm"

	"community-desk/internal/model"
)

type StatusService struct {
	db *gorm.DB
}

type SystemStatus struct {
	// 审核队列统计
	TotalRecords    int64 `json:"total_records"`
	AutoApproved    int64 `json:"auto_approved"`
	QueuedForReview int64 `json:"queued_for_review"`
	Rejected        int64 `json:"rejected"`
	Published       int64 `json:"published"`

	// 内容源统计
	TotalFeeds   int64 `json:"total_feeds"`
	EnabledFeeds int64 `json:"enabled_feeds"`

	// 定时任务信息
	NextFetchTime     time.Time `json:"next_fetch_time"`
	NextSelectionTime time.Time `json:"next_selection_time"`
}

func NewStatusService(db *gorm.DB) *StatusService {
	return &StatusService{db: db}
}

// GetSystemStatus 获取系统状态
func (s *StatusService) GetSystemStatus() (*SystemStatus, error) {
	status := &SystemStatus{}

	// 统计审核记录
	s.db.Model(&model.ModerationRecord{}).Count(&status.TotalRecords)
	s.db.Model(&model.ModerationRecord{}).Where("decision = ?", model.DecisionAutoApproved).Count(&status.AutoApproved)
	s.db.Model(&model.ModerationRecord{}).Where("decision = ?", model.DecisionQueued).Count(&status.QueuedForReview)
	s.db.Model(&model.ModerationRecord{}).Where("decision = ?", model.DecisionRejected).Count(&status.Rejected)
	s.db.Model(&model.PublishedStory{}).Count(&status.Published)

	// 统计内容源
	s.db.Model(&model.Feed{}).Count(&status.TotalFeeds)
	s.db.Model(&model.Feed{}).Where("enabled = ?", true).Count(&status.EnabledFeeds)

	return status, nil
}
