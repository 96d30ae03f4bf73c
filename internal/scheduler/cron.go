package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"community-desk/config"
	"community-desk/internal/service"
)

type Scheduler struct {
	cron          *cron.Cron
	feed          *service.FeedService
	ranking       *service.RankingService
	config        config.CronConfig
	fetchEntryID  cron.EntryID
	selectEntryID cron.EntryID
}

func NewScheduler(feed *service.FeedService, ranking *service.RankingService, cfg config.CronConfig) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		feed:    feed,
		ranking: ranking,
		config:  cfg,
	}
}

func (s *Scheduler) Start() {
	// 内容源抓取任务
	s.fetchEntryID, _ = s.cron.AddFunc(s.config.FetchInterval, func() {
		log.Println("[Cron] Fetching feeds...")
		s.feed.FetchAllFeeds(context.Background())
	})

	// 周度选题任务
	s.selectEntryID, _ = s.cron.AddFunc(s.config.SelectInterval, func() {
		log.Println("[Cron] Running weekly story selection...")
		if _, err := s.ranking.SelectWeekly(); err != nil {
			if errors.Is(err, service.ErrEmptyPool) {
				log.Println("[Cron] 候选池为空,跳过本次选题")
				return
			}
			log.Printf("[Cron] 选题失败: %v", err)
		}
	})

	s.cron.Start()
	log.Printf("[Cron] Scheduler started (fetch: %s, select: %s)", s.config.FetchInterval, s.config.SelectInterval)
}

// GetNextFetchTime 获取下次抓取时间
func (s *Scheduler) GetNextFetchTime() time.Time {
	entry := s.cron.Entry(s.fetchEntryID)
	return entry.Next
}

// GetNextSelectionTime 获取下次选题时间
func (s *Scheduler) GetNextSelectionTime() time.Time {
	entry := s.cron.Entry(s.selectEntryID)
	return entry.Next
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
