package service

import (
	"context"
	"errors"
	"log"

	"github.com/mmcdole/gofeed"
	"gorm.io/gorm"

	"community-desk/internal/model"
)

// FeedService 半可信内容源适配器:把RSS/Atom条目转成标准提交,
// 走完整审核管线——内容源没有绿色通道,限流、校验、去重一样不少。
// 重复抓取同一条目会在去重阶段被挡下,这正是幂等重试的常规路径。
type FeedService struct {
	db       *gorm.DB
	parser   *gofeed.Parser
	pipeline *PipelineService
}

func NewFeedService(db *gorm.DB, pipeline *PipelineService) *FeedService {
	return &FeedService{
		db:       db,
		parser:   gofeed.NewParser(),
		pipeline: pipeline,
	}
}

// FetchFeed 抓取单个内容源,返回新收录(进队列或自动发布)的条数
func (s *FeedService) FetchFeed(ctx context.Context, feed *model.Feed) (int, error) {
	parsed, err := s.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return 0, err
	}

	var accepted int
	for _, item := range parsed.Items {
		raw := model.RawSubmission{
			ExternalID:  item.GUID,
			SourceURL:   item.Link,
			ContentType: string(model.TypeArticle),
			Title:       item.Title,
			Description: item.Description,
			Body:        item.Content,
			Tags:        item.Categories,
		}

		_, err := s.pipeline.Submit(ctx, raw, feed.Identity())
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrDuplicateDetected):
			// 重复条目是刷新时的正常情况,不告警
		case errors.Is(err, ErrRateLimited):
			log.Printf("[Feed] %s 触发限流,本轮提前结束", feed.Name)
			return accepted, nil
		default:
			log.Printf("[Feed] %s 条目处理失败: %v", feed.Name, err)
		}
	}

	return accepted, nil
}

// FetchAllFeeds 抓取所有启用的内容源
func (s *FeedService) FetchAllFeeds(ctx context.Context) error {
	var feeds []model.Feed
	s.db.Where("enabled = ?", true).Find(&feeds)

	for _, feed := range feeds {
		count, err := s.FetchFeed(ctx, &feed)
		if err != nil {
			log.Printf("[Feed] 抓取失败 %s: %v", feed.Name, err)
			continue
		}
		if count > 0 {
			log.Printf("[Feed] %s 新收录 %d 条", feed.Name, count)
		}
	}
	return nil
}
