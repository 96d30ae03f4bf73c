package service

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"community-desk/internal/model"
	"community-desk/internal/ratelimit"
	"community-desk/internal/store"
)

// PipelineService 单条提交的端到端处理:
// received → validated → dedup-checked → analyzed → classified → persisted。
// 限流拒绝不落库(不算内容决策);校验失败和重复都落库驳回,保留审计轨迹;
// 其余提交经分析+分类后落为 auto-approved 或 queued-for-review。
type PipelineService struct {
	limiter    *ratelimit.Limiter
	validator  *ValidatorService
	dedup      *DedupService
	analyzer   *AnalyzerService
	classifier *ClassifierService
	store      *store.Store
}

func NewPipelineService(limiter *ratelimit.Limiter, validator *ValidatorService, dedup *DedupService,
	analyzer *AnalyzerService, classifier *ClassifierService, st *store.Store) *PipelineService {
	return &PipelineService{
		limiter:    limiter,
		validator:  validator,
		dedup:      dedup,
		analyzer:   analyzer,
		classifier: classifier,
		store:      st,
	}
}

// Submit 处理一次提交。返回的记录即持久化结果;
// ErrRateLimited时无记录,ErrValidationFailed/ErrDuplicateDetected时记录为驳回。
func (s *PipelineService) Submit(ctx context.Context, raw model.RawSubmission, identity string) (*model.ModerationRecord, error) {
	// received → 限流
	if !s.limiter.Allow(identity) {
		return nil, ErrRateLimited
	}

	// → validated
	vr := s.validator.Validate(raw, identity)
	if !vr.OK {
		rec := s.buildRecord(&vr.Normalized, model.DecisionRejected, append(vr.Violations, vr.Warnings...))
		rec.SourceURLNorm = urlNormPtr(vr.Normalized.SourceURL)
		err := s.insert(rec)
		if err == store.ErrDuplicateKey {
			// 链接已被先前的记录占用,驳回记录不再抢占槽位
			rec.SourceURLNorm = nil
			err = s.insert(rec)
		}
		if err != nil {
			return rec, err
		}
		return rec, ErrValidationFailed
	}
	sub := vr.Normalized

	// → dedup-checked
	dup, err := s.dedup.FindDuplicates(&sub)
	if err != nil {
		return nil, fmt.Errorf("dedup check: %w", err)
	}
	if dup.IsDuplicate {
		rec := s.rejectAsDuplicate(&sub, dup.Matches)
		if err := s.insert(rec); err != nil {
			return rec, err
		}
		return rec, ErrDuplicateDetected
	}

	// → analyzed(失败内部降级,不中断)
	analysis := s.analyzer.Analyze(ctx, &sub)

	// → classified
	cls := s.classifier.Classify(&sub, &analysis, vr.Warnings)

	decision := model.DecisionQueued
	if cls.AutoApprove {
		decision = model.DecisionAutoApproved
	}

	rec := s.buildRecord(&sub, decision, cls.ReasonCodes)
	rec.SetAnalysis(&analysis)
	rec.Category = cls.Category
	rec.Priority = cls.Priority
	rec.SourceURLNorm = urlNormPtr(sub.SourceURL)

	// → persisted。唯一索引兜底并发抢占:输家改判重复
	if err := s.insert(rec); err == store.ErrDuplicateKey {
		winner, ferr := s.store.FindByURL(sub.SourceURL)
		if ferr != nil {
			return nil, fmt.Errorf("duplicate claim lost but winner not found: %w", ferr)
		}
		rec = s.rejectAsDuplicate(&sub, []model.DuplicateMatch{
			{RecordID: winner.ID, Reason: "source-url", Title: winner.Title},
		})
		if err := s.insert(rec); err != nil {
			return rec, err
		}
		return rec, ErrDuplicateDetected
	} else if err != nil {
		return nil, err
	}

	// 提交后副作用:失败只记日志,绝不回改已持久化的决策
	if decision == model.DecisionAutoApproved {
		s.postCommit(rec)
	}

	return rec, nil
}

// buildRecord 构造持久化记录
func (s *PipelineService) buildRecord(sub *model.Submission, decision model.Decision, reasons []string) *model.ModerationRecord {
	return &model.ModerationRecord{
		ExternalID:        sub.ExternalID,
		SourceURL:         sub.SourceURL,
		ContentType:       sub.ContentType,
		Title:             sub.Title,
		Description:       sub.Description,
		Body:              sub.Body,
		Tags:              model.JoinList(sub.Tags),
		Location:          sub.Location,
		Contact:           sub.Contact,
		SubmitterIdentity: sub.SubmitterIdentity,
		ReceivedAt:        sub.ReceivedAt,
		Decision:          decision,
		ReasonCodes:       model.JoinList(reasons),
		Priority:          model.PriorityMedium,
	}
}

// rejectAsDuplicate 重复驳回记录:引用命中的记录ID,链接槽位留给原记录
func (s *PipelineService) rejectAsDuplicate(sub *model.Submission, matches []model.DuplicateMatch) *model.ModerationRecord {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strconv.FormatUint(uint64(m.RecordID), 10))
	}
	rec := s.buildRecord(sub, model.DecisionRejected, []string{"duplicate"})
	rec.DuplicateOf = model.JoinList(ids)
	return rec
}

func (s *PipelineService) insert(rec *model.ModerationRecord) error {
	return s.store.Insert(rec)
}

// postCommit 自动发布的投影物化。队列记录仍是事实来源。
func (s *PipelineService) postCommit(rec *model.ModerationRecord) {
	if _, err := s.store.PublishRecord(rec); err != nil {
		log.Printf("[Pipeline] 发布投影失败 record=%d: %v", rec.ID, err)
		return
	}
	log.Printf("[Pipeline] auto-approved and published: record=%d title=%q", rec.ID, rec.Title)
}

// urlNormPtr 空链接不占唯一索引槽位(sqlite里多个NULL可共存,多个''不行)
func urlNormPtr(rawURL string) *string {
	norm := store.NormalizeURL(rawURL)
	if norm == "" {
		return nil
	}
	return &norm
}
