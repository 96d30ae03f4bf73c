package service

import (
	"community-desk/internal/model"
	"community-desk/internal/store"
)

// DedupService 去重检查:先精确匹配规范化链接,再做标题模糊匹配,
// 先命中先停。之前被驳回的记录同样参与匹配——看的是内容同一性,
// 不是上一次的处理结果。
type DedupService struct {
	store *store.Store
}

func NewDedupService(st *store.Store) *DedupService {
	return &DedupService{store: st}
}

// FindDuplicates 对新提交做重复检查
func (s *DedupService) FindDuplicates(sub *model.Submission) (model.DuplicateResult, error) {
	var result model.DuplicateResult

	// 1. 链接精确匹配,置信度最高
	if sub.SourceURL != "" {
		rec, err := s.store.FindByURL(sub.SourceURL)
		if err == nil {
			result.IsDuplicate = true
			result.Matches = append(result.Matches, model.DuplicateMatch{
				RecordID: rec.ID,
				Reason:   "source-url",
				Title:    rec.Title,
			})
			return result, nil
		}
		if err != store.ErrNotFound {
			return result, err
		}
	}

	// 2. 标题模糊匹配(前20字符前缀,互相包含即命中)
	prefix := store.NormalizeTitlePrefix(sub.Title)
	recs, err := s.store.FindByTitlePrefix(prefix)
	if err != nil {
		return result, err
	}
	for _, rec := range recs {
		result.Matches = append(result.Matches, model.DuplicateMatch{
			RecordID: rec.ID,
			Reason:   "title",
			Title:    rec.Title,
		})
	}
	result.IsDuplicate = len(result.Matches) > 0
	return result, nil
}
