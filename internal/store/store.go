package store

import (
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/purell"
	"gorm.io/gorm"

	"community-desk/internal/model"
)

var (
	ErrDuplicateKey  = errors.New("duplicate key: source url already claimed")
	ErrNotFound      = errors.New("record not found")
	ErrNotReviewable = errors.New("record is not queued for review")
)

// Store 审核记录的持久化边界。管线只依赖这组窄接口,不关心底层引擎。
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// NormalizeURL 链接规范化:去协议差异、去www、去fragment、统一小写,
// 同一内容的不同写法收敛成同一个键
func NormalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	clean, err := purell.NormalizeURLString(strings.TrimSpace(raw),
		purell.FlagsUsuallySafeGreedy|purell.FlagRemoveFragment|purell.FlagRemoveWWW|purell.FlagRemoveDuplicateSlashes|purell.FlagSortQuery)
	if err != nil {
		clean = strings.TrimSpace(raw)
	}
	clean = strings.ToLower(clean)
	clean = strings.TrimPrefix(clean, "https://")
	clean = strings.TrimPrefix(clean, "http://")
	return strings.TrimSuffix(clean, "/")
}

// NormalizeTitlePrefix 标题模糊匹配用的前缀(前20个字符,小写)
func NormalizeTitlePrefix(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	runes := []rune(t)
	if len(runes) > 20 {
		runes = runes[:20]
	}
	return strings.TrimSpace(string(runes))
}

// Insert 写入新记录。source_url_norm上有唯一索引,两条提交抢占同一链接时
// 只有一条能成功,输家拿到ErrDuplicateKey后按重复处理。
func (s *Store) Insert(rec *model.ModerationRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// FindByURL 按规范化链接查找已有记录
func (s *Store) FindByURL(rawURL string) (*model.ModerationRecord, error) {
	norm := NormalizeURL(rawURL)
	if norm == "" {
		return nil, ErrNotFound
	}
	var rec model.ModerationRecord
	err := s.db.Where("source_url_norm = ?", norm).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindByTitlePrefix 标题模糊匹配:已有标题包含前缀,或本身被前缀包含
func (s *Store) FindByTitlePrefix(prefix string) ([]model.ModerationRecord, error) {
	if prefix == "" {
		return nil, nil
	}
	var recs []model.ModerationRecord
	err := s.db.
		Where("lower(title) LIKE ? OR ? LIKE '%' || lower(title) || '%'", "%"+prefix+"%", prefix).
		Find(&recs).Error
	return recs, err
}

// FindByID 按ID查找
func (s *Store) FindByID(id uint) (*model.ModerationRecord, error) {
	var rec model.ModerationRecord
	err := s.db.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByDecision 分页查询队列,decision为空时返回全部
func (s *Store) ListByDecision(decision model.Decision, page, pageSize int) ([]model.ModerationRecord, int64, error) {
	query := s.db.Model(&model.ModerationRecord{})
	if decision != "" {
		query = query.Where("decision = ?", decision)
	}

	var total int64
	query.Count(&total)

	var recs []model.ModerationRecord
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&recs).Error
	return recs, total, err
}

// UpdateReview 记录人工复核结果:只写Review*字段并追加审计条目,
// 原始Decision永不回写。仅允许复核排队中的记录。
func (s *Store) UpdateReview(id uint, outcome, reviewerID, note string) (*model.ModerationRecord, error) {
	var rec model.ModerationRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if rec.Decision != model.DecisionQueued {
			return ErrNotReviewable
		}

		now := time.Now()
		rec.ReviewedAt = &now
		rec.ReviewerID = &reviewerID
		rec.ReviewOutcome = &outcome
		if err := tx.Model(&rec).Select("ReviewedAt", "ReviewerID", "ReviewOutcome").Updates(&rec).Error; err != nil {
			return err
		}

		return tx.Create(&model.AuditEntry{
			RecordID:   rec.ID,
			Action:     "review-" + outcome,
			ReviewerID: reviewerID,
			Note:       note,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// AuditTrail 某条记录的审计日志
func (s *Store) AuditTrail(recordID uint) ([]model.AuditEntry, error) {
	var entries []model.AuditEntry
	err := s.db.Where("record_id = ?", recordID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}

// PublishRecord 把自动发布的记录物化成发布视图(投影,不替代队列记录)
func (s *Store) PublishRecord(rec *model.ModerationRecord) (*model.PublishedStory, error) {
	story := model.PublishedStory{
		RecordID:      rec.ID,
		Title:         rec.Title,
		Category:      rec.Category,
		InterestScore: 50,
		PublishedAt:   time.Now(),
	}
	result := s.db.Where("record_id = ?", rec.ID).FirstOrCreate(&story)
	if result.Error != nil {
		return nil, result.Error
	}
	return &story, nil
}

// AddVote 社区投票:单条UPDATE原子累加,兴趣分每票+2封顶100
func (s *Store) AddVote(storyID uint) error {
	result := s.db.Model(&model.PublishedStory{}).
		Where("id = ?", storyID).
		Updates(map[string]interface{}{
			"votes":          gorm.Expr("votes + 1"),
			"interest_score": gorm.Expr("min(interest_score + 2, 100)"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStories 发布视图列表
func (s *Store) ListStories(limit int) ([]model.PublishedStory, error) {
	var stories []model.PublishedStory
	err := s.db.Order("published_at DESC").Limit(limit).Find(&stories).Error
	return stories, err
}

// CuratorReputation 由提交者历史推导的信誉分:通过加分、驳回扣分,
// 无历史的新提交者默认50
func (s *Store) CuratorReputation(identity string) float64 {
	var approved, rejected int64
	s.db.Model(&model.ModerationRecord{}).
		Where("submitter_identity = ? AND decision = ?", identity, model.DecisionAutoApproved).
		Count(&approved)
	s.db.Model(&model.ModerationRecord{}).
		Where("submitter_identity = ? AND decision = ?", identity, model.DecisionRejected).
		Count(&rejected)

	rep := 50 + float64(approved)*10 - float64(rejected)*15
	if rep < 0 {
		return 0
	}
	if rep > 100 {
		return 100
	}
	return rep
}

// CandidatePool 选题候选池:已自动发布/排队中的记录,
// 发布视图里的票数与兴趣分并入候选
func (s *Store) CandidatePool() ([]model.RankingCandidate, error) {
	var recs []model.ModerationRecord
	err := s.db.
		Where("decision IN ?", []model.Decision{model.DecisionAutoApproved, model.DecisionQueued}).
		Order("created_at DESC").
		Limit(200).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	// 发布视图按record_id索引
	var stories []model.PublishedStory
	if err := s.db.Find(&stories).Error; err != nil {
		return nil, err
	}
	byRecord := make(map[uint]*model.PublishedStory, len(stories))
	for i := range stories {
		byRecord[stories[i].RecordID] = &stories[i]
	}

	candidates := make([]model.RankingCandidate, 0, len(recs))
	for _, rec := range recs {
		c := model.RankingCandidate{
			ID:                     rec.ID,
			Category:               rec.Category,
			SubmittedAt:            rec.ReceivedAt,
			CommunityInterestScore: 50,
			RelevanceScore:         50,
			CuratorID:              rec.SubmitterIdentity,
			CuratorReputation:      s.CuratorReputation(rec.SubmitterIdentity),
		}
		if a := rec.Analysis(); a != nil {
			c.RelevanceScore = a.Relevance * 100
		}
		if story := byRecord[rec.ID]; story != nil {
			c.TotalVotes = story.Votes
			c.CommunityInterestScore = story.InterestScore
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// RecentCategoryCounts 近期(7天)各类别的发布数量,供多样性指标使用
func (s *Store) RecentCategoryCounts() (map[string]int, error) {
	since := time.Now().AddDate(0, 0, -7)
	var rows []struct {
		Category string
		N        int
	}
	err := s.db.Model(&model.PublishedStory{}).
		Select("category, count(*) as n").
		Where("published_at > ?", since).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.N
	}
	return counts, nil
}

// SaveSelection 持久化一次选题结果
func (s *Store) SaveSelection(sel *model.WeeklySelection) error {
	return s.db.Create(sel).Error
}

// LatestSelection 最近一次选题结果
func (s *Store) LatestSelection() (*model.WeeklySelection, error) {
	var sel model.WeeklySelection
	err := s.db.Order("ran_at DESC").First(&sel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sel, nil
}
