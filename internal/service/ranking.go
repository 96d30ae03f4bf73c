package service

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"time"

	"community-desk/internal/model"
	"community-desk/internal/store"
)

// 综合分固定权重
const (
	weightInterest   = 0.35
	weightRelevance  = 0.20
	weightFreshness  = 0.15
	weightReputation = 0.10
	weightDiversity  = 0.10
	weightEngagement = 0.10
)

// RankingService 周度选题:对候选池逐项计算归一化指标,
// 加权合成综合分后产出头条、候补、多样性与新声音名单。
// 纯批量计算,不改任何审核决策,可与摄入管线并发运行。
type RankingService struct {
	store *store.Store
	now   func() time.Time
}

func NewRankingService(st *store.Store) *RankingService {
	return &RankingService{store: st, now: time.Now}
}

// SetClock 注入时钟,测试用
func (s *RankingService) SetClock(now func() time.Time) {
	s.now = now
}

// Select 对候选快照做一次确定性选题。候选池为空是调用方错误。
func (s *RankingService) Select(candidates []model.RankingCandidate, recentCategoryCounts map[string]int) (*model.Selection, error) {
	if len(candidates) == 0 {
		return nil, ErrEmptyPool
	}
	now := s.now()

	scored := make([]model.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		m := s.metrics(c, recentCategoryCounts, now)
		scored = append(scored, model.ScoredCandidate{
			Candidate: c,
			Metrics:   m,
			CompositeScore: m.Interest*weightInterest +
				m.Relevance*weightRelevance +
				m.Freshness*weightFreshness +
				m.CuratorReputation*weightReputation +
				m.Diversity*weightDiversity +
				m.Engagement*weightEngagement,
		})
	}

	// 综合分降序,平分时更新的提交在前
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].CompositeScore != scored[j].CompositeScore {
			return scored[i].CompositeScore > scored[j].CompositeScore
		}
		return scored[i].Candidate.SubmittedAt.After(scored[j].Candidate.SubmittedAt)
	})

	sel := &model.Selection{Top: scored[0]}
	end := len(scored)
	if end > 8 {
		end = 8
	}
	sel.Shortlist = scored[1:end]

	// 头条+候补已覆盖的类别
	represented := map[string]bool{sel.Top.Candidate.Category: true}
	for _, sc := range sel.Shortlist {
		represented[sc.Candidate.Category] = true
	}

	// 多样性名单:未覆盖类别、多样性指标≥70,按排名取,至多3条
	for _, sc := range scored[end:] {
		if len(sel.DiversityPicks) >= 3 {
			break
		}
		if represented[sc.Candidate.Category] || sc.Metrics.Diversity < 70 {
			continue
		}
		represented[sc.Candidate.Category] = true
		sel.DiversityPicks = append(sel.DiversityPicks, sc)
	}

	// 新声音名单:信誉≤60但综合分≥70,按排名取,至多2条(头条除外)
	for _, sc := range scored[1:] {
		if len(sel.EmergingVoices) >= 2 {
			break
		}
		if sc.Candidate.CuratorReputation <= 60 && sc.CompositeScore >= 70 {
			sel.EmergingVoices = append(sel.EmergingVoices, sc)
		}
	}

	sel.Confidence = s.confidence(scored)
	sel.Reasoning = s.reasoning(sel)
	return sel, nil
}

// metrics 单候选的全部归一化指标(0..100)
func (s *RankingService) metrics(c model.RankingCandidate, recentCategoryCounts map[string]int, now time.Time) model.CandidateMetrics {
	return model.CandidateMetrics{
		Interest:          interestScore(c),
		Relevance:         clamp100(c.RelevanceScore),
		Freshness:         freshnessScore(now.Sub(c.SubmittedAt)),
		CuratorReputation: clamp100(c.CuratorReputation),
		Diversity:         diversityScore(recentCategoryCounts[c.Category]),
		Engagement:        engagementScore(c),
	}
}

// interestScore 社区兴趣:50/100/200票各+5,票数不足5打7折
func interestScore(c model.RankingCandidate) float64 {
	score := c.CommunityInterestScore
	for _, threshold := range []int{50, 100, 200} {
		if c.TotalVotes >= threshold {
			score += 5
		}
	}
	if c.TotalVotes < 5 {
		score *= 0.7
	}
	return clamp100(score)
}

// freshnessScore 6-24小时是峰值窗口,之后分段衰减,下限10
func freshnessScore(age time.Duration) float64 {
	h := age.Hours()
	switch {
	case h < 6:
		return 70
	case h <= 24:
		return 100
	case h <= 72:
		return 80
	case h <= 24*7:
		return 50
	case h <= 24*14:
		return 25
	default:
		return 10
	}
}

// diversityScore 近期该类别发布越多,分越低
func diversityScore(recentCount int) float64 {
	switch recentCount {
	case 0:
		return 100
	case 1:
		return 70
	case 2:
		return 40
	default:
		return 20
	}
}

// engagementScore 兴趣分与票数的合成参与度
func engagementScore(c model.RankingCandidate) float64 {
	votes := float64(c.TotalVotes)
	if votes > 100 {
		votes = 100
	}
	return clamp100(0.6*c.CommunityInterestScore + 0.4*votes)
}

// confidence 头两名分差越大越有把握;头条票数过50/100各+10;收敛到[50,100]
func (s *RankingService) confidence(scored []model.ScoredCandidate) float64 {
	if len(scored) == 1 {
		return 95
	}
	conf := 60 + 2*(scored[0].CompositeScore-scored[1].CompositeScore)
	if scored[0].Candidate.TotalVotes >= 50 {
		conf += 10
	}
	if scored[0].Candidate.TotalVotes >= 100 {
		conf += 10
	}
	if conf < 50 {
		return 50
	}
	if conf > 100 {
		return 100
	}
	return math.Round(conf*10) / 10
}

// reasoning 选题依据的平白说明,保证非空
func (s *RankingService) reasoning(sel *model.Selection) []string {
	var reasons []string
	m := sel.Top.Metrics
	if m.Interest >= 80 {
		reasons = append(reasons, "high community interest")
	}
	if m.Freshness >= 90 {
		reasons = append(reasons, "published in the peak freshness window")
	}
	if m.Diversity >= 70 {
		reasons = append(reasons, "covers underrepresented topic")
	}
	if m.CuratorReputation >= 80 {
		reasons = append(reasons, "trusted curator track record")
	}
	if len(sel.EmergingVoices) > 0 {
		reasons = append(reasons, "emerging voices highlighted")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "balanced scoring across all factors")
	}
	return reasons
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// SelectWeekly 从持久层取候选快照跑一次选题并落库。
// 由调度器按周触发,也可通过API手动触发。
func (s *RankingService) SelectWeekly() (*model.Selection, error) {
	candidates, err := s.store.CandidatePool()
	if err != nil {
		return nil, fmt.Errorf("load candidate pool: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrEmptyPool
	}

	recent, err := s.store.RecentCategoryCounts()
	if err != nil {
		return nil, fmt.Errorf("load recent category counts: %w", err)
	}

	sel, err := s.Select(candidates, recent)
	if err != nil {
		return nil, err
	}

	record := &model.WeeklySelection{
		TopID:        sel.Top.Candidate.ID,
		ShortlistIDs: model.JoinList(candidateIDs(sel.Shortlist)),
		DiversityIDs: model.JoinList(candidateIDs(sel.DiversityPicks)),
		EmergingIDs:  model.JoinList(candidateIDs(sel.EmergingVoices)),
		Confidence:   sel.Confidence,
		Reasoning:    model.JoinList(sel.Reasoning),
		RanAt:        s.now(),
	}
	if err := s.store.SaveSelection(record); err != nil {
		return nil, fmt.Errorf("save selection: %w", err)
	}

	log.Printf("[Ranking] weekly selection done: top=%d confidence=%.1f", record.TopID, sel.Confidence)
	return sel, nil
}

func candidateIDs(scored []model.ScoredCandidate) []string {
	ids := make([]string, 0, len(scored))
	for _, sc := range scored {
		ids = append(ids, strconv.FormatUint(uint64(sc.Candidate.ID), 10))
	}
	return ids
}
