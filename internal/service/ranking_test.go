package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-desk/internal/model"
	"community-desk/internal/store"
)

var rankNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newRanker(t *testing.T) *RankingService {
	t.Helper()
	s := NewRankingService(store.New(newTestDB(t)))
	s.SetClock(func() time.Time { return rankNow })
	return s
}

// candidate 12小时前提交(新鲜度峰值窗口),信誉80
func candidate(id uint, category string, interest float64, votes int) model.RankingCandidate {
	return model.RankingCandidate{
		ID:                     id,
		Category:               category,
		SubmittedAt:            rankNow.Add(-12 * time.Hour),
		CommunityInterestScore: interest,
		TotalVotes:             votes,
		RelevanceScore:         70,
		CuratorID:              fmt.Sprintf("member:%d", id),
		CuratorReputation:      80,
	}
}

func TestSelectEmptyPool(t *testing.T) {
	s := newRanker(t)
	_, err := s.Select(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestSelectSingleCandidate(t *testing.T) {
	s := newRanker(t)
	sel, err := s.Select([]model.RankingCandidate{candidate(1, "news", 60, 10)}, nil)
	require.NoError(t, err)

	assert.Equal(t, uint(1), sel.Top.Candidate.ID)
	assert.Empty(t, sel.Shortlist)
	// 单候选置信度固定95
	assert.Equal(t, float64(95), sel.Confidence)
	assert.NotEmpty(t, sel.Reasoning)
}

func TestSelectDeterministic(t *testing.T) {
	s := newRanker(t)
	pool := []model.RankingCandidate{
		candidate(1, "news", 80, 30),
		candidate(2, "events", 60, 10),
		candidate(3, "mutual-aid", 70, 20),
	}

	first, err := s.Select(pool, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.Select(pool, nil)
		require.NoError(t, err)
		assert.Equal(t, first.Top.Candidate.ID, again.Top.Candidate.ID)
		assert.Equal(t, first.Confidence, again.Confidence)
	}
}

func TestInterestVoteDiscount(t *testing.T) {
	s := newRanker(t)

	// 票数4→5跨过折扣线:60*0.7=42 → 60
	few := candidate(1, "news", 60, 4)
	enough := candidate(2, "news", 60, 5)

	sel, err := s.Select([]model.RankingCandidate{few, enough}, nil)
	require.NoError(t, err)

	assert.Equal(t, uint(2), sel.Top.Candidate.ID)
	assert.Equal(t, float64(60), sel.Top.Metrics.Interest)
	assert.Equal(t, float64(42), sel.Shortlist[0].Metrics.Interest)
}

func TestInterestVoteBoosts(t *testing.T) {
	s := newRanker(t)

	sel, err := s.Select([]model.RankingCandidate{candidate(1, "news", 80, 250)}, nil)
	require.NoError(t, err)
	// 50/100/200各+5
	assert.Equal(t, float64(95), sel.Top.Metrics.Interest)
}

func TestFreshnessCurve(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want float64
	}{
		{2 * time.Hour, 70},
		{12 * time.Hour, 100},
		{48 * time.Hour, 80},
		{5 * 24 * time.Hour, 50},
		{10 * 24 * time.Hour, 25},
		{30 * 24 * time.Hour, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, freshnessScore(tt.age), "age=%v", tt.age)
	}
}

func TestShortlistSize(t *testing.T) {
	s := newRanker(t)
	var pool []model.RankingCandidate
	for i := 1; i <= 12; i++ {
		pool = append(pool, candidate(uint(i), "news", float64(40+i*4), 10))
	}

	sel, err := s.Select(pool, nil)
	require.NoError(t, err)
	// 候补是第2到第8名
	assert.Len(t, sel.Shortlist, 7)
	assert.Equal(t, uint(12), sel.Top.Candidate.ID)
}

func TestDiversityPicksEmptyWhenNothingUnderrepresented(t *testing.T) {
	s := newRanker(t)
	// 全部同类:头条+候补已覆盖唯一类别,没有可补的
	pool := []model.RankingCandidate{
		candidate(1, "education", 80, 10),
		candidate(2, "education", 70, 10),
		candidate(3, "education", 60, 10),
	}

	sel, err := s.Select(pool, nil)
	require.NoError(t, err)
	assert.Empty(t, sel.DiversityPicks)
}

func TestDiversityPicks(t *testing.T) {
	s := newRanker(t)
	var pool []model.RankingCandidate
	for i := 1; i <= 8; i++ {
		pool = append(pool, candidate(uint(i), "news", float64(50+i*5), 10))
	}
	// 排名第9的小众类别候选
	arts := candidate(9, "arts", 30, 10)
	pool = append(pool, arts)

	// arts类别近期零发布 → 多样性100,入选
	sel, err := s.Select(pool, nil)
	require.NoError(t, err)
	require.Len(t, sel.DiversityPicks, 1)
	assert.Equal(t, uint(9), sel.DiversityPicks[0].Candidate.ID)
	assert.Equal(t, float64(100), sel.DiversityPicks[0].Metrics.Diversity)

	// arts近期已有3次发布 → 多样性20,不入选
	sel, err = s.Select(pool, map[string]int{"arts": 3})
	require.NoError(t, err)
	assert.Empty(t, sel.DiversityPicks)
}

func TestEmergingVoices(t *testing.T) {
	s := newRanker(t)

	veteran := candidate(1, "news", 95, 60)
	newcomer := candidate(2, "events", 90, 10)
	newcomer.CuratorReputation = 40
	quiet := candidate(3, "mutual-aid", 30, 0)
	quiet.CuratorReputation = 40

	sel, err := s.Select([]model.RankingCandidate{veteran, newcomer, quiet}, nil)
	require.NoError(t, err)

	// 信誉≤60且综合分≥70才算新声音;低分的不入选
	require.Len(t, sel.EmergingVoices, 1)
	assert.Equal(t, uint(2), sel.EmergingVoices[0].Candidate.ID)
}

func TestConfidenceVoteBonus(t *testing.T) {
	s := newRanker(t)

	strong := candidate(1, "news", 90, 120)
	weak := candidate(2, "events", 40, 1)

	sel, err := s.Select([]model.RankingCandidate{strong, weak}, nil)
	require.NoError(t, err)

	// 分差大+票数过百:置信度顶到100
	assert.Equal(t, float64(100), sel.Confidence)

	// 两个几乎平手的低票候选:置信度贴近下限
	close1 := candidate(3, "news", 50, 10)
	close2 := candidate(4, "news", 50, 10)
	close2.SubmittedAt = close2.SubmittedAt.Add(-time.Minute)
	sel, err = s.Select([]model.RankingCandidate{close1, close2}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 60, sel.Confidence, 1)
}

func TestTieBreakByRecency(t *testing.T) {
	s := newRanker(t)

	older := candidate(1, "news", 60, 10)
	older.SubmittedAt = rankNow.Add(-20 * time.Hour)
	newer := candidate(2, "news", 60, 10)
	newer.SubmittedAt = rankNow.Add(-8 * time.Hour)

	sel, err := s.Select([]model.RankingCandidate{older, newer}, nil)
	require.NoError(t, err)
	// 综合分相同,较新的提交在前
	assert.Equal(t, uint(2), sel.Top.Candidate.ID)
}

func TestReasoningNeverEmpty(t *testing.T) {
	s := newRanker(t)

	// 刻意构造所有指标都平庸的候选
	dull := candidate(1, "news", 40, 10)
	dull.RelevanceScore = 40
	dull.CuratorReputation = 50
	dull.SubmittedAt = rankNow.Add(-30 * 24 * time.Hour)

	dull2 := candidate(2, "news", 35, 8)
	dull2.RelevanceScore = 40
	dull2.CuratorReputation = 50
	dull2.SubmittedAt = rankNow.Add(-31 * 24 * time.Hour)

	sel, err := s.Select([]model.RankingCandidate{dull, dull2}, map[string]int{"news": 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"balanced scoring across all factors"}, sel.Reasoning)
}

func TestSelectWeekly(t *testing.T) {
	db := newTestDB(t)
	st := store.New(db)
	s := NewRankingService(st)

	_, err := s.SelectWeekly()
	assert.ErrorIs(t, err, ErrEmptyPool)

	rec := &model.ModerationRecord{
		Title: "Approved Story", ContentType: model.TypeArticle, Category: "news",
		SubmitterIdentity: "member:a", Decision: model.DecisionAutoApproved,
		ReceivedAt: time.Now().Add(-12 * time.Hour),
	}
	rec.SetAnalysis(&model.ContentAnalysis{Relevance: 0.9})
	require.NoError(t, st.Insert(rec))

	sel, err := s.SelectWeekly()
	require.NoError(t, err)
	assert.Equal(t, rec.ID, sel.Top.Candidate.ID)

	// 结果已落库
	latest, err := st.LatestSelection()
	require.NoError(t, err)
	assert.Equal(t, rec.ID, latest.TopID)
	assert.Equal(t, float64(95), latest.Confidence)
}
