package model

import "time"

// RankingCandidate 参与选题的候选内容,来自已决策的队列/发布记录快照。
// CuratorReputation由提交者历史推导,无历史时默认50。
type RankingCandidate struct {
	ID                     uint      `json:"id"`
	Category               string    `json:"category"`
	SubmittedAt            time.Time `json:"submitted_at"`
	CommunityInterestScore float64   `json:"community_interest_score"` // 0..100
	TotalVotes             int       `json:"total_votes"`
	RelevanceScore         float64   `json:"relevance_score"` // 0..100
	CuratorID              string    `json:"curator_id"`
	CuratorReputation      float64   `json:"curator_reputation"` // 0..100
}

// CandidateMetrics 各项归一化指标(0..100),不落库
type CandidateMetrics struct {
	Interest          float64 `json:"interest"`
	Relevance         float64 `json:"relevance"`
	Freshness         float64 `json:"freshness"`
	CuratorReputation float64 `json:"curator_reputation"`
	Diversity         float64 `json:"diversity"`
	Engagement        float64 `json:"engagement"`
}

// ScoredCandidate 候选+指标+加权综合分
type ScoredCandidate struct {
	Candidate      RankingCandidate `json:"candidate"`
	Metrics        CandidateMetrics `json:"metrics"`
	CompositeScore float64          `json:"composite_score"`
}

// Selection 一次选题的完整输出
type Selection struct {
	Top            ScoredCandidate   `json:"top"`
	Shortlist      []ScoredCandidate `json:"shortlist"`
	DiversityPicks []ScoredCandidate `json:"diversity_picks"`
	EmergingVoices []ScoredCandidate `json:"emerging_voices"`
	Confidence     float64           `json:"confidence"`
	Reasoning      []string          `json:"reasoning"`
}

// Classification 分类引擎输出
type Classification struct {
	Category    string   `json:"category"`
	Priority    Priority `json:"priority"`
	AutoApprove bool     `json:"auto_approve"`
	ReasonCodes []string `json:"reason_codes"`
}
