package model

// FlagAnalysisFailed 分析服务不可用时写入的安全标记
const FlagAnalysisFailed = "analysis-failed"

// SafetyAssessment 内容安全评估
type SafetyAssessment struct {
	TraumaInformed bool     `json:"traumaInformed"`
	CommunitySafe  bool     `json:"communitySafe"`
	AntiOppression bool     `json:"antiOppression"`
	Flags          []string `json:"flags"`
}

// HasFlag 检查安全标记
func (s *SafetyAssessment) HasFlag(flag string) bool {
	for _, f := range s.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// ContentAnalysis 外部分析服务的结构化输出,所有分值限定在[0,1]
type ContentAnalysis struct {
	Relevance          float64          `json:"relevance"`
	CommunityAlignment float64          `json:"communityAlignment"`
	QualityScore       float64          `json:"qualityScore"`
	Safety             SafetyAssessment `json:"safety"`
	DuplicateScore     float64          `json:"duplicateScore"`
	SuggestedTags      []string         `json:"suggestedTags"`
}

// Failed 是否为降级分析结果
func (a *ContentAnalysis) Failed() bool {
	return a.Safety.HasFlag(FlagAnalysisFailed)
}

// Clamp 将所有标量分值收敛到[0,1]
func (a *ContentAnalysis) Clamp() {
	a.Relevance = clamp01(a.Relevance)
	a.CommunityAlignment = clamp01(a.CommunityAlignment)
	a.QualityScore = clamp01(a.QualityScore)
	a.DuplicateScore = clamp01(a.DuplicateScore)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FallbackAnalysis 分析服务不可用时的确定性降级结果。
// 质量分压到0.3,保证该路径永远无法自动发布,只能进人工队列。
func FallbackAnalysis() ContentAnalysis {
	return ContentAnalysis{
		Relevance:          0.5,
		CommunityAlignment: 0.6,
		QualityScore:       0.3,
		Safety: SafetyAssessment{
			TraumaInformed: false,
			CommunitySafe:  false,
			AntiOppression: false,
			Flags:          []string{FlagAnalysisFailed},
		},
		DuplicateScore: 0,
	}
}
