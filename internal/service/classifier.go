package service

import (
	"strings"

	"community-desk/internal/model"
)

// 自动发布阈值(严格大于)
const (
	autoApproveAlignment = 0.8
	autoApproveRelevance = 0.7
	lowPriorityRelevance = 0.4
)

// 带动员/组织属性的标签 -> organizing类别
var organizingTags = []string{"organizing", "mobilization", "action", "protest", "campaign"}

// ClassifierService 由校验+分析结果推导类别、优先级与发布决策。
// 这里只在"自动发布"和"进队列"之间二选一:驳回只会发生在校验/去重阶段,
// 不安全或无效的内容被拒,安全但未验证的内容排队等人工。
type ClassifierService struct{}

func NewClassifierService() *ClassifierService {
	return &ClassifierService{}
}

// Classify 决策一条已通过校验和去重的提交
func (s *ClassifierService) Classify(sub *model.Submission, analysis *model.ContentAnalysis, warnings []string) model.Classification {
	cls := model.Classification{
		Category: s.category(sub),
		Priority: s.priority(sub, analysis),
	}

	// 全部条件同时成立才自动发布,任何一条不满足都转人工队列
	if analysis.Failed() {
		cls.ReasonCodes = append(cls.ReasonCodes, model.FlagAnalysisFailed)
	}
	if !(analysis.CommunityAlignment > autoApproveAlignment) {
		cls.ReasonCodes = append(cls.ReasonCodes, "alignment-below-threshold")
	}
	if !(analysis.Relevance > autoApproveRelevance) {
		cls.ReasonCodes = append(cls.ReasonCodes, "relevance-below-threshold")
	}
	if !analysis.Safety.TraumaInformed {
		cls.ReasonCodes = append(cls.ReasonCodes, "not-trauma-informed")
	}
	if !analysis.Safety.AntiOppression {
		cls.ReasonCodes = append(cls.ReasonCodes, "anti-oppression-unverified")
	}

	cls.AutoApprove = len(cls.ReasonCodes) == 0
	if cls.AutoApprove {
		cls.ReasonCodes = append(cls.ReasonCodes, "meets-auto-approval-thresholds")
	}

	// 校验阶段的warning一并带进原因码,保证可审计
	cls.ReasonCodes = append(cls.ReasonCodes, warnings...)
	return cls
}

// category 内容类型映射类别,动员类标签优先
func (s *ClassifierService) category(sub *model.Submission) string {
	for _, t := range organizingTags {
		if sub.HasTag(t) {
			return "organizing"
		}
	}
	switch sub.ContentType {
	case model.TypeEvent:
		return "events"
	case model.TypeResource:
		return "resources"
	case model.TypeMutualAid:
		return "mutual-aid"
	default:
		return "news"
	}
}

// priority 优先级规则:互助类紧急标记 > 动员类/已验证来源 > 低相关 > 默认
func (s *ClassifierService) priority(sub *model.Submission, analysis *model.ContentAnalysis) model.Priority {
	if sub.ContentType == model.TypeMutualAid &&
		(sub.HasTag("critical") || sub.HasTag("urgent") || analysis.Safety.HasFlag("time-critical")) {
		return model.PriorityUrgent
	}
	if s.category(sub) == "organizing" || strings.HasPrefix(sub.SubmitterIdentity, "verified:") {
		return model.PriorityHigh
	}
	if analysis.Relevance < lowPriorityRelevance {
		return model.PriorityLow
	}
	return model.PriorityMedium
}
