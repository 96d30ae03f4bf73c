package model

import (
	"encoding/json"
	"time"
)

type Decision string

const (
	DecisionAutoApproved Decision = "auto-approved"
	DecisionQueued       Decision = "queued-for-review"
	DecisionRejected     Decision = "rejected"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ModerationRecord 一次提交的最终处理记录。
// Decision在创建时写入一次,之后不再修改;人工复核结果只写Review*字段并追加审计条目。
type ModerationRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// 提交内容(规范化后)
	ExternalID        string      `gorm:"size:255" json:"external_id"`
	SourceURL         string      `gorm:"size:500" json:"source_url"`
	SourceURLNorm     *string     `gorm:"size:500;uniqueIndex" json:"-"`
	ContentType       ContentType `gorm:"size:20;not null" json:"content_type"`
	Title             string      `gorm:"size:500;not null" json:"title"`
	Description       string      `gorm:"type:text" json:"description"`
	Body              string      `gorm:"type:text" json:"body"`
	Tags              string      `gorm:"size:500" json:"tags"`
	Location          string      `gorm:"size:255" json:"location"`
	Contact           string      `gorm:"size:255" json:"contact"`
	SubmitterIdentity string      `gorm:"size:255;index" json:"submitter_identity"`
	ReceivedAt        time.Time   `json:"received_at"`

	// 分析与决策
	AnalysisJSON string   `gorm:"type:text" json:"-"`
	Decision     Decision `gorm:"size:20;not null;index" json:"decision"`
	ReasonCodes  string   `gorm:"size:1000" json:"reason_codes"`
	Category     string   `gorm:"size:50;index" json:"category"`
	Priority     Priority `gorm:"size:10" json:"priority"`
	DuplicateOf  string   `gorm:"size:255" json:"duplicate_of,omitempty"`

	// 人工复核(由复核子系统写入,不覆盖Decision)
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewerID    *string    `gorm:"size:255" json:"reviewer_id,omitempty"`
	ReviewOutcome *string    `gorm:"size:20" json:"review_outcome,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Submission 还原记录中内嵌的提交内容
func (r *ModerationRecord) Submission() Submission {
	return Submission{
		ExternalID:        r.ExternalID,
		SourceURL:         r.SourceURL,
		ContentType:       r.ContentType,
		Title:             r.Title,
		Description:       r.Description,
		Body:              r.Body,
		Tags:              SplitList(r.Tags),
		Location:          r.Location,
		Contact:           r.Contact,
		SubmitterIdentity: r.SubmitterIdentity,
		ReceivedAt:        r.ReceivedAt,
	}
}

// SetAnalysis 序列化分析结果
func (r *ModerationRecord) SetAnalysis(a *ContentAnalysis) {
	if a == nil {
		r.AnalysisJSON = ""
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	r.AnalysisJSON = string(data)
}

// Analysis 反序列化分析结果,记录未经过分析阶段时返回nil
func (r *ModerationRecord) Analysis() *ContentAnalysis {
	if r.AnalysisJSON == "" {
		return nil
	}
	var a ContentAnalysis
	if err := json.Unmarshal([]byte(r.AnalysisJSON), &a); err != nil {
		return nil
	}
	return &a
}

// ReasonCodeList 决策原因码(有序)
func (r *ModerationRecord) ReasonCodeList() []string {
	return SplitList(r.ReasonCodes)
}

// AuditEntry 追加式审计日志,引用记录ID,从不回写原记录的决策字段
type AuditEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RecordID   uint      `gorm:"not null;index" json:"record_id"`
	Action     string    `gorm:"size:50;not null" json:"action"`
	ReviewerID string    `gorm:"size:255" json:"reviewer_id"`
	Note       string    `gorm:"type:text" json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

// PublishedStory 自动发布内容的物化视图。队列记录仍是事实来源,
// 发布视图只是投影,发布规则变化时可以重新推导。
type PublishedStory struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RecordID      uint      `gorm:"not null;uniqueIndex" json:"record_id"`
	Title         string    `gorm:"size:500;not null" json:"title"`
	Category      string    `gorm:"size:50;index" json:"category"`
	Votes         int       `gorm:"default:0" json:"votes"`
	InterestScore float64   `gorm:"default:50" json:"interest_score"`
	PublishedAt   time.Time `json:"published_at"`
}

// WeeklySelection 一次选题运行的持久化结果
type WeeklySelection struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TopID        uint      `json:"top_id"`
	ShortlistIDs string    `gorm:"size:500" json:"shortlist_ids"`
	DiversityIDs string    `gorm:"size:255" json:"diversity_ids"`
	EmergingIDs  string    `gorm:"size:255" json:"emerging_ids"`
	Confidence   float64   `json:"confidence"`
	Reasoning    string    `gorm:"size:1000" json:"reasoning"`
	RanAt        time.Time `json:"ran_at"`
}
