package model

import (
	"strings"
	"time"
)

type ContentType string

const (
	TypeArticle   ContentType = "article"
	TypeEvent     ContentType = "event"
	TypeResource  ContentType = "resource"
	TypeMutualAid ContentType = "mutual-aid"
)

// ValidContentType 判断内容类型是否受支持
func ValidContentType(t ContentType) bool {
	switch t {
	case TypeArticle, TypeEvent, TypeResource, TypeMutualAid:
		return true
	}
	return false
}

// RawSubmission 外部提交的原始载荷,未知字段在JSON绑定时直接丢弃
type RawSubmission struct {
	ExternalID  string   `json:"external_id"`
	SourceURL   string   `json:"source_url"`
	ContentType string   `json:"content_type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location"`
	Contact     string   `json:"contact"`
}

// Submission 规范化后的提交内容
type Submission struct {
	ExternalID        string      `json:"external_id"`
	SourceURL         string      `json:"source_url"`
	ContentType       ContentType `json:"content_type"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Body              string      `json:"body"`
	Tags              []string    `json:"tags"`
	Location          string      `json:"location"`
	Contact           string      `json:"contact"`
	SubmitterIdentity string      `json:"submitter_identity"`
	ReceivedAt        time.Time   `json:"received_at"`
}

// CombinedText 合并标题+简介+正文,用于社区准则扫描
func (s *Submission) CombinedText() string {
	return strings.TrimSpace(s.Title + "\n" + s.Description + "\n" + s.Body)
}

// HasTag 检查是否包含指定标签(标签在规范化时已转为小写)
func (s *Submission) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ValidationResult 校验结果
type ValidationResult struct {
	OK         bool       `json:"ok"`
	Normalized Submission `json:"normalized"`
	Violations []string   `json:"violations"`
	Warnings   []string   `json:"warnings"`
}

// DuplicateMatch 命中的重复记录
type DuplicateMatch struct {
	RecordID uint   `json:"record_id"`
	Reason   string `json:"reason"` // source-url / title
	Title    string `json:"title"`
}

// DuplicateResult 去重检查结果
type DuplicateResult struct {
	IsDuplicate bool             `json:"is_duplicate"`
	Matches     []DuplicateMatch `json:"matches"`
}

// JoinList 列表序列化为单列存储
func JoinList(items []string) string {
	return strings.Join(items, ",")
}

// SplitList 单列存储还原为列表
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
