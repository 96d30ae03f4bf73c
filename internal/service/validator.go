package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"community-desk/internal/keyword"
	"community-desk/internal/model"
)

// 默认词条,可被DB配置覆盖
var (
	defaultDenylist = []string{
		"illegals", "vermin", "subhuman", "thugs", "degenerates",
	}
	defaultTriggers = []string{
		"suicide", "self-harm", "overdose", "sexual assault", "domestic violence",
	}
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// ValidatorService 结构校验 + 社区准则筛查。
// 压迫性语言命中即violation,整体拒绝;创伤触发词未加内容预警只记warning,
// 不拦截,但会带进决策原因码。
type ValidatorService struct {
	db       *gorm.DB
	validate *validator.Validate
}

// normalizedInput validator/v10的结构规则挂在这里
type normalizedInput struct {
	Title       string `validate:"required,max=500"`
	ContentType string `validate:"required,oneof=article event resource mutual-aid"`
}

func NewValidatorService(db *gorm.DB) *ValidatorService {
	return &ValidatorService{
		db:       db,
		validate: validator.New(),
	}
}

// Validate 规范化并校验一次原始提交
func (s *ValidatorService) Validate(raw model.RawSubmission, identity string) model.ValidationResult {
	sub := s.normalize(raw, identity)
	result := model.ValidationResult{Normalized: sub}

	// 结构校验
	input := normalizedInput{Title: sub.Title, ContentType: string(sub.ContentType)}
	if err := s.validate.Struct(input); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				switch fe.Field() {
				case "Title":
					result.Violations = append(result.Violations, "missing-title")
				case "ContentType":
					result.Violations = append(result.Violations, "unknown-content-type")
				}
			}
		} else {
			result.Violations = append(result.Violations, "invalid-payload")
		}
	}

	if sub.Description == "" && sub.Body == "" {
		result.Violations = append(result.Violations, "missing-description-and-body")
	}

	// 活动类内容:地点和联系方式都缺是violation,不只是warning
	if sub.ContentType == model.TypeEvent && sub.Location == "" && sub.Contact == "" {
		result.Violations = append(result.Violations, "event-missing-location-and-contact")
	}

	// 社区准则筛查
	text := sub.CombinedText()
	for _, term := range keyword.MatchTerms(text, s.denylist()) {
		result.Violations = append(result.Violations, fmt.Sprintf("oppressive-language:%s", term))
	}
	if matched := keyword.MatchTerms(text, s.triggerTerms()); len(matched) > 0 && !keyword.HasContentWarning(text) {
		result.Warnings = append(result.Warnings, "trauma-trigger-no-content-warning")
	}

	result.OK = len(result.Violations) == 0
	return result
}

// normalize 把任意形状的输入收敛到固定Submission形状,多余字段一律丢弃
func (s *ValidatorService) normalize(raw model.RawSubmission, identity string) model.Submission {
	tagSeen := make(map[string]bool)
	var tags []string
	for _, t := range raw.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || tagSeen[t] {
			continue
		}
		tagSeen[t] = true
		tags = append(tags, t)
	}

	return model.Submission{
		ExternalID:        strings.TrimSpace(raw.ExternalID),
		SourceURL:         strings.TrimSpace(raw.SourceURL),
		ContentType:       model.ContentType(strings.ToLower(strings.TrimSpace(raw.ContentType))),
		Title:             collapseSpace(raw.Title),
		Description:       collapseSpace(stripHTML(raw.Description)),
		Body:              collapseSpace(stripHTML(raw.Body)),
		Tags:              tags,
		Location:          collapseSpace(raw.Location),
		Contact:           collapseSpace(raw.Contact),
		SubmitterIdentity: identity,
		ReceivedAt:        time.Now(),
	}
}

// stripHTML 提交正文可能带HTML,只保留纯文本
func stripHTML(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	return doc.Text()
}

func collapseSpace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// denylist 压迫性语言词条,DB配置优先
func (s *ValidatorService) denylist() []string {
	return s.terms(model.ConfigTermsDenylist, defaultDenylist)
}

// triggerTerms 创伤触发词条
func (s *ValidatorService) triggerTerms() []string {
	return s.terms(model.ConfigTermsTriggers, defaultTriggers)
}

func (s *ValidatorService) terms(key string, fallback []string) []string {
	if s.db == nil {
		return fallback
	}
	var cfg model.Config
	if err := s.db.Where("key = ?", key).First(&cfg).Error; err != nil || cfg.Value == "" {
		return fallback
	}
	var terms []string
	for _, t := range strings.Split(cfg.Value, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return fallback
	}
	return terms
}
