package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"community-desk/internal/model"
)

// AnalyzerService 外部内容分析服务的客户端。
// 服务不可用/超时/响应损坏时统一走降级策略:返回保守的中段分值并打上
// analysis-failed标记,该路径永远进人工队列,不会自动发布。
type AnalyzerService struct {
	db     *gorm.DB
	client *http.Client
}

// AnalyzerConfig 分析服务配置(存DB,可在线修改)
type AnalyzerConfig struct {
	ApiURL  string
	ApiKey  string
	Timeout time.Duration
}

// AnalyzeRequest 分析请求载荷
type AnalyzeRequest struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
}

func NewAnalyzerService(db *gorm.DB) *AnalyzerService {
	return &AnalyzerService{
		db:     db,
		client: &http.Client{},
	}
}

// GetConfig 获取分析服务配置
func (s *AnalyzerService) GetConfig() *AnalyzerConfig {
	configs := make(map[string]string)
	var items []model.Config
	s.db.Find(&items)

	for _, item := range items {
		configs[item.Key] = item.Value
	}

	timeout := 5 * time.Second
	if v, err := strconv.Atoi(configs[model.ConfigAnalyzerTimeout]); err == nil && v > 0 {
		timeout = time.Duration(v) * time.Second
	}

	return &AnalyzerConfig{
		ApiURL:  configs[model.ConfigAnalyzerApiURL],
		ApiKey:  configs[model.ConfigAnalyzerApiKey],
		Timeout: timeout,
	}
}

// Analyze 调用分析服务,带超时。任何失败都降级,不向上抛错。
func (s *AnalyzerService) Analyze(ctx context.Context, sub *model.Submission) model.ContentAnalysis {
	analysis, err := s.analyze(ctx, sub)
	if err != nil {
		log.Printf("[Analyzer] 分析失败,使用降级结果: %v", err)
		return model.FallbackAnalysis()
	}
	analysis.Clamp()
	return analysis
}

func (s *AnalyzerService) analyze(ctx context.Context, sub *model.Submission) (model.ContentAnalysis, error) {
	var analysis model.ContentAnalysis

	cfg := s.GetConfig()
	if cfg.ApiURL == "" {
		return analysis, fmt.Errorf("%w: API地址未配置", ErrAnalyzerUnavailable)
	}

	reqBody := AnalyzeRequest{
		Title:       sub.Title,
		Body:        sub.Description + "\n\n" + sub.Body,
		URL:         sub.SourceURL,
		ContentType: string(sub.ContentType),
	}
	jsonBody, _ := json.Marshal(reqBody)

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST",
		cfg.ApiURL+"/analyze", bytes.NewBuffer(jsonBody))
	if err != nil {
		return analysis, fmt.Errorf("%w: %v", ErrAnalyzerUnavailable, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if cfg.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.ApiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return analysis, fmt.Errorf("%w: %v", ErrAnalyzerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return analysis, fmt.Errorf("%w: API返回错误 %d", ErrAnalyzerUnavailable, resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &analysis); err != nil {
		return analysis, fmt.Errorf("%w: 解析响应失败 %v", ErrAnalyzerUnavailable, err)
	}

	return analysis, nil
}

// TestConnection 测试分析服务连接
func (s *AnalyzerService) TestConnection(ctx context.Context) (string, error) {
	cfg := s.GetConfig()

	if cfg.ApiURL == "" {
		return "", fmt.Errorf("API地址未配置")
	}

	sample := model.Submission{
		Title:       "connection test",
		Body:        "ping",
		ContentType: model.TypeArticle,
	}
	analysis, err := s.analyze(ctx, &sample)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("relevance=%.2f alignment=%.2f", analysis.Relevance, analysis.CommunityAlignment), nil
}
