package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-desk/internal/model"
)

func TestAnalyzeSuccess(t *testing.T) {
	db := newTestDB(t)
	srv := newAnalyzerServer(t, goodAnalysis())
	defer srv.Close()
	setConfig(t, db, model.ConfigAnalyzerApiURL, srv.URL)

	a := NewAnalyzerService(db)
	analysis := a.Analyze(context.Background(), &model.Submission{Title: "T", Body: "b", ContentType: model.TypeArticle})

	assert.False(t, analysis.Failed())
	assert.Equal(t, 0.8, analysis.Relevance)
	assert.True(t, analysis.Safety.TraumaInformed)
}

func TestAnalyzeClampsScores(t *testing.T) {
	db := newTestDB(t)
	out := goodAnalysis()
	out.Relevance = 1.7
	out.QualityScore = -0.4
	srv := newAnalyzerServer(t, out)
	defer srv.Close()
	setConfig(t, db, model.ConfigAnalyzerApiURL, srv.URL)

	a := NewAnalyzerService(db)
	analysis := a.Analyze(context.Background(), &model.Submission{Title: "T", ContentType: model.TypeArticle})

	assert.Equal(t, 1.0, analysis.Relevance)
	assert.Equal(t, 0.0, analysis.QualityScore)
}

func TestAnalyzeFallbackPaths(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string // 返回API地址
	}{
		{
			name: "未配置地址",
			setup: func(t *testing.T) string {
				return ""
			},
		},
		{
			name: "服务端5xx",
			setup: func(t *testing.T) string {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
				}))
				t.Cleanup(srv.Close)
				return srv.URL
			},
		},
		{
			name: "响应损坏",
			setup: func(t *testing.T) string {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte("not json at all"))
				}))
				t.Cleanup(srv.Close)
				return srv.URL
			},
		},
		{
			name: "连接失败",
			setup: func(t *testing.T) string {
				return "http://127.0.0.1:1"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			if url := tt.setup(t); url != "" {
				setConfig(t, db, model.ConfigAnalyzerApiURL, url)
			}

			a := NewAnalyzerService(db)
			analysis := a.Analyze(context.Background(), &model.Submission{Title: "T", ContentType: model.TypeArticle})

			// 确定性降级:打标且质量分压低,下游不可能自动发布
			assert.True(t, analysis.Failed())
			assert.Equal(t, model.FallbackAnalysis(), analysis)
		})
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	db := newTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()
	setConfig(t, db, model.ConfigAnalyzerApiURL, srv.URL)
	setConfig(t, db, model.ConfigAnalyzerTimeout, "1")

	a := NewAnalyzerService(db)
	start := time.Now()
	analysis := a.Analyze(context.Background(), &model.Submission{Title: "T", ContentType: model.TypeArticle})

	assert.True(t, analysis.Failed())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTestConnection(t *testing.T) {
	db := newTestDB(t)
	a := NewAnalyzerService(db)

	_, err := a.TestConnection(context.Background())
	require.Error(t, err)

	srv := newAnalyzerServer(t, goodAnalysis())
	defer srv.Close()
	setConfig(t, db, model.ConfigAnalyzerApiURL, srv.URL)

	msg, err := a.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "relevance=0.80")
}
