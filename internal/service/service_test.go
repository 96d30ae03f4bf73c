package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"community-desk/internal/model"
	"community-desk/internal/ratelimit"
	"community-desk/internal/store"
)

// 测试共用的内存库与服务装配

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.ModerationRecord{},
		&model.AuditEntry{},
		&model.PublishedStory{},
		&model.WeeklySelection{},
		&model.Feed{},
		&model.Config{},
	))
	return db
}

func setConfig(t *testing.T, db *gorm.DB, key, value string) {
	t.Helper()
	require.NoError(t, db.Where("key = ?", key).
		Assign(model.Config{Value: value}).
		FirstOrCreate(&model.Config{Key: key}).Error)
}

// goodAnalysis 满足全部自动发布条件的分析结果
func goodAnalysis() model.ContentAnalysis {
	return model.ContentAnalysis{
		Relevance:          0.8,
		CommunityAlignment: 0.9,
		QualityScore:       0.85,
		Safety: model.SafetyAssessment{
			TraumaInformed: true,
			CommunitySafe:  true,
			AntiOppression: true,
		},
	}
}

// newAnalyzerServer 返回固定分析结果的假分析服务
func newAnalyzerServer(t *testing.T, analysis model.ContentAnalysis) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analyze", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(analysis)
	}))
}

// newTestPipeline 完整装配一条管线,limiter配额给足避免误伤
func newTestPipeline(t *testing.T, db *gorm.DB) (*PipelineService, *store.Store) {
	t.Helper()
	st := store.New(db)
	limiter := ratelimit.New(0, 1000, nil)
	pipeline := NewPipelineService(
		limiter,
		NewValidatorService(db),
		NewDedupService(st),
		NewAnalyzerService(db),
		NewClassifierService(),
		st,
	)
	return pipeline, st
}
