package model

import "time"

type Config struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"size:100;uniqueIndex;not null"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time
}

// 预定义配置键
const (
	ConfigAnalyzerApiURL  = "analyzer_api_url"
	ConfigAnalyzerApiKey  = "analyzer_api_key"
	ConfigAnalyzerTimeout = "analyzer_timeout_seconds"
	ConfigTermsDenylist   = "terms_denylist"
	ConfigTermsTriggers   = "terms_trauma_triggers"
)
