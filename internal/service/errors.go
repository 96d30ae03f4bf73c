package service

import "errors"

// 决策管线的错误分类。除分析服务不可用(内部降级)外,
// 其余全部落到持久化记录的决策/原因码里,审计轨迹不丢失任何一次提交。
var (
	ErrRateLimited         = errors.New("rate limited: retry later")
	ErrValidationFailed    = errors.New("submission failed validation")
	ErrDuplicateDetected   = errors.New("duplicate submission detected")
	ErrAnalyzerUnavailable = errors.New("content analyzer unavailable")
	ErrEmptyPool           = errors.New("candidate pool is empty")
)
