package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Limiter 按来源身份做固定窗口计数限流。
// 不同接入类别(身份前缀)可以配不同配额;窗口到期计数归零;
// 超限的请求不改变已有计数。进程重启后状态丢失,默认放行——
// 社区系统里可用性优先于严格限流。
type Limiter struct {
	mu         sync.Mutex
	window     time.Duration
	defaultMax int
	classMax   map[string]int // 身份前缀 -> 每窗口上限
	counts     map[string]*windowCount
	now        func() time.Time
}

type windowCount struct {
	start time.Time
	count int
}

func New(window time.Duration, defaultMax int, classMax map[string]int) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if defaultMax <= 0 {
		defaultMax = 30
	}
	return &Limiter{
		window:     window,
		defaultMax: defaultMax,
		classMax:   classMax,
		counts:     make(map[string]*windowCount),
		now:        time.Now,
	}
}

// SetClock 注入时钟,测试用
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// maxFor 按身份前缀解析配额,如 "feed:community-times" 匹配 "feed"
func (l *Limiter) maxFor(identity string) int {
	if i := strings.Index(identity, ":"); i > 0 {
		if max, ok := l.classMax[identity[:i]]; ok {
			return max
		}
	}
	return l.defaultMax
}

// Allow 判断该身份当前是否放行。计数读改写在同一把锁内完成,无丢失更新。
func (l *Limiter) Allow(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	wc, ok := l.counts[identity]
	if !ok || now.Sub(wc.start) >= l.window {
		l.counts[identity] = &windowCount{start: now, count: 1}
		return true
	}

	if wc.count >= l.maxFor(identity) {
		return false
	}
	wc.count++
	return true
}
