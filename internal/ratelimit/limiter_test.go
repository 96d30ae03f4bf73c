package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testClock(start time.Time) (func() time.Time, func(d time.Duration)) {
	var mu sync.Mutex
	now := start
	tick := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}
	return tick, advance
}

func TestAllowWithinWindow(t *testing.T) {
	l := New(time.Minute, 3, nil)
	clock, _ := testClock(time.Now())
	l.SetClock(clock)

	// 窗口内第N+1次被拒
	assert.True(t, l.Allow("member:alice"))
	assert.True(t, l.Allow("member:alice"))
	assert.True(t, l.Allow("member:alice"))
	assert.False(t, l.Allow("member:alice"))
	// 被拒的请求不影响已有计数,继续拒
	assert.False(t, l.Allow("member:alice"))

	// 其他身份不受影响
	assert.True(t, l.Allow("member:bob"))
}

func TestWindowExpiryResets(t *testing.T) {
	l := New(time.Minute, 2, nil)
	clock, advance := testClock(time.Now())
	l.SetClock(clock)

	assert.True(t, l.Allow("feed:times"))
	assert.True(t, l.Allow("feed:times"))
	assert.False(t, l.Allow("feed:times"))

	// 窗口到期后第一次请求放行
	advance(61 * time.Second)
	assert.True(t, l.Allow("feed:times"))
}

func TestClassLimits(t *testing.T) {
	l := New(time.Minute, 30, map[string]int{"feed": 2})
	clock, _ := testClock(time.Now())
	l.SetClock(clock)

	// feed前缀走20/2档配额
	assert.True(t, l.Allow("feed:x"))
	assert.True(t, l.Allow("feed:x"))
	assert.False(t, l.Allow("feed:x"))

	// 未知前缀走默认配额
	for i := 0; i < 30; i++ {
		assert.True(t, l.Allow("member:y"))
	}
	assert.False(t, l.Allow("member:y"))
}

func TestConcurrentAllow(t *testing.T) {
	l := New(time.Minute, 100, nil)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("member:racer")
		}()
	}
	wg.Wait()
	close(allowed)

	var count int
	for ok := range allowed {
		if ok {
			count++
		}
	}
	// 无丢失更新:恰好放行100
	assert.Equal(t, 100, count)
}
