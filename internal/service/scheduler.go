package service

import (
	"strings"
	"sync"
	"time"
)

// Scheduler 以字串鍵管理一次性的延遲任務
// 每個鍵同一時間最多只有一個待執行任務，重複排程會取代舊任務，
// 房間的每個階段（開局、選詞、倒數、進入下一回合）各自使用固定的鍵，
// 因此狀態轉換時的取消動作天然是冪等的
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Schedule 在 d 之後執行 fn，取代同一鍵下尚未執行的任務
// 任務觸發與 Cancel 之間的競爭以計時器身份比對解決：
// 被取代或取消的計時器即使已經觸發，也不會執行 fn
func (s *Scheduler) Schedule(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[key]; ok {
		old.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.timers[key] != timer {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
	s.timers[key] = timer
}

// Cancel 取消指定鍵的待執行任務，不存在時不做任何事
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
}

// CancelPrefix 取消所有以 prefix 開頭的任務，房間刪除時用來一次清空
func (s *Scheduler) CancelPrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, timer := range s.timers {
		if strings.HasPrefix(key, prefix) {
			timer.Stop()
			delete(s.timers, key)
		}
	}
}

// Pending 回傳指定鍵是否有待執行任務
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.timers[key]
	return ok
}
