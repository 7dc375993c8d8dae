package service

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sketch_web/internal/models"
	"sketch_web/pkg/config"
)

// sentEvent 記錄一次出站消息，供測試斷言
type sentEvent struct {
	room   string // 廣播目標房間，單發時為空
	to     string // 單發目標連線，廣播時為空
	except string
	env    models.Envelope
}

// fakeNotifier 以記錄代替實際送出，並模擬連線註冊表
type fakeNotifier struct {
	mu     sync.Mutex
	index  map[string]string
	events []sentEvent
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{index: make(map[string]string)}
}

func (f *fakeNotifier) JoinRoom(connID, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index[connID] = code
}

func (f *fakeNotifier) LeaveRoom(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.index, connID)
}

func (f *fakeNotifier) RoomOf(connID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.index[connID]
	return code, ok
}

func (f *fakeNotifier) BroadcastToRoom(code string, msg models.Envelope) {
	f.record(sentEvent{room: code, env: msg})
}

func (f *fakeNotifier) BroadcastToRoomExcept(code, exceptID string, msg models.Envelope) {
	f.record(sentEvent{room: code, except: exceptID, env: msg})
}

func (f *fakeNotifier) SendToConn(connID string, msg models.Envelope) {
	f.record(sentEvent{to: connID, env: msg})
}

func (f *fakeNotifier) record(ev sentEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

// byType 回傳指定事件類型的所有記錄
func (f *fakeNotifier) byType(eventType string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentEvent
	for _, ev := range f.events {
		if ev.env.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// lastByType 回傳指定事件類型的最後一筆記錄
func (f *fakeNotifier) lastByType(eventType string) (sentEvent, bool) {
	evs := f.byType(eventType)
	if len(evs) == 0 {
		return sentEvent{}, false
	}
	return evs[len(evs)-1], true
}

// sentTo 回傳發給指定連線的所有單發記錄
func (f *fakeNotifier) sentTo(connID string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentEvent
	for _, ev := range f.events {
		if ev.to == connID {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

// decodePayload 解出 payload 供斷言使用
func decodePayload[T any](t *testing.T, env models.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	return v
}

// slowConfig 的計時器長到不會在測試中觸發，回合推進全部手動驅動
func slowConfig() config.GameConfig {
	cfg := config.DefaultGame()
	cfg.StartDelay = time.Hour
	cfg.ChooseTimeout = time.Hour
	cfg.RoundDuration = 80 * time.Second
	cfg.TimeoutGrace = time.Hour
	cfg.GuessedGrace = time.Hour
	return cfg
}

func newTestService(cfg config.GameConfig) (*RoomService, *fakeNotifier) {
	notifier := newFakeNotifier()
	svc := NewRoomService(notifier, cfg)
	return svc, notifier
}

// setupRoom 建立一個三人房間，回傳房間代碼與依加入順序排列的連線 ID
func setupRoom(t *testing.T, svc *RoomService) (string, []string) {
	t.Helper()
	svc.HandleCreateRoom("c1", models.CreateRoomPayload{Code: "ABC123", Name: "Alice", Rounds: 6})
	svc.HandleJoinRoom("c2", models.JoinRoomPayload{Code: "ABC123", Name: "Bob"})
	svc.HandleJoinRoom("c3", models.JoinRoomPayload{Code: "ABC123", Name: "Carol"})

	_, ok := svc.GetRoom("ABC123")
	require.True(t, ok)
	return "ABC123", []string{"c1", "c2", "c3"}
}
