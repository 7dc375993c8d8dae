package service

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"

	"sketch_web/internal/models"
	"sketch_web/internal/utils"
	"sketch_web/pkg/config"
)

// Notifier 是服務層對外送消息的出口，由 WebSocketManager 實作
// 它同時負責維護連線與房間的對應關係（連線註冊表），
// 測試中以記錄消息的假實作取代
type Notifier interface {
	JoinRoom(connID, code string)
	LeaveRoom(connID string)
	RoomOf(connID string) (string, bool)
	BroadcastToRoom(code string, msg models.Envelope)
	BroadcastToRoomExcept(code, exceptID string, msg models.Envelope)
	SendToConn(connID string, msg models.Envelope)
}

// RoomService 管理所有房間與遊戲進行
// 房間表由 mu 保護，單一房間內的狀態由該房間自己的 Mutex 序列化，
// 事件處理與計時器回呼都遵守同一把鎖，房間之間互不影響
type RoomService struct {
	mu       sync.RWMutex
	rooms    map[string]*models.Room
	notifier Notifier
	sched    *Scheduler
	words    *WordBank
	cfg      config.GameConfig

	// 測試中覆寫以控制計分的經過時間與倒數節拍
	now  func() time.Time
	tick time.Duration
}

func NewRoomService(notifier Notifier, cfg config.GameConfig) *RoomService {
	return &RoomService{
		rooms:    make(map[string]*models.Room),
		notifier: notifier,
		sched:    NewScheduler(),
		words:    NewWordBank(),
		cfg:      cfg,
		now:      time.Now,
		tick:     time.Second,
	}
}

// GetRoom 依代碼查詢房間
func (s *RoomService) GetRoom(code string) (*models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[code]
	return room, ok
}

// RoomCount 回傳目前的房間數
func (s *RoomService) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.rooms)
}

// HandleCreateRoom 處理 createRoom 事件
// 代碼正規化為大寫後檢查格式與重複，回合數收斂到設定的上下限之間
func (s *RoomService) HandleCreateRoom(connID string, p models.CreateRoomPayload) {
	code, ok := utils.NormalizeRoomCode(p.Code)
	if !ok {
		s.notifier.SendToConn(connID, models.NewErrorMessage(ErrInvalidRoomCode.Error()))
		return
	}

	rounds := s.clampRounds(p.Rounds)

	s.mu.Lock()
	if _, exists := s.rooms[code]; exists {
		s.mu.Unlock()
		s.notifier.SendToConn(connID, models.NewErrorMessage(ErrRoomExists.Error()))
		return
	}
	room := models.NewRoom(code, rounds)
	s.rooms[code] = room
	s.mu.Unlock()

	log.Printf("room %s created (%d rounds)", code, rounds)
	s.joinPlayer(room, connID, p.Name)
}

// HandleJoinRoom 處理 joinRoom 事件
func (s *RoomService) HandleJoinRoom(connID string, p models.JoinRoomPayload) {
	code, _ := utils.NormalizeRoomCode(p.Code)

	room, ok := s.GetRoom(code)
	if !ok {
		s.notifier.SendToConn(connID, models.NewErrorMessage(ErrRoomNotFound.Error()))
		return
	}

	s.joinPlayer(room, connID, p.Name)
}

// joinPlayer 將連線加入房間並廣播名單
// 滿員與房間存活的檢查跟加入在同一個臨界區內，
// 最後一個名額只會放行一條連線，已銷毀的房間不再收人；
// 人數第一次達到兩人時排定首回合，gameStarted 閂鎖保證只排一次
func (s *RoomService) joinPlayer(room *models.Room, connID, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Guest"
	}

	room.Mutex.Lock()
	if room.Status == models.RoomStatusFinished {
		room.Mutex.Unlock()
		s.notifier.SendToConn(connID, models.NewErrorMessage(ErrRoomNotFound.Error()))
		return
	}
	if room.PlayerCount() >= s.cfg.MaxPlayers {
		room.Mutex.Unlock()
		s.notifier.SendToConn(connID, models.NewErrorMessage(ErrRoomFull.Error()))
		return
	}
	player := &models.Player{ID: connID, Name: name}
	room.AddPlayer(player)
	s.notifier.JoinRoom(connID, room.Code)

	code := room.Code
	maxRounds := room.MaxRounds
	roster := room.PlayerList()
	shouldStart := room.PlayerCount() >= 2 && !room.GameStarted
	if shouldStart {
		room.GameStarted = true
	}
	room.Mutex.Unlock()

	s.notifier.SendToConn(connID, models.NewEnvelope(models.EventRoomJoined, models.RoomJoinedPayload{
		Code:      code,
		Players:   roster,
		MaxRounds: maxRounds,
	}))
	s.notifier.BroadcastToRoom(code, models.NewEnvelope(models.EventUpdatePlayers, models.PlayersPayload{Players: roster}))
	s.notifier.BroadcastToRoom(code, models.NewSystemMessage(name+" joined!"))

	if shouldStart {
		s.sched.Schedule(code+"/advance", s.cfg.StartDelay, func() { s.nextRound(code) })
	}
}

// HandleDisconnect 處理連線關閉
// 空房間立即刪除，畫者離線時取消本回合計時並於短暫緩衝後換人
func (s *RoomService) HandleDisconnect(connID string) {
	code, ok := s.notifier.RoomOf(connID)
	if !ok {
		return
	}
	s.notifier.LeaveRoom(connID)

	room, ok := s.GetRoom(code)
	if !ok {
		return
	}

	room.Mutex.Lock()
	player := room.RemovePlayer(connID)
	if player == nil {
		room.Mutex.Unlock()
		return
	}
	wasDrawer := room.CurrentDrawer == connID
	empty := room.PlayerCount() == 0
	roster := room.PlayerList()
	room.Mutex.Unlock()

	if empty {
		s.destroyRoom(code)
		return
	}

	s.notifier.BroadcastToRoom(code, models.NewSystemMessage(player.Name+" left"))
	s.notifier.BroadcastToRoom(code, models.NewEnvelope(models.EventUpdatePlayers, models.PlayersPayload{Players: roster}))

	if wasDrawer {
		s.sched.Cancel(code + "/choose")
		s.sched.Cancel(code + "/tick")
		s.sched.Schedule(code+"/advance", s.cfg.GuessedGrace, func() { s.nextRound(code) })
	}
}

// destroyRoom 取消房間所有待執行任務並從房間表移除
// 殘留的註冊表項目一併清掉，已觸發的過期回呼會因查不到房間而自然落空
func (s *RoomService) destroyRoom(code string) {
	s.sched.CancelPrefix(code + "/")

	s.mu.Lock()
	room, ok := s.rooms[code]
	delete(s.rooms, code)
	s.mu.Unlock()
	if !ok {
		return
	}

	room.Mutex.Lock()
	members := append([]string(nil), room.Order...)
	room.Status = models.RoomStatusFinished
	room.Mutex.Unlock()

	for _, id := range members {
		s.notifier.LeaveRoom(id)
	}
	log.Printf("room %s removed", code)
}

// clampRounds 將請求的回合數收斂到 [MinRounds, MaxRounds]
// 缺漏或非數值輸入使用預設值
func (s *RoomService) clampRounds(v any) int {
	if v == nil {
		return s.cfg.DefaultRounds
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return s.cfg.DefaultRounds
	}
	if n < s.cfg.MinRounds {
		return s.cfg.MinRounds
	}
	if n > s.cfg.MaxRounds {
		return s.cfg.MaxRounds
	}
	return n
}
