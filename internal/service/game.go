package service

import (
	"log"
	"strings"
	"time"

	"sketch_web/internal/models"
)

// nextRound 推進回合：輪到下一位畫者並發出候選詞
// 回合數超過上限時結束遊戲；房間已無人或已刪除時不做任何事
func (s *RoomService) nextRound(code string) {
	room, ok := s.GetRoom(code)
	if !ok {
		return
	}

	room.Mutex.Lock()
	room.Round++
	if room.Round > room.MaxRounds {
		room.Mutex.Unlock()
		s.endGame(code)
		return
	}
	if room.PlayerCount() == 0 {
		room.Mutex.Unlock()
		return
	}

	drawerID := room.Order[room.DrawerIndex%len(room.Order)]
	room.CurrentDrawer = drawerID
	room.CurrentWord = ""
	room.GuessedPlayers = make(map[string]bool)
	room.RoundStartTime = time.Time{}
	room.Status = models.RoomStatusChoosing
	room.WordChoices = s.words.Pick(3)
	room.DrawerIndex++

	round := room.Round
	maxRounds := room.MaxRounds
	drawerName := room.Players[drawerID].Name
	choices := append([]string(nil), room.WordChoices...)
	room.Mutex.Unlock()

	s.notifier.BroadcastToRoom(code, models.NewEnvelope(models.EventNewRound, models.NewRoundPayload{
		Round:      round,
		MaxRounds:  maxRounds,
		DrawerID:   drawerID,
		DrawerName: drawerName,
	}))
	s.notifier.BroadcastToRoom(code, models.Envelope{Type: models.EventClearCanvas})
	s.notifier.BroadcastToRoom(code, models.NewEnvelope(models.EventWordHint, models.WordHintPayload{Hint: "Waiting for drawer..."}))
	s.notifier.SendToConn(drawerID, models.NewEnvelope(models.EventYourTurn, models.WordChoicesPayload{Words: choices}))

	s.sched.Schedule(code+"/choose", s.cfg.ChooseTimeout, func() { s.autoSelectWord(code, round) })
}

// HandleChooseWord 處理畫者在時限內選詞
func (s *RoomService) HandleChooseWord(connID, word string) {
	code, ok := s.notifier.RoomOf(connID)
	if !ok || word == "" {
		return
	}
	room, ok := s.GetRoom(code)
	if !ok {
		return
	}

	room.Mutex.Lock()
	if room.CurrentDrawer != connID || room.CurrentWord != "" {
		room.Mutex.Unlock()
		return
	}
	s.sched.Cancel(code + "/choose")
	round := s.lockWordLocked(room, word)
	room.Mutex.Unlock()

	s.notifier.SendToConn(connID, models.NewPrivateMessage("Your word: "+word))
	s.notifier.BroadcastToRoom(code, models.NewEnvelope(models.EventWordHint, models.WordHintPayload{Hint: maskWord(word)}))
	s.notifier.BroadcastToRoom(code, models.NewSystemMessage("Word chosen! Start guessing!"))

	s.sched.Schedule(code+"/tick", s.tick, func() { s.countdownTick(code, round) })
}

// autoSelectWord 選詞逾時的後援：代畫者選第一個候選詞
// 進行與手動選詞完全相同的狀態轉換，另外送出逾時通知
func (s *RoomService) autoSelectWord(code string, round int) {
	room, ok := s.GetRoom(code)
	if !ok {
		return
	}

	room.Mutex.Lock()
	if room.Round != round || room.CurrentWord != "" || len(room.WordChoices) == 0 {
		room.Mutex.Unlock()
		return
	}
	word := room.WordChoices[0]
	drawerID := room.CurrentDrawer
	s.lockWordLocked(room, word)
	room.Mutex.Unlock()

	log.Printf("room %s: word auto-selected for round %d", code, round)
	s.notifier.SendToConn(drawerID, models.NewSystemMessage("Time's up! Auto-selected: "+word))
	s.notifier.BroadcastToRoomExcept(code, drawerID, models.NewSystemMessage("Drawer was AFK, word auto-selected!"))
	s.notifier.BroadcastToRoom(code, models.NewEnvelope(models.EventWordHint, models.WordHintPayload{Hint: maskWord(word)}))

	s.sched.Schedule(code+"/tick", s.tick, func() { s.countdownTick(code, round) })
}

// lockWordLocked 鎖定本回合的詞並開始計時，呼叫時必須持有房間鎖
func (s *RoomService) lockWordLocked(room *models.Room, word string) int {
	room.CurrentWord = word
	room.GuessedPlayers = make(map[string]bool)
	room.RoundStartTime = s.now()
	room.Status = models.RoomStatusDrawing
	room.TimeLeft = int(s.cfg.RoundDuration.Seconds())
	return room.Round
}

// countdownTick 每秒廣播剩餘秒數，歸零後公佈答案並排定下一回合
func (s *RoomService) countdownTick(code string, round int) {
	room, ok := s.GetRoom(code)
	if !ok {
		return
	}

	room.Mutex.Lock()
	// 狀態檢查與提前收尾共用房間鎖，搶在取消之前觸發的節拍
	// 會在這裡看到回合已結束而自行停止
	if room.Round != round || room.CurrentWord == "" || room.Status != models.RoomStatusDrawing {
		room.Mutex.Unlock()
		return
	}
	remaining := room.TimeLeft
	room.TimeLeft--
	word := room.CurrentWord
	ended := remaining <= 0
	if ended {
		room.Status = models.RoomStatusRoundEnd
	}
	room.Mutex.Unlock()

	// 歸零的那一拍同時廣播最後的 0 與答案
	s.notifier.BroadcastToRoom(code, models.NewEnvelope(models.EventTimer, models.TimerPayload{Seconds: remaining}))
	if !ended {
		s.sched.Schedule(code+"/tick", s.tick, func() { s.countdownTick(code, round) })
		return
	}

	s.notifier.BroadcastToRoom(code, models.NewEnvelope(models.EventWordReveal, models.WordRevealPayload{Word: word}))
	s.notifier.BroadcastToRoom(code, models.NewSystemMessage("Time's up! Word was: "+word))
	s.sched.Schedule(code+"/advance", s.cfg.TimeoutGrace, func() { s.nextRound(code) })
}

// endGame 廣播排行榜後銷毀房間
func (s *RoomService) endGame(code string) {
	room, ok := s.GetRoom(code)
	if !ok {
		return
	}

	room.Mutex.Lock()
	leaderboard := room.Leaderboard()
	room.Mutex.Unlock()

	s.notifier.BroadcastToRoom(code, models.NewEnvelope(models.EventGameOver, models.GameOverPayload{Leaderboard: leaderboard}))
	s.destroyRoom(code)
}

// HandleDraw 將筆畫轉發給房間內除了畫者以外的所有人
// 房間一律透過連線註冊表解析，不依賴傳輸層的頻道歸屬
func (s *RoomService) HandleDraw(connID string, msg models.Envelope) {
	code, ok := s.notifier.RoomOf(connID)
	if !ok {
		return
	}
	s.notifier.BroadcastToRoomExcept(code, connID, msg)
}

// HandleClearCanvas 轉發清空畫布的信號
func (s *RoomService) HandleClearCanvas(connID string) {
	code, ok := s.notifier.RoomOf(connID)
	if !ok {
		return
	}
	s.notifier.BroadcastToRoomExcept(code, connID, models.Envelope{Type: models.EventClearCanvas})
}

// maskWord 產生交錯遮罩的提示：偶數位置顯示原字元，奇數位置以底線代替，
// 空白原樣保留以維持詞與詞的分界
func maskWord(word string) string {
	parts := make([]string, 0, len(word))
	for i, r := range []rune(word) {
		switch {
		case r == ' ':
			parts = append(parts, " ")
		case i%2 == 0:
			parts = append(parts, string(r))
		default:
			parts = append(parts, "_")
		}
	}
	return strings.Join(parts, " ")
}

