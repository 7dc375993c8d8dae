package service

import (
	"fmt"
	"math"
	"strings"

	"sketch_web/internal/models"
	"sketch_web/internal/utils"
)

// HandleChat 處理聊天消息，依序走過猜測判定
// 畫者本人與沒有進行中謎底時一律當成普通聊天；
// 已猜中者與太接近的猜測以私下通知拒絕；完全命中才計分
func (s *RoomService) HandleChat(connID, text string) {
	code, ok := s.notifier.RoomOf(connID)
	if !ok {
		return
	}
	room, ok := s.GetRoom(code)
	if !ok {
		return
	}

	room.Mutex.Lock()
	player, ok := room.Players[connID]
	if !ok {
		room.Mutex.Unlock()
		return
	}
	name := player.Name

	if room.CurrentDrawer == connID || room.CurrentWord == "" {
		room.Mutex.Unlock()
		s.notifier.BroadcastToRoom(code, models.NewChatMessage(name, text))
		return
	}

	if room.GuessedPlayers[connID] {
		room.Mutex.Unlock()
		s.notifier.SendToConn(connID, models.NewErrorMessage("You already guessed correctly!"))
		return
	}

	guess := utils.NormalizeString(text)
	target := utils.NormalizeString(room.CurrentWord)

	// 防止借部分拼字套答案：長度超過兩個字元的子字串直接擋下
	if guess != target && len([]rune(guess)) > 2 && strings.Contains(target, guess) {
		room.Mutex.Unlock()
		s.notifier.SendToConn(connID, models.NewErrorMessage("Too close!"))
		return
	}

	if guess != target {
		room.Mutex.Unlock()
		s.notifier.BroadcastToRoom(code, models.NewChatMessage(name, text))
		return
	}

	room.GuessedPlayers[connID] = true
	elapsed := s.now().Sub(room.RoundStartTime).Seconds()
	points := guesserPoints(elapsed)
	bonus := drawerBonus(points)

	player.Score += points
	if drawer, ok := room.Players[room.CurrentDrawer]; ok {
		drawer.Score += bonus
	}

	roster := room.PlayerList()
	allGuessed := len(room.GuessedPlayers) >= room.PlayerCount()-1
	word := room.CurrentWord
	if allGuessed {
		// 在鎖內先離開作畫階段，讓競爭中的倒數節拍自行停止
		room.Status = models.RoomStatusRoundEnd
	}
	room.Mutex.Unlock()

	s.notifier.SendToConn(connID, models.NewSystemMessage(fmt.Sprintf("Correct! +%d pts", points)))
	s.notifier.BroadcastToRoom(code, models.NewEnvelope(models.EventCorrectGuess, models.CorrectGuessPayload{
		Name:        name,
		Points:      points,
		DrawerBonus: bonus,
	}))
	s.notifier.BroadcastToRoom(code, models.NewSystemMessage(name+" guessed it!"))
	s.notifier.BroadcastToRoom(code, models.NewEnvelope(models.EventUpdatePlayers, models.PlayersPayload{Players: roster}))

	if allGuessed {
		// 最後一位也猜中，提前收尾；倒數取消是冪等的，
		// 與計時器到期互相競爭時最多只會排進一次回合推進
		s.sched.Cancel(code + "/tick")
		s.notifier.BroadcastToRoom(code, models.NewEnvelope(models.EventWordReveal, models.WordRevealPayload{Word: word}))
		s.sched.Schedule(code+"/advance", s.cfg.GuessedGrace, func() { s.nextRound(code) })
	}
}

// guesserPoints 依猜中速度計分，愈快愈高、下限 20 分
func guesserPoints(elapsedSeconds float64) int {
	points := int(math.Round(120 - elapsedSeconds*1.5))
	if points < 20 {
		points = 20
	}
	return points
}

// drawerBonus 畫者抽成，為猜者得分的四成
func drawerBonus(points int) int {
	return int(math.Round(float64(points) * 0.4))
}
