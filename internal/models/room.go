package models

import (
	"sort"
	"sync"
	"time"
)

// RoomStatus 定義房間狀態的類型
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"  // 等待第二位玩家
	RoomStatusChoosing RoomStatus = "choosing" // 畫者選詞中
	RoomStatusDrawing  RoomStatus = "drawing"  // 作畫與猜測中
	RoomStatusRoundEnd RoomStatus = "roundEnd" // 答案已公佈，等待下一回合
	RoomStatusFinished RoomStatus = "finished" // 已結束，等待刪除
)

// Player 表示房間內的一位玩家，身份即其連線 ID
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Room 表示一場進行中的遊戲
// 除建立與刪除由服務層的房間表保護外，所有欄位都由 Mutex 序列化存取
type Room struct {
	Mutex sync.Mutex `json:"-"`

	Code      string
	Status    RoomStatus
	MaxRounds int

	// Players 以連線 ID 為鍵，Order 保留加入順序供輪替與排名使用
	Players map[string]*Player
	Order   []string

	Round          int
	DrawerIndex    int
	CurrentWord    string
	CurrentDrawer  string
	WordChoices    []string
	GameStarted    bool
	RoundStartTime time.Time
	GuessedPlayers map[string]bool
	TimeLeft       int
}

// NewRoom 建立一個等待玩家加入的新房間
func NewRoom(code string, maxRounds int) *Room {
	return &Room{
		Code:           code,
		Status:         RoomStatusWaiting,
		MaxRounds:      maxRounds,
		Players:        make(map[string]*Player),
		GuessedPlayers: make(map[string]bool),
	}
}

// AddPlayer 將玩家加入房間並記錄加入順序
func (r *Room) AddPlayer(p *Player) {
	r.Players[p.ID] = p
	r.Order = append(r.Order, p.ID)
}

// RemovePlayer 移除玩家，若玩家不存在則回傳 nil
func (r *Room) RemovePlayer(id string) *Player {
	p, ok := r.Players[id]
	if !ok {
		return nil
	}
	delete(r.Players, id)
	for i, pid := range r.Order {
		if pid == id {
			r.Order = append(r.Order[:i], r.Order[i+1:]...)
			break
		}
	}
	return p
}

// PlayerCount 回傳目前人數
func (r *Room) PlayerCount() int {
	return len(r.Players)
}

// PlayerList 以加入順序回傳玩家快照
func (r *Room) PlayerList() []Player {
	list := make([]Player, 0, len(r.Order))
	for _, id := range r.Order {
		if p, ok := r.Players[id]; ok {
			list = append(list, *p)
		}
	}
	return list
}

// Leaderboard 依分數由高至低排名，同分時維持加入順序
func (r *Room) Leaderboard() []LeaderboardEntry {
	players := r.PlayerList()
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})

	entries := make([]LeaderboardEntry, 0, len(players))
	for i, p := range players {
		entries = append(entries, LeaderboardEntry{Rank: i + 1, Name: p.Name, Score: p.Score})
	}
	return entries
}
