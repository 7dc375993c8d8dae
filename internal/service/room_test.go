package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketch_web/internal/models"
)

func TestCreateRoomAddsHost(t *testing.T) {
	svc, notifier := newTestService(slowConfig())

	svc.HandleCreateRoom("c1", models.CreateRoomPayload{Code: "abc123", Name: " Alice ", Rounds: float64(4)})

	room, ok := svc.GetRoom("ABC123")
	require.True(t, ok, "code should be normalized to uppercase")
	assert.Equal(t, 4, room.MaxRounds)
	assert.Equal(t, []models.Player{{ID: "c1", Name: "Alice"}}, room.PlayerList())

	code, ok := notifier.RoomOf("c1")
	require.True(t, ok)
	assert.Equal(t, "ABC123", code)

	joined, ok := notifier.lastByType(models.EventRoomJoined)
	require.True(t, ok)
	assert.Equal(t, "c1", joined.to)
	payload := decodePayload[models.RoomJoinedPayload](t, joined.env)
	assert.Equal(t, "ABC123", payload.Code)
	assert.Equal(t, 4, payload.MaxRounds)

	_, ok = notifier.lastByType(models.EventUpdatePlayers)
	assert.True(t, ok)
}

func TestCreateRoomDuplicateCode(t *testing.T) {
	svc, notifier := newTestService(slowConfig())

	svc.HandleCreateRoom("c1", models.CreateRoomPayload{Code: "ABC123", Name: "Alice"})
	svc.HandleCreateRoom("c2", models.CreateRoomPayload{Code: "abc123", Name: "Bob"})

	assert.Equal(t, 1, svc.RoomCount())
	errs := notifier.sentTo("c2")
	require.NotEmpty(t, errs)
	assert.Equal(t, models.EventErrorMsg, errs[len(errs)-1].env.Type)
	assert.Equal(t, ErrRoomExists.Error(), decodePayload[models.ErrorPayload](t, errs[len(errs)-1].env).Message)
}

func TestCreateRoomInvalidCode(t *testing.T) {
	svc, notifier := newTestService(slowConfig())

	for _, code := range []string{"", "AB12", "ABC12!", "ABCDEFG"} {
		svc.HandleCreateRoom("c1", models.CreateRoomPayload{Code: code, Name: "Alice"})
	}

	assert.Equal(t, 0, svc.RoomCount())
	assert.Len(t, notifier.byType(models.EventErrorMsg), 4)
}

func TestCreateRoomClampsRounds(t *testing.T) {
	cases := []struct {
		name   string
		rounds any
		want   int
	}{
		{"missing", nil, 6},
		{"non-numeric", "abc", 6},
		{"in range", float64(4), 4},
		{"fractional", float64(4.7), 4},
		{"above max", float64(25), 20},
		{"below min", float64(1), 3},
		{"zero", float64(0), 3},
		{"numeric string", "10", 10},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService(slowConfig())
			code := fmt.Sprintf("ROOM%02d", i)
			svc.HandleCreateRoom("c1", models.CreateRoomPayload{Code: code, Name: "Alice", Rounds: tc.rounds})

			room, ok := svc.GetRoom(code)
			require.True(t, ok)
			assert.Equal(t, tc.want, room.MaxRounds)
		})
	}
}

func TestJoinRoomNotFound(t *testing.T) {
	svc, notifier := newTestService(slowConfig())

	svc.HandleJoinRoom("c1", models.JoinRoomPayload{Code: "NOROOM", Name: "Bob"})

	errs := notifier.byType(models.EventErrorMsg)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrRoomNotFound.Error(), decodePayload[models.ErrorPayload](t, errs[0].env).Message)
}

func TestJoinRoomFull(t *testing.T) {
	cfg := slowConfig()
	svc, notifier := newTestService(cfg)

	svc.HandleCreateRoom("c0", models.CreateRoomPayload{Code: "ABC123", Name: "Host"})
	for i := 1; i < cfg.MaxPlayers; i++ {
		svc.HandleJoinRoom(fmt.Sprintf("c%d", i), models.JoinRoomPayload{Code: "ABC123", Name: fmt.Sprintf("P%d", i)})
	}

	room, _ := svc.GetRoom("ABC123")
	require.Equal(t, cfg.MaxPlayers, room.PlayerCount())

	svc.HandleJoinRoom("late", models.JoinRoomPayload{Code: "ABC123", Name: "Late"})
	assert.Equal(t, cfg.MaxPlayers, room.PlayerCount())

	errs := notifier.sentTo("late")
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrRoomFull.Error(), decodePayload[models.ErrorPayload](t, errs[len(errs)-1].env).Message)
}

func TestJoinRoomLastSlotAdmitsExactlyOne(t *testing.T) {
	cfg := slowConfig()
	svc, notifier := newTestService(cfg)

	svc.HandleCreateRoom("c0", models.CreateRoomPayload{Code: "ABC123", Name: "Host"})
	for i := 1; i < cfg.MaxPlayers-1; i++ {
		svc.HandleJoinRoom(fmt.Sprintf("c%d", i), models.JoinRoomPayload{Code: "ABC123", Name: fmt.Sprintf("P%d", i)})
	}

	room, _ := svc.GetRoom("ABC123")
	room.Mutex.Lock()
	require.Equal(t, cfg.MaxPlayers-1, room.PlayerCount())
	room.Mutex.Unlock()

	// 八條連線同時搶最後一個名額，只能有一條進得來
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc.HandleJoinRoom(fmt.Sprintf("race%d", i), models.JoinRoomPayload{Code: "ABC123", Name: fmt.Sprintf("R%d", i)})
		}(i)
	}
	wg.Wait()

	room.Mutex.Lock()
	assert.Equal(t, cfg.MaxPlayers, room.PlayerCount())
	room.Mutex.Unlock()

	rejected := 0
	for _, ev := range notifier.byType(models.EventErrorMsg) {
		if decodePayload[models.ErrorPayload](t, ev.env).Message == ErrRoomFull.Error() {
			rejected++
		}
	}
	assert.Equal(t, 7, rejected)
}

func TestJoinDestroyedRoomRejected(t *testing.T) {
	svc, notifier := newTestService(slowConfig())
	code, _ := setupRoom(t, svc)

	// 保留舊的房間指標，模擬查表後房間才被銷毀的交錯
	room, ok := svc.GetRoom(code)
	require.True(t, ok)
	svc.destroyRoom(code)
	notifier.reset()

	svc.joinPlayer(room, "late", "Dave")

	room.Mutex.Lock()
	_, joined := room.Players["late"]
	room.Mutex.Unlock()
	assert.False(t, joined)

	_, registered := notifier.RoomOf("late")
	assert.False(t, registered)

	last, ok := notifier.lastByType(models.EventErrorMsg)
	require.True(t, ok)
	assert.Equal(t, ErrRoomNotFound.Error(), decodePayload[models.ErrorPayload](t, last.env).Message)
}

func TestJoinRoomEmptyNameDefaults(t *testing.T) {
	svc, _ := newTestService(slowConfig())

	svc.HandleCreateRoom("c1", models.CreateRoomPayload{Code: "ABC123", Name: "   "})

	room, _ := svc.GetRoom("ABC123")
	assert.Equal(t, "Guest", room.Players["c1"].Name)
}

func TestSecondJoinStartsGameOnce(t *testing.T) {
	cfg := slowConfig()
	cfg.StartDelay = 10 * time.Millisecond
	svc, _ := newTestService(cfg)

	svc.HandleCreateRoom("c1", models.CreateRoomPayload{Code: "ABC123", Name: "Alice"})
	svc.HandleJoinRoom("c2", models.JoinRoomPayload{Code: "ABC123", Name: "Bob"})

	room, _ := svc.GetRoom("ABC123")
	require.Eventually(t, func() bool {
		room.Mutex.Lock()
		defer room.Mutex.Unlock()
		return room.Round == 1
	}, time.Second, 5*time.Millisecond)

	// 後續加入不得重新排定開局
	svc.HandleJoinRoom("c3", models.JoinRoomPayload{Code: "ABC123", Name: "Carol"})
	time.Sleep(5 * cfg.StartDelay)

	room.Mutex.Lock()
	defer room.Mutex.Unlock()
	assert.Equal(t, 1, room.Round)
	assert.True(t, room.GameStarted)
}

func TestDisconnectRemovesPlayerAndBroadcasts(t *testing.T) {
	svc, notifier := newTestService(slowConfig())
	code, conns := setupRoom(t, svc)
	notifier.reset()

	svc.HandleDisconnect(conns[1])

	room, ok := svc.GetRoom(code)
	require.True(t, ok)
	assert.Equal(t, 2, room.PlayerCount())
	_, ok = notifier.RoomOf(conns[1])
	assert.False(t, ok)

	roster, ok := notifier.lastByType(models.EventUpdatePlayers)
	require.True(t, ok)
	players := decodePayload[models.PlayersPayload](t, roster.env).Players
	assert.Len(t, players, 2)

	// 重複處理同一連線必須是 no-op
	svc.HandleDisconnect(conns[1])
	assert.Equal(t, 2, room.PlayerCount())
}

func TestDisconnectLastPlayerDeletesRoom(t *testing.T) {
	svc, notifier := newTestService(slowConfig())

	svc.HandleCreateRoom("c1", models.CreateRoomPayload{Code: "ABC123", Name: "Alice"})
	svc.HandleDisconnect("c1")

	assert.Equal(t, 0, svc.RoomCount())
	_, ok := notifier.RoomOf("c1")
	assert.False(t, ok)

	// 之後再加入同一代碼應回報不存在
	svc.HandleJoinRoom("c2", models.JoinRoomPayload{Code: "ABC123", Name: "Bob"})
	last, ok := notifier.lastByType(models.EventErrorMsg)
	require.True(t, ok)
	assert.Equal(t, ErrRoomNotFound.Error(), decodePayload[models.ErrorPayload](t, last.env).Message)
}

func TestDisconnectDrawerSchedulesAdvance(t *testing.T) {
	svc, _ := newTestService(slowConfig())
	code, conns := setupRoom(t, svc)

	svc.nextRound(code)
	room, _ := svc.GetRoom(code)
	room.Mutex.Lock()
	drawer := room.CurrentDrawer
	room.Mutex.Unlock()
	require.Equal(t, conns[0], drawer)
	require.True(t, svc.sched.Pending(code+"/choose"))

	// 清掉加入時排定的開局任務，確認接下來的推進確實來自斷線處理
	svc.sched.Cancel(code + "/advance")
	svc.HandleDisconnect(drawer)

	assert.False(t, svc.sched.Pending(code+"/choose"))
	assert.False(t, svc.sched.Pending(code+"/tick"))
	assert.True(t, svc.sched.Pending(code+"/advance"))
}
