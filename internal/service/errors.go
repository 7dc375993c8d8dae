package service

import "errors"

// 這些錯誤會以 errorMsg 事件原樣回傳給出錯的連線
var (
	ErrRoomNotFound    = errors.New("Room not found")
	ErrRoomExists      = errors.New("Room already exists")
	ErrRoomFull        = errors.New("Room full")
	ErrInvalidRoomCode = errors.New("Invalid room code")
)
