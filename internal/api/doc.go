// Package api 處理 HTTP 請求路由和處理。
//
// 這個包包含了 WebSocket 升級與健康檢查等 HTTP 處理器（handlers）。
// 遊戲本身的事件不走 HTTP，全部在升級後的 WebSocket 連線上進行。
package api
