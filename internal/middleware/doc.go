// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 這個包包含了各種中間件函數，用於在 HTTP 請求處理過程中執行額外的操作。
// 目前只有跨來源請求的放行，日誌記錄交由 gin 內建的中間件處理。
package middleware
