package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var roomCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// NormalizeString 轉小寫、去除前後空白並移除重音符號
// 猜測比對的雙方都會先經過這個轉換
func NormalizeString(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// NormalizeRoomCode 將房間代碼轉為大寫並檢查格式
// 合法的代碼固定為六位英數字
func NormalizeRoomCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return code, roomCodePattern.MatchString(code)
}
