package common

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ParseBoundedInt は正の整数を解釈し、upper を超える値は upper に丸める。
// 空文字・非数値・0 以下は fallback を返す。int に収まらない巨大な数字列は upper として扱う。
func ParseBoundedInt(value string, fallback, upper int) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(value, "-") {
			return upper, true
		}
		return fallback, false
	}
	if parsed <= 0 {
		return fallback, false
	}
	return min(parsed, upper), true
}

// ParsePositiveInt は上限なしの ParseBoundedInt。桁あふれは math.MaxInt になる。
func ParsePositiveInt(value string, fallback int) (int, bool) {
	return ParseBoundedInt(value, fallback, math.MaxInt)
}
