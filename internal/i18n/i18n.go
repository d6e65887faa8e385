package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/loyaltycore/internal/constants"
)

// 站点语言常量（与 constants.SupportedLocales 对齐）
const (
	LocaleZH = constants.LocaleZhCN
	LocaleTW = constants.LocaleZhTW
	LocaleEN = constants.LocaleEnUS
)

// ResolveLocale 解析请求语言：query 参数优先，其次 Accept-Language，最后默认简体中文
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return LocaleZH
	}
	if q := strings.TrimSpace(c.Query("locale")); q != "" {
		return Normalize(q)
	}
	if h := strings.TrimSpace(c.GetHeader("Accept-Language")); h != "" {
		first := h
		if idx := strings.IndexAny(h, ",;"); idx >= 0 {
			first = h[:idx]
		}
		return Normalize(first)
	}
	return LocaleZH
}

// Normalize 将任意语言标识归一到受支持的语言
func Normalize(locale string) string {
	normalized := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case normalized == "":
		return LocaleZH
	case strings.HasPrefix(normalized, "zh-tw"), strings.HasPrefix(normalized, "zh-hant"),
		strings.HasPrefix(normalized, "zh-hk"):
		return LocaleTW
	case strings.HasPrefix(normalized, "zh"):
		return LocaleZH
	case strings.HasPrefix(normalized, "en"):
		return LocaleEN
	}
	return LocaleZH
}

// T 查找语言文案；找不到时回退简体中文，再回退 key 本身
func T(locale, key string) string {
	normalized := Normalize(locale)
	if m, ok := messages[normalized]; ok {
		if msg, ok := m[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[LocaleZH][key]; ok {
		return msg
	}
	return key
}

// Sprintf 带参数的语言文案
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
