package security

import (
	"net/url"
	"strings"
)

// SafeRedirect はサインイン後の遷移先として安全なパスを返す。
// 同一オリジンの絶対パス（"/"で始まり、"//"や"/\"で始まらない）のみ受け付け、
// それ以外はfallbackを返す。
func SafeRedirect(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return fallback
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, `/\`) {
		return fallback
	}
	if strings.ContainsAny(raw, "\r\n\t") {
		return fallback
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	return raw
}
