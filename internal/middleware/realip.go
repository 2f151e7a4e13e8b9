package middleware

import (
	"net/http"
	"net/netip"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewTrustedRealIPMiddleware は接続元が信頼済みプロキシの場合のみ、
// chiのRealIPでプロキシヘッダー（True-Client-IP, X-Real-IP, X-Forwarded-For）のクライアントIPをRemoteAddrに反映する。
// それ以外の接続元から届いたプロキシヘッダーは無視し、RemoteAddrは接続元のまま残す。
// trustedが空の場合はプロキシヘッダーを一切信用しない。
func NewTrustedRealIPMiddleware(trusted []netip.Prefix) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		withHeaders := chimw.RealIP(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isTrustedPeer(r.RemoteAddr, trusted) {
				withHeaders.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isTrustedPeer はRemoteAddr（host:port）が信頼済みプロキシのアドレス範囲に含まれるかを判定する。
func isTrustedPeer(remoteAddr string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}

	var addr netip.Addr
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		addr = ap.Addr()
	} else if a, err := netip.ParseAddr(remoteAddr); err == nil {
		addr = a
	} else {
		return false
	}
	addr = addr.Unmap()

	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
