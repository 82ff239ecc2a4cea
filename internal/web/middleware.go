package web

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDFrom returns the id assigned by the requestID middleware.
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "-"
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		if r.URL.Path == "/healthz" && !h.cfg.Debug() {
			return
		}
		log.Printf("[%s] %s %s %d %dB %s (%s)", RequestIDFrom(r.Context()), r.Method, r.URL.Path,
			ww.Status(), ww.BytesWritten(), time.Since(start).Round(time.Millisecond), r.RemoteAddr)
	})
}

// tokenSigner issues and checks the hidden form token: a random nonce and
// its HMAC-SHA256 under the session secret.
type tokenSigner struct {
	key []byte
}

func (s tokenSigner) Issue() string {
	nonce := uuid.NewString()
	return nonce + "." + s.sign(nonce)
}

func (s tokenSigner) Verify(token string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" {
		return false
	}
	return hmac.Equal([]byte(s.sign(nonce)), []byte(sig))
}

func (s tokenSigner) sign(nonce string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(nonce))
	return hex.EncodeToString(mac.Sum(nil))
}
