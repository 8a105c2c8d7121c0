package middleware

import (
	"fmt"
	"net/http"

	"github.com/mssola/useragent"

	"attestgate/pkg/requestcontext"
)

// Device parses the User-Agent into a coarse descriptor (browser, platform,
// mobile flag) carried through the context for audit events. The raw
// User-Agent string is never stored.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.UserAgent()
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		ua := useragent.New(raw)
		name, version := ua.Browser()
		kind := "desktop"
		switch {
		case ua.Bot():
			kind = "bot"
		case ua.Mobile():
			kind = "mobile"
		}
		descriptor := fmt.Sprintf("%s/%s %s (%s)", name, version, ua.OS(), kind)

		ctx := requestcontext.WithDevice(r.Context(), descriptor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
