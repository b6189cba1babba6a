package middleware

import (
	"net"
	"net/http"

	"github.com/mssola/useragent"

	"chainpass/pkg/requestcontext"
)

// Device parses the User-Agent into a compact "browser/os" summary so audit
// log lines can name the client that drove a ceremony.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}
		ctx = requestcontext.WithClientMetadata(ctx, ip, r.UserAgent())

		if raw := r.UserAgent(); raw != "" {
			ua := useragent.New(raw)
			name, version := ua.Browser()
			summary := name + " " + version + "/" + ua.OS()
			ctx = requestcontext.WithDevice(ctx, summary)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
