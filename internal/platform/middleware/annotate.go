package middleware

import (
	"context"
	"net/http"

	"yapisite/pkg/requestcontext"
)

type contextKeyRouting struct{}

func withRouting(ctx context.Context, info *routing) context.Context {
	return context.WithValue(ctx, contextKeyRouting{}, info)
}

// Annotate copies the route class and locale from the request context into
// the access log entry. It sits inside the dispatcher, in front of each
// downstream handler.
func Annotate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if info, ok := r.Context().Value(contextKeyRouting{}).(*routing); ok {
			info.class = requestcontext.RouteClass(r.Context())
			info.locale = requestcontext.Locale(r.Context())
		}
		next.ServeHTTP(w, r)
	})
}
