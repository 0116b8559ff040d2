package server

import (
	"context"
	"net/http"

	"github.com/bighelpmob/missionhub/internal/missions"
)

type ctxKey int

const (
	ctxKeyAdmin ctxKey = iota
	ctxKeyViewer
)

func adminAuthMiddleware(admin AdminStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := adminFromRequest(r, admin)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyAdmin, sess)
			ctx = context.WithValue(ctx, ctxKeyViewer, &missions.Viewer{Admin: true})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// viewerMiddleware resolves the caller for public listings. Requests
// without a valid admin session are anonymous.
func viewerMiddleware(admin AdminStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var viewer *missions.Viewer
			if _, err := adminFromRequest(r, admin); err == nil {
				viewer = &missions.Viewer{Admin: true}
			}
			ctx := context.WithValue(r.Context(), ctxKeyViewer, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminFrom(r *http.Request) adminSession {
	return r.Context().Value(ctxKeyAdmin).(adminSession)
}

func viewerFrom(r *http.Request) *missions.Viewer {
	v, _ := r.Context().Value(ctxKeyViewer).(*missions.Viewer)
	return v
}
