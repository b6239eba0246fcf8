package middleware

import (
	"net/http"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
)

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

// * Use installs the request id, real ip, panic recovery and logging chain on a mux router
func Use(r *mux.Router) {
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(LoggingMiddleware)
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rr := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rr, r)

		duration := time.Since(start)

		reqID := chimiddleware.GetReqID(r.Context())
		if reqID == "" {
			reqID = "-"
		}
		logger.Info("[%s] %s %s %s %d %s", reqID, r.RemoteAddr, r.Method, r.RequestURI, rr.statusCode, duration)
	})
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.statusCode = code
	rr.ResponseWriter.WriteHeader(code)
}
