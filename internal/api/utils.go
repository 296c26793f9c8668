package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"livechat-backend/internal/api/middleware"
	"livechat-backend/internal/queue"
)

type apiFunc func(http.ResponseWriter, *http.Request) error

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// MakeHTTPHandleFunc runs the handler through the bounded request queue and
// maps returned errors onto JSON responses. Handlers signal expected failures
// with *HTTPError; anything else is a 500.
func (s *APIServer) MakeHTTPHandleFunc(f apiFunc, extra ...middleware.Middleware) http.HandlerFunc {
	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Requested-With", "Authorization"},
		AllowCredentials: true,
	}

	baseHandler := func(w http.ResponseWriter, r *http.Request) {
		errc := make(chan error, 1)

		job := queue.Job{
			Fn: func() error {
				return f(w, r)
			},
			Errc: errc,
		}

		s.queueManager.EnqueueJob(job)

		err := <-errc
		if err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				s.log.Warn("request failed",
					zap.String("path", r.URL.Path),
					zap.Int("status", httpErr.StatusCode),
					zap.Error(httpErr.ErrorLog))
				WriteJSON(w, httpErr.StatusCode, ApiError{Error: httpErr.Message})
			} else {
				s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
				WriteJSON(w, http.StatusInternalServerError, ApiError{Error: "Internal server error"})
			}
		}
	}

	middlewares := []middleware.Middleware{
		middleware.CORS(corsConfig),
		middleware.Logging(s.log),
	}

	finalHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler := baseHandler
		for _, m := range extra {
			handler = m(handler)
		}
		handler(w, r)
	}

	return middleware.Chain(finalHandler, middlewares...)
}
