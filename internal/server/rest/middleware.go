package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
)

// handlerFunc is an HTTP handler that reports failures as errors; handle
// turns them into JSON error responses.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// handle registers h under pattern with body limiting, error mapping,
// panic recovery, logging and metrics.
func (s *Server) handle(mux *http.ServeMux, pattern string, h handlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		r.Body = http.MaxBytesReader(rec, r.Body, MaxBodyBytes)

		defer func() {
			if p := recover(); p != nil {
				s.logger.Error(r.Context(), "panic in handler", "route", pattern, "panic", p)
				if rec.status == 0 {
					writeError(rec, classify(nil))
				}
			}

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			s.metrics.RequestsTotal.WithLabelValues(pattern, strconv.Itoa(status)).Inc()
			s.metrics.RequestDuration.WithLabelValues(pattern).Observe(elapsed.Seconds())
			s.logger.Info(r.Context(), "request served",
				"method", r.Method, "path", r.URL.Path, "status", status, "duration", elapsed)
		}()

		if err := h(rec, r); err != nil {
			e := classify(err)
			if e.status >= http.StatusInternalServerError || rec.status != 0 {
				s.logger.Error(r.Context(), "request failed", "route", pattern, "error", err)
			}
			// the response is already under way
			if rec.status != 0 {
				return
			}
			writeError(rec, e)
		}
	})
}

// gate admits only requests whose bearer token verifies and is still listed
// on the account. The caller's identity is put on the request context.
func (s *Server) gate(next handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		token, err := auth.ParseBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			if errors.Is(err, auth.ErrNoBearerToken) {
				s.metrics.AuthFailures.WithLabelValues("missing").Inc()
				return errAccessDenied
			}
			s.metrics.AuthFailures.WithLabelValues("scheme").Inc()
			return common.ErrUnauthenticated
		}

		id, err := s.accounts.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, common.ErrUnauthenticated) {
				s.metrics.AuthFailures.WithLabelValues("invalid").Inc()
				s.logger.Debug(r.Context(), "token rejected", "reason", err)
			}
			return err
		}

		return next(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	}
}

// identity returns the caller attached by gate.
func identity(ctx context.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return auth.Identity{}, errAccessDenied
	}
	return id, nil
}
