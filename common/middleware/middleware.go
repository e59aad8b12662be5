package middleware

import (
	"net/http"
	"strconv"
	"time"

	hr "github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"wuyrush.io/chronos/common/metrics"
)

type Middleware func(hr.Handle) hr.Handle

// Chain composites given handler and middlewares. The last middleware is the outermost one.
func Chain(h hr.Handle, ms ...Middleware) hr.Handle {
	for _, m := range ms {
		h = m(h)
	}
	return h
}

// PanicRecoverer recovers from panic of underlying handlers
func PanicRecoverer() Middleware {
	return func(h hr.Handle) hr.Handle {
		return func(w http.ResponseWriter, r *http.Request, p hr.Params) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithField("panicReason", rec).WithField("path", r.URL.Path).
						Error("got panic from underlying handler")
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			h(w, r, p)
		}
	}
}

// RateLimiter limits underlying handler call rate with given token bucket config. Requests over the limit are
// answered with 429 right away instead of being queued.
func RateLimiter(burst int, perSec float64) Middleware {
	lim := rate.NewLimiter(rate.Limit(perSec), burst)
	return func(h hr.Handle) hr.Handle {
		return func(w http.ResponseWriter, r *http.Request, p hr.Params) {
			if !lim.Allow() {
				log.WithField("remoteAddr", r.RemoteAddr).WithField("path", r.URL.Path).Warning("request rate limited")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			h(w, r, p)
		}
	}
}

// Instrument logs method, path, status and latency of each request and records the latency under the given
// router and route labels.
func Instrument(router, route string) Middleware {
	return func(h hr.Handle) hr.Handle {
		return func(w http.ResponseWriter, r *http.Request, p hr.Params) {
			start := time.Now()
			sw := &StatusWriter{ResponseWriter: w, Status: http.StatusOK}
			h(sw, r, p)
			elapsed := time.Since(start)
			metrics.HTTPRequestDuration.
				WithLabelValues(router, route, strconv.Itoa(sw.Status)).
				Observe(elapsed.Seconds())
			log.WithFields(log.Fields{
				"router":     router,
				"httpMethod": r.Method,
				"path":       r.URL.Path,
				"status":     sw.Status,
				"latencyMs":  elapsed.Milliseconds(),
			}).Info("request served")
		}
	}
}

// StatusWriter wraps http.ResponseWriter to capture status code.
type StatusWriter struct {
	http.ResponseWriter
	Status int
}

func (sw *StatusWriter) WriteHeader(code int) {
	sw.Status = code
	sw.ResponseWriter.WriteHeader(code)
}
