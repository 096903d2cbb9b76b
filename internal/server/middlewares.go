package server

import (
	"bytes"
	"context"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"
	"github.com/valyala/fastjson"
	"io"
	"messagely/internal/auth"
	"messagely/internal/storage/zapadapter"
	"mime"
	"net/http"
	"strings"
	"time"
)

// maxBodySize limits request bodies accepted by requireJSON
const maxBodySize = 1 << 20

// requireJSON is a middleware pre-processing each HTTP request with body
// it checks for application/json Content-Type header and valid json body
// it also sets blank Content-Type header to application/json
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// check "Content-Type" header
		contentType := r.Header.Get("Content-Type")
		if contentType != "" {
			mt, _, err := mime.ParseMediaType(contentType)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Malformed Content-Type header")
				return
			}

			if mt != "application/json" {
				writeError(w, http.StatusUnsupportedMediaType, "Content-Type header must be application/json")
				return
			}
		} else {
			r.Header.Set("Content-Type", "application/json")
		}

		// check if provided request body is valid JSON
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "Request body is too large")
				return
			}
			writeError(w, http.StatusBadRequest, "Can not read request body")
			return
		}

		if len(body) == 0 {
			writeError(w, http.StatusBadRequest, "No body provided")
			return
		}

		err = fastjson.ValidateBytes(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Malformed JSON")
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))

		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// logRequests assigns request id, logs every request after it is served and records request metrics
func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := xid.New().String()

		ctx := zapadapter.NewContextWithID(r.Context(), id)
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		rec.Header().Set("X-Request-Id", id)

		next.ServeHTTP(rec, r.WithContext(ctx))

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		h.metrics.RecordRequest(r.Method, route, rec.statusCode, elapsed)

		h.logger.Infow("http request",
			"request_id", id,
			"method", r.Method,
			"uri", r.URL.RequestURI(),
			"route", route,
			"ip", r.RemoteAddr,
			"status", rec.statusCode,
			"duration", elapsed,
		)
	})
}

// authenticate rejects requests without a valid bearer token and stores the token identity in request context.
// It does not touch the store.
func (h *handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			h.metrics.RecordAuthFailure("missing_token")
			unauthenticated(w, "Missing bearer token")
			return
		}

		id, err := h.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				h.metrics.RecordAuthFailure("expired_token")
				unauthenticated(w, "Token expired")
				return
			}
			h.metrics.RecordAuthFailure("invalid_token")
			unauthenticated(w, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), id)))
	})
}

func unauthenticated(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="messagely"`)
	writeError(w, http.StatusUnauthorized, msg)
}

// bearerToken extracts token from "Bearer <token>" header value, scheme is case-insensitive
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func requestID(ctx context.Context) string {
	id, _ := zapadapter.IDFromContext(ctx)
	return id
}
