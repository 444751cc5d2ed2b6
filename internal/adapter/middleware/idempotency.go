package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	headerRequestID = "Ax-Request-Id"
	headerRequestAt = "Ax-Request-At"
	headerReplay    = "Ax-Idempotent-Replay"

	// in-flight claim; a crashed handler frees the key after this long
	provisionalLockTTL = 60 * time.Second
	// allowed client/server clock skew for Ax-Request-At
	maxClockSkew = 10 * time.Minute
	storeTimeout = 2 * time.Second
)

// idempEntry is what the store keeps per key: first an in-flight claim,
// then the final response.
type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// respRecorder tees the handler's response so it can be stored.
type respRecorder struct {
	w    http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }

func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}

func (r *respRecorder) WriteHeader(code int) { r.code = code; r.w.WriteHeader(code) }

// idempotencyHeaders validates Ax-Request-Id and Ax-Request-At. A non-empty
// problem is the 400 message to return.
func idempotencyHeaders(h http.Header) (reqID string, at time.Time, problem string) {
	reqID = strings.TrimSpace(h.Get(headerRequestID))
	switch {
	case reqID == "":
		return "", at, "missing " + headerRequestID
	case !validReqID(reqID):
		return "", at, "invalid " + headerRequestID + " format"
	}
	at, err := parseAxRequestAt(h.Get(headerRequestAt))
	if err != nil {
		return "", at, err.Error()
	}
	now := nowUTC()
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return "", at, headerRequestAt + " too skewed"
	}
	return reqID, at, ""
}

// IdempotencyMiddleware makes mutations safe to retry. The key is method +
// route + authenticated principal + Ax-Request-Id, so it must run after
// JWTAuth. A retry with the same body replays the stored response; a
// different body or a retry while the first call runs gets 409. Responses of
// 500 and above are not stored, so the client may retry with the same id.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, log logrus.FieldLogger) echo.MiddlewareFunc {
	store := &idempStore{rdb: rdb, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID, reqAt, problem := idempotencyHeaders(req.Header)
			if problem != "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": problem})
			}
			who := Principal(c)
			if who == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			key := buildKey(req.Method, c.Path(), who, reqID)
			entry := idempEntry{
				InProgress:  true,
				BodySHA256:  bodyHash(body),
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			}
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			claimed, err := store.claim(ctx, key, entry)
			if err != nil {
				log.WithError(err).Error("idempotency store unavailable")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !claimed {
				prev, err := store.load(ctx, key)
				if err != nil {
					log.WithError(err).WithField("key", key).Warn("idempotency entry load failed")
				}
				return replay(c, prev, entry.BodySHA256)
			}

			rec := &respRecorder{w: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may already be done; finish on our own clock
			fctx, fcancel := context.WithTimeout(context.Background(), storeTimeout)
			defer fcancel()
			if rec.code >= http.StatusInternalServerError {
				if err := store.release(fctx, key); err != nil {
					log.WithError(err).WithField("key", key).Warn("idempotency lock release failed")
				}
				return nil
			}
			entry.InProgress = false
			entry.Code = rec.code
			entry.Body = rec.buf.Bytes()
			if err := store.finish(fctx, key, entry); err != nil {
				log.WithError(err).WithField("key", key).Warn("idempotency response not stored")
			}
			return nil
		}
	}
}

// replay answers a request whose key is already taken.
func replay(c echo.Context, prev idempEntry, bodySHA string) error {
	if prev.BodySHA256 != "" && prev.BodySHA256 != bodySHA {
		return c.JSON(http.StatusConflict, map[string]string{"error": headerRequestID + " reused with different body"})
	}
	if !prev.InProgress && prev.Code != 0 && len(prev.Body) > 0 {
		c.Response().Header().Set(headerReplay, "true")
		return c.Blob(prev.Code, echo.MIMEApplicationJSON, prev.Body)
	}
	return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
}
