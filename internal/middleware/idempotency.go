package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	idempotencyPrefix     = "idempotency:"
	idempotencyProcessing = "processing"
	processingLockTTL     = 60 * time.Second
	cachedResponseTTL     = 24 * time.Hour
)

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency caches responses of mutating requests keyed by X-Request-ID.
// A replayed request returns the cached response; a duplicate arriving while
// the first is still in flight gets 409. 5xx responses are never cached so
// the client can retry.
func Idempotency(rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := idempotencyPrefix + requestID

		if cached, err := rdb.Get(ctx, key).Result(); err == nil {
			if cached == idempotencyProcessing {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request already being processed"})
				return
			}
			var resp cachedResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				c.Data(resp.Status, resp.ContentType, []byte(resp.Body))
				c.Abort()
				return
			}
			// Unreadable cache entry: fall through and reprocess.
			logger.Warn("invalid idempotency cache entry", zap.String("request_id", requestID))
		}

		ok, err := rdb.SetNX(ctx, key, idempotencyProcessing, processingLockTTL).Result()
		if err != nil {
			logger.Error("idempotency lock", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request already being processed"})
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			rdb.Del(ctx, key)
			return
		}
		raw, err := json.Marshal(cachedResponse{
			Status:      status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.buf.String(),
		})
		if err != nil {
			rdb.Del(ctx, key)
			return
		}
		if err := rdb.Set(ctx, key, raw, cachedResponseTTL).Err(); err != nil {
			logger.Error("idempotency cache write", zap.Error(err))
		}
	}
}
