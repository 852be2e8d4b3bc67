package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yadev07/cs-eventsphere-backend/pkg/response"
)

const (
	// IdempotencyKeyHeader is the request header carrying the idempotency key
	IdempotencyKeyHeader = "X-Idempotency-Key"
	// DefaultIdempotencyTTL is how long completed responses are replayable.
	// Short-lived on purpose: the window only needs to cover network retries.
	DefaultIdempotencyTTL = 5 * time.Minute

	idempotencyKeyPrefix = "idempotency:"
)

type idempotencyStatus string

const (
	statusProcessing idempotencyStatus = "processing"
	statusCompleted  idempotencyStatus = "completed"
)

// idempotencyRecord stores the state of an idempotent request in Redis
type idempotencyRecord struct {
	Status       idempotencyStatus `json:"status"`
	ResponseCode int               `json:"response_code"`
	ResponseBody string            `json:"response_body"`
	CreatedAt    time.Time         `json:"created_at"`
}

// IdempotencyConfig configures the idempotency middleware
type IdempotencyConfig struct {
	Redis *redis.Client
	TTL   time.Duration
	// Required rejects write requests without a key when true
	Required bool
}

// DefaultIdempotencyConfig returns a config with sensible defaults
func DefaultIdempotencyConfig(client *redis.Client) *IdempotencyConfig {
	return &IdempotencyConfig{
		Redis: client,
		TTL:   DefaultIdempotencyTTL,
	}
}

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware deduplicates write requests that carry an
// X-Idempotency-Key header. The first request executes and its response is
// stored; retries within the TTL replay the stored response. A retry racing
// the original gets 409 while the original is still in flight.
func IdempotencyMiddleware(cfg *IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultIdempotencyTTL
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if cfg.Required {
				response.BadRequest(c, "missing "+IdempotencyKeyHeader+" header")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		ctx := c.Request.Context()
		redisKey := idempotencyKeyPrefix + key

		pending, _ := json.Marshal(idempotencyRecord{
			Status:    statusProcessing,
			CreatedAt: time.Now(),
		})
		set, err := cfg.Redis.SetNX(ctx, redisKey, pending, cfg.TTL).Result()
		if err != nil {
			// Redis being down must not block writes
			c.Next()
			return
		}

		if !set {
			raw, err := cfg.Redis.Get(ctx, redisKey).Result()
			if err != nil {
				c.Next()
				return
			}
			var record idempotencyRecord
			if err := json.Unmarshal([]byte(raw), &record); err != nil {
				c.Next()
				return
			}
			if record.Status == statusProcessing {
				response.Error(c, http.StatusConflict, "REQUEST_IN_PROGRESS",
					"a request with this idempotency key is still being processed", "")
				c.Abort()
				return
			}
			c.Data(record.ResponseCode, "application/json", []byte(record.ResponseBody))
			c.Abort()
			return
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		status := c.Writer.Status()
		if status >= 500 {
			// Let the client retry server failures with the same key
			cfg.Redis.Del(ctx, redisKey)
			return
		}

		completed, _ := json.Marshal(idempotencyRecord{
			Status:       statusCompleted,
			ResponseCode: status,
			ResponseBody: string(writer.body),
			CreatedAt:    time.Now(),
		})
		cfg.Redis.Set(ctx, redisKey, completed, cfg.TTL)
	}
}
