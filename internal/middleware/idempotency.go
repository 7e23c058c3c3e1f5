package middleware

import (
	"bytes"
	"net/http"

	"github.com/JonnyWalker81/daylog/internal/apierror"
	"github.com/JonnyWalker81/daylog/internal/logger"
	"github.com/JonnyWalker81/daylog/internal/repository"
	"github.com/gin-gonic/gin"
)

const (
	// IdempotencyKeyHeader carries the client's retry key
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from storage
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"

	maxIdempotencyKeyLength = 255
)

// recordingWriter tees the response body so it can be stored after the handler ran
type recordingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// idempotentRequest identifies one keyed request
type idempotentRequest struct {
	key    string
	route  string
	userID string
}

// Idempotency replays the stored response when a client retries a POST with
// an Idempotency-Key it already used on the same route. A retried reflection
// returns the original session instead of running the detector again and
// counting its patterns twice. Only 2xx responses are stored. It must run
// after Auth.
func Idempotency(repo repository.IdempotencyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}

		req, problem := keyedRequest(c, key)
		if problem != nil {
			apierror.WriteProblem(c, problem)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx).With(
			logger.String("idempotency_key", req.key),
			logger.String("route", req.route),
		)

		stored, err := repo.Get(ctx, req.key, req.route, req.userID)
		switch {
		case err != nil:
			// Storage trouble must not block the request; it just runs unprotected.
			log.Error("idempotency lookup failed", logger.Err(err))
			c.Next()
			return
		case stored != nil:
			log.Info("replaying stored response", logger.Int("status_code", stored.StatusCode))
			c.Header(IdempotencyReplayedHeader, "true")
			c.Data(stored.StatusCode, "application/json", stored.ResponseBody)
			c.Abort()
			return
		}

		rw := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rw
		c.Next()

		status := rw.Status()
		if status < 200 || status >= 300 {
			return
		}
		if err := repo.Store(ctx, req.key, req.route, req.userID, rw.buf.Bytes(), status); err != nil {
			log.Warn("failed to store idempotent response", logger.Err(err))
		}
	}
}

// keyedRequest validates the key and resolves the caller. The route is the
// matched pattern so that /reflections/abc and /reflections/xyz never share keys.
func keyedRequest(c *gin.Context, key string) (idempotentRequest, *apierror.ProblemDetails) {
	requestID := apierror.GetRequestID(c)

	if len(key) > maxIdempotencyKeyLength {
		return idempotentRequest{}, apierror.NewValidationError(requestID, []apierror.FieldError{
			{Field: IdempotencyKeyHeader, Message: "must be at most 255 characters", Code: "max"},
		})
	}

	userID := c.GetString("user_id")
	if userID == "" {
		return idempotentRequest{}, apierror.NewUnauthorizedError(requestID)
	}

	return idempotentRequest{
		key:    key,
		route:  c.Request.Method + " " + c.FullPath(),
		userID: userID,
	}, nil
}
