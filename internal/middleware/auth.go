package middleware

import (
	"context"
	"strings"

	"github.com/JonnyWalker81/daylog/internal/apierror"
	"github.com/JonnyWalker81/daylog/internal/logger"
	"github.com/JonnyWalker81/daylog/pkg/supabase"
	"github.com/gin-gonic/gin"
)

// TokenVerifier resolves a bearer token to the user it was issued to
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*supabase.User, error)
}

// Auth middleware to verify bearer tokens against the auth provider
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context())

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			log.Debug("authentication failed: missing or malformed authorization header")
			apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
			c.Abort()
			return
		}

		user, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			log.Warn("authentication failed: token verification error", logger.Err(err))
			apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)

		// Later log lines carry the user id
		ctx := logger.WithUserID(c.Request.Context(), user.ID)
		ctx = logger.WithLogger(ctx, log.With(logger.String("user_id", user.ID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
