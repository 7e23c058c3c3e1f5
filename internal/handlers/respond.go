package handlers

import (
	"errors"

	"github.com/JonnyWalker81/daylog/internal/apierror"
	"github.com/JonnyWalker81/daylog/internal/logger"
	"github.com/JonnyWalker81/daylog/internal/service"
	"github.com/gin-gonic/gin"
)

// requireUser returns the authenticated user id, writing a 401 problem when
// the auth middleware did not set one
func requireUser(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
		return "", false
	}
	return userID, true
}

// writeServiceError maps a service error onto a problem response. resource
// and field name the record and the request field that carried its id.
func writeServiceError(c *gin.Context, err error, resource, field, id string) {
	requestID := apierror.GetRequestID(c)

	switch {
	case errors.Is(err, service.ErrInvalidID):
		apierror.WriteProblem(c, apierror.NewInvalidIDError(requestID, field, id))
	case errors.Is(err, service.ErrNotFound):
		apierror.WriteProblem(c, apierror.NewNotFoundError(requestID, resource, id))
	default:
		logger.FromContext(c.Request.Context()).Error("request failed",
			logger.Err(err),
			logger.String("resource", resource),
		)
		apierror.WriteProblem(c, apierror.NewInternalError(requestID))
	}
}
