package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonnyWalker81/daylog/internal/apierror"
	"github.com/JonnyWalker81/daylog/internal/models"
	"github.com/JonnyWalker81/daylog/internal/service"
	"github.com/gin-gonic/gin"
)

type ReflectionHandler struct {
	reflectionService service.ReflectionService
}

// NewReflectionHandler creates a new reflection handler
func NewReflectionHandler(reflectionService service.ReflectionService) *ReflectionHandler {
	return &ReflectionHandler{
		reflectionService: reflectionService,
	}
}

// Catalog handles GET /api/v1/reflections/catalog
func (h *ReflectionHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.reflectionService.Catalog())
}

// CreateReflection handles POST /api/v1/reflections
func (h *ReflectionHandler) CreateReflection(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.CreateReflectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.WriteProblem(c, apierror.FromBindingError(apierror.GetRequestID(c), err))
		return
	}
	req.MoodFocus = strings.TrimSpace(req.MoodFocus)

	session, err := h.reflectionService.CreateReflection(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrUnknownReason) {
			apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), []apierror.FieldError{
				{Field: "reasons", Message: err.Error(), Code: "unknown_reason"},
			}))
			return
		}
		writeServiceError(c, err, "Reflection session", "", "")
		return
	}

	c.JSON(http.StatusCreated, session)
}

// ListReflections handles GET /api/v1/reflections?limit=
func (h *ReflectionHandler) ListReflections(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), []apierror.FieldError{
				{Field: "limit", Message: "must be a positive integer", Code: "invalid_format"},
			}))
			return
		}
		limit = n
	}

	sessions, err := h.reflectionService.ListReflections(c.Request.Context(), userID, limit)
	if err != nil {
		writeServiceError(c, err, "Reflection session", "", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetReflection handles GET /api/v1/reflections/:id
func (h *ReflectionHandler) GetReflection(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	id := c.Param("id")
	session, err := h.reflectionService.GetReflection(c.Request.Context(), userID, id)
	if err != nil {
		writeServiceError(c, err, "Reflection session", "id", id)
		return
	}

	c.JSON(http.StatusOK, session)
}
