package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
	"github.com/yadev07/cs-eventsphere-backend/internal/dto"
	"github.com/yadev07/cs-eventsphere-backend/internal/service"
	"github.com/yadev07/cs-eventsphere-backend/pkg/telemetry"
)

// RegistrationHandler handles registration HTTP requests
type RegistrationHandler struct {
	registrationService service.RegistrationService
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrationService service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// Register handles POST /events/:id/registrations
func (h *RegistrationHandler) Register(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.register")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	eventID := c.Param("id")
	if eventID == "" {
		span.SetStatus(codes.Error, "event id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "event id required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	var req dto.RegisterRequest
	// Body is optional; defaults apply when absent
	_ = c.ShouldBindJSON(&req)

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	result, err := h.registrationService.Register(ctx, eventID, userID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("registration_id", result.ID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, result)
}

// Unregister handles DELETE /events/:id/registrations
func (h *RegistrationHandler) Unregister(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.unregister")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	eventID := c.Param("id")
	if eventID == "" {
		span.SetStatus(codes.Error, "event id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "event id required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	if err := h.registrationService.Unregister(ctx, eventID, userID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// GetMyRegistration handles GET /events/:id/registrations/me
func (h *RegistrationHandler) GetMyRegistration(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.get_mine")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	eventID := c.Param("id")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	result, err := h.registrationService.GetRegistration(ctx, eventID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// GetRoster handles GET /events/:id/registrations
func (h *RegistrationHandler) GetRoster(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.roster")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	if eventID == "" {
		span.SetStatus(codes.Error, "event id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "event id required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	page, pageSize := parsePagination(c)
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)

	roster, err := h.registrationService.GetRoster(ctx, eventID, page, pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(roster, page, pageSize, len(roster)))
}

// GetMyRegistrations handles GET /registrations
func (h *RegistrationHandler) GetMyRegistrations(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.list_mine")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := c.GetString("user_id")
	if userID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	page, pageSize := parsePagination(c)
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)

	registrations, err := h.registrationService.GetUserRegistrations(ctx, userID, page, pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(registrations, page, pageSize, len(registrations)))
}

// MarkAttendance handles POST /events/:id/attendance
func (h *RegistrationHandler) MarkAttendance(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.mark_attendance")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	if eventID == "" {
		span.SetStatus(codes.Error, "event id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "event id required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", req.UserID),
	)

	result, err := h.registrationService.MarkAttendance(ctx, eventID, req.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Bool("already_marked", result.AlreadyMarked))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// UpdateStatus handles PATCH /registrations/:id/status
func (h *RegistrationHandler) UpdateStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.registration.update_status")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	registrationID := c.Param("id")
	if registrationID == "" {
		span.SetStatus(codes.Error, "registration id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "registration id required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	var req dto.UpdateRegistrationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		})
		return
	}

	span.SetAttributes(
		attribute.String("registration_id", registrationID),
		attribute.String("target_status", req.Status),
	)

	result, err := h.registrationService.UpdateStatus(ctx, registrationID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// handleError converts domain errors to HTTP responses
func (h *RegistrationHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "EVENT_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrRegistrationNotFound),
		errors.Is(err, domain.ErrNotRegistered):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "REGISTRATION_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrRegistrationClosed):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "REGISTRATION_CLOSED",
		})
	case errors.Is(err, domain.ErrEventFull):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "EVENT_FULL",
		})
	case errors.Is(err, domain.ErrAlreadyRegistered):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "ALREADY_REGISTERED",
		})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_TRANSITION",
		})
	case errors.Is(err, domain.ErrStorageConflict):
		// Already retried once; tell the client to try again
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:   err.Error(),
			Code:    "CONFLICT_RETRY",
			Message: "The operation conflicted with concurrent writes. Please retry.",
		})
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}

// parsePagination reads page/page_size query parameters with defaults
func parsePagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p := c.Query("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if n, err := strconv.Atoi(ps); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}
