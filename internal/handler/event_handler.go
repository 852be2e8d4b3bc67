package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
	"github.com/yadev07/cs-eventsphere-backend/internal/dto"
	"github.com/yadev07/cs-eventsphere-backend/internal/service"
	"github.com/yadev07/cs-eventsphere-backend/pkg/telemetry"
)

// EventHandler handles event HTTP requests
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	organizerID := c.GetString("user_id")
	if organizerID == "" {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	var req dto.CreateEventRequest
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

	span.SetAttributes(attribute.String("organizer_id", organizerID))

	result, err := h.eventService.CreateEvent(ctx, organizerID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("event_id", result.ID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, result)
}

// GetEvent handles GET /events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.get")
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

	span.SetAttributes(attribute.String("event_id", eventID))

	result, err := h.eventService.GetEvent(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// ListEvents handles GET /events
func (h *EventHandler) ListEvents(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	status := c.Query("status")
	page, pageSize := parsePagination(c)

	span.SetAttributes(
		attribute.String("status", status),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)

	events, err := h.eventService.ListEvents(ctx, status, page, pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("count", len(events)))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(events, page, pageSize, len(events)))
}

// DeleteEvent handles DELETE /events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.delete")
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

	span.SetAttributes(attribute.String("event_id", eventID))

	if err := h.eventService.DeleteEvent(ctx, eventID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// handleError converts domain errors to HTTP responses
func (h *EventHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "EVENT_NOT_FOUND",
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
