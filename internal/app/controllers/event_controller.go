package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/bojio/internal/app/models"
	"github.com/yigit/bojio/internal/app/models/dto"
	"github.com/yigit/bojio/internal/app/services"
	"github.com/yigit/bojio/internal/middleware"
	"github.com/yigit/bojio/internal/pkg/apperrors"
	"github.com/yigit/bojio/internal/pkg/filestorage"
	"github.com/yigit/bojio/internal/pkg/helpers"
	"github.com/yigit/bojio/internal/pkg/logger"
)

const eventImageDir = "events"

// EventController handles events, their replies and participation
type EventController struct {
	eventService services.EventService
	fileStorage  filestorage.FileStorage
}

// NewEventController creates a new EventController
func NewEventController(eventService services.EventService, fileStorage filestorage.FileStorage) *EventController {
	return &EventController{
		eventService: eventService,
		fileStorage:  fileStorage,
	}
}

// eventFields turns the request into service input. An inline data: image is
// stored first; stored reports whether a file was written for this request.
func (c *EventController) eventFields(req dto.EventRequest) (fields models.EventFields, stored bool, err error) {
	date, err := helpers.ParseOptionalTime(req.Date)
	if err != nil {
		return fields, false, apperrors.NewValidationError("date must be RFC3339 or YYYY-MM-DD")
	}

	image := req.Image
	if filestorage.IsDataURI(image) {
		image, err = c.fileStorage.SaveDataURI(image, eventImageDir)
		if err != nil {
			if errors.Is(err, filestorage.ErrInvalidDataURI) || errors.Is(err, filestorage.ErrNotAnImage) || errors.Is(err, filestorage.ErrTooLarge) {
				return fields, false, apperrors.NewValidationError("image: " + err.Error())
			}
			return fields, false, err
		}
		stored = true
	}

	return models.EventFields{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Location:    req.Location,
		Image:       image,
	}, stored, nil
}

// discardImage removes an image stored for a request that then failed
func (c *EventController) discardImage(fields models.EventFields, stored bool) {
	if !stored {
		return
	}
	if err := c.fileStorage.DeleteFile(fields.Image); err != nil {
		logger.Warn().Err(err).Str("image", fields.Image).Msg("Failed to discard event image")
	}
}

// GetEvents lists root events
// @Summary List events
// @Description Lists root events, newest first, with replies and polls resolved
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size (max 100)" default(20) minimum(1) maximum(100)
// @Success 200 {object} dto.StructuredResponse{data=dto.PaginatedResponse{items=[]models.EventDetail}} "Events retrieved successfully"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events [get]
func (c *EventController) GetEvents(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.eventService.FetchEvents(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondPage(ctx, result, "Events retrieved successfully")
}

// GetEventByID retrieves an event with replies and polls
// @Summary Get event by ID
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID" Format(uuid)
// @Success 200 {object} dto.StructuredResponse{data=models.EventDetail} "Event retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid event ID format"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id} [get]
func (c *EventController) GetEventByID(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	event, err := c.eventService.FetchEventByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(event, "Event retrieved successfully"))
}

// CreateEvent creates a root event for the caller
// @Summary Create event
// @Description Creates a root event. image may be a URL or a base64 data: URI. communityId is the community's external id.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.EventRequest true "Event"
// @Success 201 {object} dto.StructuredResponse{data=models.Event} "Event created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 404 {object} dto.ErrorResponse "Author or community not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	var req dto.EventRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	fields, stored, err := c.eventFields(req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	event, err := c.eventService.CreateEvent(ctx.Request.Context(), currentUser(ctx).ExternalID, fields, req.CommunityID, req.Path)
	if err != nil {
		c.discardImage(fields, stored)
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(event, "Event created successfully"))
}

// UpdateEvent edits an event, possibly moving it to another community
// @Summary Update event
// @Description Root events may move between communities. Replies keep their thread's community.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID" Format(uuid)
// @Param request body dto.EventRequest true "Event"
// @Success 200 {object} dto.StructuredResponse{data=models.Event} "Event updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Event or community not found"
// @Router /events/{id} [put]
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.EventRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	fields, stored, err := c.eventFields(req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	event, err := c.eventService.UpdateEvent(ctx.Request.Context(), id, currentUser(ctx).ID, fields, req.CommunityID, req.Path)
	if err != nil {
		c.discardImage(fields, stored)
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(event, "Event updated successfully"))
}

// DeleteEvent deletes an event with its replies and polls
// @Summary Delete event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID" Format(uuid)
// @Param path query string false "Revalidation path token"
// @Success 200 {object} dto.StructuredResponse{data=dto.SuccessResponse} "Event deleted successfully"
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Failure 500 {object} dto.ErrorResponse "Cascade failed and was rolled back"
// @Router /events/{id} [delete]
func (c *EventController) DeleteEvent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.eventService.DeleteEvent(ctx.Request.Context(), id, currentUser(ctx).ID, ctx.Query("path")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(dto.SuccessResponse{Message: "Event deleted"}, "Event deleted successfully"))
}

// AddComment replies to an event
// @Summary Comment on event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parent event ID" Format(uuid)
// @Param request body dto.EventCommentRequest true "Comment"
// @Success 201 {object} dto.StructuredResponse{data=models.Reply} "Comment added successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 404 {object} dto.ErrorResponse "Parent event not found"
// @Router /events/{id}/comments [post]
func (c *EventController) AddComment(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.EventCommentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user := currentUser(ctx)
	node, err := c.eventService.AddCommentToEvent(ctx.Request.Context(), id, req.Title, user.ID, req.Path)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(dto.ReplyFromNode(node, user.Summary()), "Comment added successfully"))
}

// JoinEvent adds the caller to the event's participants
// @Summary Join event
// @Description Idempotent: joining twice reports joined=false the second time
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID" Format(uuid)
// @Param path query string false "Revalidation path token"
// @Success 200 {object} dto.StructuredResponse{data=dto.JoinEventResponse} "Participation recorded"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id}/participants [post]
func (c *EventController) JoinEvent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	joined, err := c.eventService.AddParticipant(ctx.Request.Context(), id, currentUser(ctx).ID, ctx.Query("path"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(dto.JoinEventResponse{Joined: joined}, "Participation recorded"))
}

// GetParticipants lists the users taking part in an event
// @Summary Get event participants
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID" Format(uuid)
// @Success 200 {object} dto.StructuredResponse{data=[]models.AuthorSummary} "Participants retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id}/participants [get]
func (c *EventController) GetParticipants(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	participants, err := c.eventService.FetchParticipants(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(participants, "Participants retrieved successfully"))
}
