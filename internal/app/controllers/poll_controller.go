package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/bojio/internal/app/models/dto"
	"github.com/yigit/bojio/internal/app/services"
	"github.com/yigit/bojio/internal/middleware"
)

// PollController handles event polls and voting
type PollController struct {
	pollService services.PollService
}

// NewPollController creates a new PollController
func NewPollController(pollService services.PollService) *PollController {
	return &PollController{pollService: pollService}
}

// CreatePoll attaches a poll to an event
// @Summary Create poll
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID" Format(uuid)
// @Param request body dto.CreatePollRequest true "Poll"
// @Success 201 {object} dto.StructuredResponse{data=models.Poll} "Poll created successfully"
// @Failure 400 {object} dto.ErrorResponse "Empty or duplicate options"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id}/poll [post]
func (c *PollController) CreatePoll(ctx *gin.Context) {
	eventID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreatePollRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	poll, err := c.pollService.CreatePoll(ctx.Request.Context(), eventID, req.Question, req.Options, req.Path)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(poll, "Poll created successfully"))
}

// GetEventPoll names the poll attached to an event
// @Summary Get poll of event
// @Description pollId is null when the event has no poll
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID" Format(uuid)
// @Success 200 {object} dto.StructuredResponse{data=dto.EventPollResponse} "Poll lookup completed"
// @Router /events/{id}/poll [get]
func (c *PollController) GetEventPoll(ctx *gin.Context) {
	eventID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	pollID, err := c.pollService.GetPollIDForEvent(ctx.Request.Context(), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(dto.EventPollResponse{PollID: pollID}, "Poll lookup completed"))
}

// GetPoll retrieves a poll with its stored counts
// @Summary Get poll
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param id path string true "Poll ID" Format(uuid)
// @Success 200 {object} dto.StructuredResponse{data=models.Poll} "Poll retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Poll not found"
// @Router /polls/{id} [get]
func (c *PollController) GetPoll(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	poll, err := c.pollService.GetPoll(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(poll, "Poll retrieved successfully"))
}

// Vote casts the caller's single vote
// @Summary Vote on poll
// @Description optionText must match an option exactly. Each user votes at most once.
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Poll ID" Format(uuid)
// @Param request body dto.VoteRequest true "Vote"
// @Success 200 {object} dto.StructuredResponse{data=models.Tally} "Vote recorded"
// @Failure 404 {object} dto.ErrorResponse "Poll or option not found"
// @Failure 409 {object} dto.ErrorResponse "Already voted"
// @Router /polls/{id}/vote [post]
func (c *PollController) Vote(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.VoteRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	tally, err := c.pollService.Vote(ctx.Request.Context(), id, req.OptionText, currentUser(ctx).ID, req.Path)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(tally, "Vote recorded"))
}

// GetResults returns the tally with percentages
// @Summary Get poll results
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param id path string true "Poll ID" Format(uuid)
// @Success 200 {object} dto.StructuredResponse{data=models.Tally} "Results retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Poll not found"
// @Router /polls/{id}/results [get]
func (c *PollController) GetResults(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	tally, err := c.pollService.Tally(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(tally, "Results retrieved successfully"))
}

// HasVoted answers whether the caller already voted
// @Summary Check vote
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param id path string true "Poll ID" Format(uuid)
// @Success 200 {object} dto.StructuredResponse{data=dto.HasVotedResponse} "Vote status retrieved"
// @Router /polls/{id}/voted [get]
func (c *PollController) HasVoted(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	voted, err := c.pollService.HasVoted(ctx.Request.Context(), id, currentUser(ctx).ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(dto.HasVotedResponse{HasVoted: voted}, "Vote status retrieved"))
}
