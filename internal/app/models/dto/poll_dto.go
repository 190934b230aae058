package dto

import "github.com/google/uuid"

// CreatePollRequest attaches a poll to an event
type CreatePollRequest struct {
	Question string   `json:"question" binding:"required" example:"Which time works?"`
	Options  []string `json:"options" binding:"required,min=2,dive,required" example:"10am,2pm"`
	RevalidateRequest
}

// VoteRequest casts the caller's vote
type VoteRequest struct {
	OptionText string `json:"optionText" binding:"required" example:"10am"`
	RevalidateRequest
}

// HasVotedResponse answers whether the caller voted
type HasVotedResponse struct {
	HasVoted bool `json:"hasVoted"`
}

// EventPollResponse names the poll of an event, if any
type EventPollResponse struct {
	PollID *uuid.UUID `json:"pollId"`
}
