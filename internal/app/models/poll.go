package models

import (
	"time"

	"github.com/google/uuid"
)

// PollOption is one choice of a poll with its running tally.
type PollOption struct {
	OptionText string `json:"optionText"`
	Votes      int    `json:"votes"`
}

// Poll belongs to an event. Voters is a set: each entry corresponds to exactly
// one applied vote.
type Poll struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	Question  string       `json:"question" db:"question"`
	Options   []PollOption `json:"options" db:"options"`
	Voters    []uuid.UUID  `json:"voters" db:"voters"`
	EventID   uuid.UUID    `json:"eventId" db:"event_id"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}

// HasVoter reports whether userID already voted
func (p *Poll) HasVoter(userID uuid.UUID) bool {
	for _, v := range p.Voters {
		if v == userID {
			return true
		}
	}
	return false
}

// HasOption reports whether text names one of the options exactly
func (p *Poll) HasOption(text string) bool {
	for _, o := range p.Options {
		if o.OptionText == text {
			return true
		}
	}
	return false
}

// OptionTally is an option with its share of the total.
type OptionTally struct {
	OptionText string  `json:"optionText"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// Tally is the computed result view of a poll.
type Tally struct {
	PollID     uuid.UUID     `json:"pollId"`
	Question   string        `json:"question"`
	Options    []OptionTally `json:"options"`
	TotalVotes int           `json:"totalVotes"`
}

// NewTally computes percentages from the stored counts. A poll without votes
// reports 0% for every option.
func NewTally(p *Poll) Tally {
	total := 0
	for _, o := range p.Options {
		total += o.Votes
	}

	options := make([]OptionTally, len(p.Options))
	for i, o := range p.Options {
		pct := 0.0
		if total > 0 {
			pct = float64(o.Votes) / float64(total) * 100
		}
		options[i] = OptionTally{OptionText: o.OptionText, Votes: o.Votes, Percentage: pct}
	}

	return Tally{PollID: p.ID, Question: p.Question, Options: options, TotalVotes: total}
}
