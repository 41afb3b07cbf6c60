package domain

import (
	"errors"
	"time"
)

var (
	// ErrSplitNotFound indicates that the split is not found or not visible to the caller.
	ErrSplitNotFound = errors.New("split not found")
	// ErrSplitNoParticipants indicates a split without participants.
	ErrSplitNoParticipants = errors.New("split must have at least one participant")
	// ErrSplitSharesMismatch indicates that the shares do not add up to the total.
	ErrSplitSharesMismatch = errors.New("split shares do not add up to the total amount")
	// ErrSplitParticipantNotFound indicates that a participant email does not resolve to a user.
	ErrSplitParticipantNotFound = errors.New("split participant not found")
	// ErrSplitDuplicateParticipant indicates the same user listed twice.
	ErrSplitDuplicateParticipant = errors.New("split participant listed more than once")
	// ErrNotSplitParticipant indicates that the caller does not owe a share of the split.
	ErrNotSplitParticipant = errors.New("not a participant of the split")
	// ErrSplitAlreadySettled indicates that the participant's share is no longer pending.
	ErrSplitAlreadySettled = errors.New("split share already settled")
)

// SplitStatus is the lifecycle status of a split.
type SplitStatus string

// Split statuses.
const (
	SplitPending   SplitStatus = "pending"
	SplitCompleted SplitStatus = "completed"
	SplitFailed    SplitStatus = "failed"
)

// Split is a bill shared by a creator among participants.
type Split struct {
	ID           int64              `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Creator      string             `json:"creator"`
	TotalAmount  Money              `json:"total_amount"`
	Status       SplitStatus        `json:"status"`
	Participants []SplitParticipant `json:"participants"`
	CreatedAt    time.Time          `json:"created_at"`
}

// Participant returns the participant with the given username.
func (s Split) Participant(username string) (SplitParticipant, bool) {
	for _, p := range s.Participants {
		if p.Username == username {
			return p, true
		}
	}

	return SplitParticipant{}, false
}

// SplitParticipant is one share of a split.
type SplitParticipant struct {
	Position     int          `json:"position"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	FullName     string       `json:"full_name"`
	Share        Money        `json:"share"`
	Paid         bool         `json:"paid"`
	RecordID     int64        `json:"record_id"`
	RecordStatus RecordStatus `json:"record_status"`
}

// CreateSplitParams is the validated input to persist a split.
type CreateSplitParams struct {
	Title        string
	Description  string
	Creator      string
	CreatorEmail string
	TotalAmount  Money
	Participants []SplitParticipant
}

// SplitSettlement ties a transfer to the split share it pays.
type SplitSettlement struct {
	SplitID  int64
	Username string
	RecordID int64
}

// SplitShareRequest is one participant share as submitted by the creator.
type SplitShareRequest struct {
	Email  string `json:"email"`
	Amount string `json:"amount"`
}

// CreateSplitRequest is the unvalidated input of a new split.
type CreateSplitRequest struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	TotalAmount  string              `json:"total_amount"`
	Participants []SplitShareRequest `json:"participants"`
}
