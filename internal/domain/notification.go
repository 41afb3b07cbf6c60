package domain

import (
	"errors"
	"time"
)

// ErrNotificationNotFound indicates that the notification is not found.
var ErrNotificationNotFound = errors.New("notification not found")

// Notification is a message addressed to one principal.
type Notification struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateNotificationParams is the input data to deliver a notification.
type CreateNotificationParams struct {
	Owner   string `json:"owner"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
