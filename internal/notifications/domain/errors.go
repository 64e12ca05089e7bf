package notifications

import "errors"

var (
	// ErrStoreClosed is returned when an operation runs after the store was disposed.
	ErrStoreClosed = errors.New("notifications: store closed")
	// ErrEmptyID is returned when a notification id is empty.
	ErrEmptyID = errors.New("notifications: empty id")
	// ErrPartialMarkAll is returned when some mark-read calls of a mark-all failed.
	ErrPartialMarkAll = errors.New("notifications: some notifications could not be marked as read")
	// ErrEmptyTitle is returned when a draft has no title.
	ErrEmptyTitle = errors.New("notifications: title is required")
	// ErrEmptyBody is returned when a draft has no body.
	ErrEmptyBody = errors.New("notifications: body is required")
)
