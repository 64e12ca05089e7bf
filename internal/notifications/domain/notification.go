package notifications

import "time"

// Notification is a platform notification addressed to the signed-in admin or broadcast.
type Notification struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Recipient *string   `json:"recipient,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsBroadcast reports whether the notification has no explicit recipient.
func (n Notification) IsBroadcast() bool {
	return n.Recipient == nil || *n.Recipient == ""
}

// CountUnread counts notifications with Read == false.
func CountUnread(list []Notification) int {
	count := 0
	for _, n := range list {
		if !n.Read {
			count++
		}
	}
	return count
}

// UnreadIDs returns the ids of unread notifications, skipping entries without an id.
func UnreadIDs(list []Notification) []string {
	ids := make([]string, 0, len(list))
	for _, n := range list {
		if !n.Read && n.ID != "" {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Snapshot is a consistent copy of the store state.
type Snapshot struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

// Draft is the payload for creating a notification.
type Draft struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Recipient string `json:"recipient,omitempty"`
}

// Validate checks required fields.
func (d Draft) Validate() error {
	if d.Title == "" {
		return ErrEmptyTitle
	}
	if d.Body == "" {
		return ErrEmptyBody
	}
	return nil
}
