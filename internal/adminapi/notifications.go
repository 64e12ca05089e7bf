package adminapi

import (
	"context"
	"net/http"
	"net/url"

	notifications "admin-dashboard/internal/notifications/domain"
)

// ListMyNotifications fetches the notifications addressed to the signed-in admin.
func (c *Client) ListMyNotifications(ctx context.Context) ([]notifications.Notification, error) {
	var resp listEnvelope[notifications.Notification]
	if err := c.doJSON(ctx, http.MethodGet, "/notifications/my", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []notifications.Notification{}, nil
	}
	return resp.Items, nil
}

// MarkNotificationRead marks one notification as read on the platform.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	return c.doJSON(ctx, http.MethodPatch, "/notifications/"+pathEscape(id)+"/read", nil, nil)
}

// ListNotifications lists notifications, optionally filtered by recipient.
func (c *Client) ListNotifications(ctx context.Context, recipient string) ([]notifications.Notification, error) {
	path := "/notifications"
	if recipient != "" {
		path += "?" + url.Values{"recipient": []string{recipient}}.Encode()
	}
	var resp listEnvelope[notifications.Notification]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []notifications.Notification{}, nil
	}
	return resp.Items, nil
}

// CreateNotification sends a new notification. An empty recipient broadcasts it.
func (c *Client) CreateNotification(ctx context.Context, draft notifications.Draft) (notifications.Notification, error) {
	if err := draft.Validate(); err != nil {
		return notifications.Notification{}, err
	}
	var resp struct {
		notifications.Notification
		Data *notifications.Notification `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/notification", draft, &resp); err != nil {
		return notifications.Notification{}, err
	}
	if resp.Data != nil {
		return *resp.Data, nil
	}
	return resp.Notification, nil
}
