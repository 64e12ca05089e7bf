package adminapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// AdminRole is the platform role allowed into the dashboard.
const AdminRole = "admin"

// LoginResult is the credential issued by the platform.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Login exchanges admin credentials for a bearer token.
// Non-admin accounts are rejected with ErrNotAdmin.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return LoginResult{}, errors.New("adminapi: email and password are required")
	}
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Data LoginResult `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return LoginResult{}, err
	}
	if resp.Data.Token == "" {
		return LoginResult{}, errors.New("adminapi: login response has no token")
	}
	if resp.Data.Role != AdminRole {
		return LoginResult{}, ErrNotAdmin
	}
	return resp.Data, nil
}
