package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", nil, payload)
	if err != nil {
		return AuthResponse{}, err
	}

	var resp AuthResponse
	if err := c.doJSON(req, &resp); err != nil {
		return AuthResponse{}, err
	}
	if resp.Token == "" {
		return AuthResponse{}, fmt.Errorf("login failed: missing token")
	}

	c.AccessToken = resp.Token
	return resp, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (AuthResponse, error) {
	payload := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/register", nil, payload)
	if err != nil {
		return AuthResponse{}, err
	}

	var resp AuthResponse
	if err := c.doJSON(req, &resp); err != nil {
		return AuthResponse{}, err
	}
	if resp.Token != "" {
		c.AccessToken = resp.Token
	}
	return resp, nil
}
