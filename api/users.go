package api

import (
	"context"
	"net/http"
	"strconv"
)

func userPath(id int64) string {
	return "/api/users/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/users", nil, nil)
	if err != nil {
		return nil, err
	}
	var users []User
	if err := c.doJSON(req, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int64, update UserUpdate) (User, error) {
	req, err := c.newRequest(ctx, http.MethodPut, userPath(id), nil, update)
	if err != nil {
		return User{}, err
	}
	var user User
	if err := c.doJSON(req, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	req, err := c.newRequest(ctx, http.MethodDelete, userPath(id), nil, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}
