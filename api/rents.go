package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListRents returns every rental, or only those of one tool when toolID is non-zero.
// Some deployments ignore the toolId filter, so callers still filter by ToolRef.
func (c *Client) ListRents(ctx context.Context, toolID int64) ([]Rental, error) {
	var q url.Values
	if toolID != 0 {
		q = url.Values{}
		q.Set("toolId", strconv.FormatInt(toolID, 10))
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/rents", q, nil)
	if err != nil {
		return nil, err
	}
	var rents []Rental
	if err := c.doJSON(req, &rents); err != nil {
		return nil, err
	}
	return rents, nil
}

func (c *Client) CreateRent(ctx context.Context, input RentalInput) (Rental, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/rents", nil, input)
	if err != nil {
		return Rental{}, err
	}
	var rent Rental
	if err := c.doJSON(req, &rent); err != nil {
		return Rental{}, err
	}
	if rent.ID == 0 {
		return Rental{}, fmt.Errorf("create rental: response missing id")
	}
	return rent, nil
}

func (c *Client) UpdateRentStatus(ctx context.Context, id int64, status string) (Rental, error) {
	path := "/api/rents/" + strconv.FormatInt(id, 10) + "/status"
	req, err := c.newRequest(ctx, http.MethodPut, path, nil, map[string]string{"status": status})
	if err != nil {
		return Rental{}, err
	}
	var rent Rental
	if err := c.doJSON(req, &rent); err != nil {
		return Rental{}, err
	}
	return rent, nil
}
