package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const toolsCacheKey = "tools"

func toolCacheKey(id int64) string {
	return "tools:" + strconv.FormatInt(id, 10)
}

func toolPath(id int64) string {
	return "/api/tools/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var tools []Tool
	if err := c.getCached(ctx, toolsCacheKey, "/api/tools", nil, &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

func (c *Client) GetTool(ctx context.Context, id int64) (Tool, error) {
	var tool Tool
	if err := c.getCached(ctx, toolCacheKey(id), toolPath(id), nil, &tool); err != nil {
		return Tool{}, err
	}
	if tool.ID == 0 {
		return Tool{}, fmt.Errorf("tool %d: empty response", id)
	}
	return tool, nil
}

func (c *Client) CreateTool(ctx context.Context, input ToolInput) (Tool, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/tools", nil, input)
	if err != nil {
		return Tool{}, err
	}
	var tool Tool
	if err := c.doJSON(req, &tool); err != nil {
		return Tool{}, err
	}
	c.invalidateCache(ctx, toolsCacheKey)
	return tool, nil
}

func (c *Client) UpdateTool(ctx context.Context, id int64, input ToolInput) (Tool, error) {
	req, err := c.newRequest(ctx, http.MethodPut, toolPath(id), nil, input)
	if err != nil {
		return Tool{}, err
	}
	var tool Tool
	if err := c.doJSON(req, &tool); err != nil {
		return Tool{}, err
	}
	c.invalidateCache(ctx, toolsCacheKey, toolCacheKey(id))
	return tool, nil
}

func (c *Client) DeleteTool(ctx context.Context, id int64) error {
	req, err := c.newRequest(ctx, http.MethodDelete, toolPath(id), nil, nil)
	if err != nil {
		return err
	}
	if err := c.doJSON(req, nil); err != nil {
		return err
	}
	c.invalidateCache(ctx, toolsCacheKey, toolCacheKey(id))
	return nil
}

// CheckAvailability asks the server whether [start, end] is free. Never cached.
func (c *Client) CheckAvailability(ctx context.Context, id int64, start, end time.Time) (bool, error) {
	q := url.Values{}
	q.Set("startDate", start.Format("2006-01-02"))
	q.Set("endDate", end.Format("2006-01-02"))

	req, err := c.newRequest(ctx, http.MethodGet, toolPath(id)+"/check-availability", q, nil)
	if err != nil {
		return false, err
	}
	var resp AvailabilityResponse
	if err := c.doJSON(req, &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}
