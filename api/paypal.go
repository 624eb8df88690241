package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const PayPalCompleted = "COMPLETED"

type PayPalOrderRequest struct {
	ToolID    int64  `json:"toolId"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type PayPalLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

type PayPalOrder struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Links  []PayPalLink `json:"links"`
}

func (o PayPalOrder) ApprovalURL() string {
	for _, link := range o.Links {
		if strings.EqualFold(link.Rel, "approve") || strings.EqualFold(link.Rel, "payer-action") {
			return link.Href
		}
	}
	return ""
}

// CreatePayPalOrder sends requestID as PayPal-Request-Id so a resubmitted order is not duplicated.
func (c *Client) CreatePayPalOrder(ctx context.Context, payload PayPalOrderRequest, requestID string) (PayPalOrder, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/paypal/orders", nil, payload)
	if err != nil {
		return PayPalOrder{}, err
	}
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}
	var order PayPalOrder
	if err := c.doJSON(req, &order); err != nil {
		return PayPalOrder{}, err
	}
	if order.ID == "" {
		return PayPalOrder{}, fmt.Errorf("paypal order missing id")
	}
	return order, nil
}

func (c *Client) CapturePayPalOrder(ctx context.Context, orderID string) (PayPalOrder, error) {
	path := "/api/paypal/orders/" + url.PathEscape(orderID) + "/capture"
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return PayPalOrder{}, err
	}
	var order PayPalOrder
	if err := c.doJSON(req, &order); err != nil {
		return PayPalOrder{}, err
	}
	if order.ID == "" {
		order.ID = orderID
	}
	return order, nil
}
