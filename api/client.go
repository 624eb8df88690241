package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "http://localhost:8080"
	defaultUserAgent = "toolrent-cli/1.0"
	defaultTimeout   = 15 * time.Second
)

// ErrUnauthorized matches 401 and 403 responses.
var ErrUnauthorized = errors.New("unauthorized")

// Error is returned for every non-2xx response.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s failed: %s", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s failed: %s: %s", e.Method, e.Path, e.Status, e.Body)
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && (e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

type Client struct {
	HTTP        *http.Client
	BaseURL     string
	UserAgent   string
	AccessToken string
	Limiter     *rate.Limiter
	Logger      zerolog.Logger

	// OnUnauthorized runs once per 401/403 response, before the error is returned.
	OnUnauthorized func()

	redis    *redis.Client
	cacheTTL time.Duration
}

func NewClient() *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: defaultTimeout},
		BaseURL:   DefaultBaseURL,
		UserAgent: defaultUserAgent,
		Logger:    zerolog.Nop(),
	}
}

// UseRedisCache enables caching of catalog GET responses.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, payload any) (*http.Request, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	path = strings.TrimPrefix(path, "/")
	base.Path = strings.TrimSuffix(base.Path, "/") + "/" + path
	if query != nil {
		base.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	started := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Logger.Debug().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("request failed")
		return nil, err
	}
	c.Logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(started)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &Error{
			Method:     req.Method,
			Path:       req.URL.Path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
		if errors.Is(apiErr, ErrUnauthorized) && c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) doJSON(req *http.Request, dest any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) getCached(ctx context.Context, cacheKey, path string, query url.Values, dest any) error {
	if c.readCache(ctx, cacheKey, dest) {
		c.Logger.Debug().Str("key", cacheKey).Msg("cache hit")
		return nil
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := c.doJSON(req, dest); err != nil {
		return err
	}
	c.writeCache(ctx, cacheKey, dest)
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *Client) invalidateCache(ctx context.Context, keys ...string) {
	if c.redis == nil || len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.Logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}
