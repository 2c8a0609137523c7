package operator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jask/planwizard/internal/database/repository"
)

const maxPageSize = 1 << 20

// Cache stores raw response bodies. It is purged when a new version is detected.
type Cache interface {
	Get(ctx context.Context, key string, maxAge time.Duration) (*repository.CacheEntry, error)
	Put(ctx context.Context, key string, body []byte) error
}

// HTTPSource reads operators from the REST backend:
// GET {BaseURL}/operators?page=N&page_size=M&search=term -> {"items": [...], "total_pages": N}
type HTTPSource struct {
	BaseURL   string
	PageSize  int
	Client    *http.Client
	Cache     Cache
	CacheTTL  time.Duration
	InstallID string
	Log       *zap.Logger
}

type pagePayload struct {
	Items      []Operator `json:"items"`
	TotalPages int        `json:"total_pages"`
}

func (h *HTTPSource) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func (h *HTTPSource) Fetch(ctx context.Context, page int, search string) (Page, error) {
	target, err := h.pageURL(page, search)
	if err != nil {
		return Page{}, err
	}

	if h.Cache != nil {
		entry, err := h.Cache.Get(ctx, target, h.CacheTTL)
		if err != nil {
			h.logger().Debug("operator cache read", zap.Error(err))
		}
		if entry != nil {
			if p, err := decodePage(entry.Body, page, search); err == nil {
				h.logger().Debug("operator page from cache", zap.String("key", target))
				return p, nil
			}
		}
	}

	body, err := h.get(ctx, target)
	if err != nil {
		return Page{}, err
	}
	p, err := decodePage(body, page, search)
	if err != nil {
		return Page{}, err
	}
	if h.Cache != nil {
		if err := h.Cache.Put(ctx, target, body); err != nil {
			h.logger().Debug("operator cache write", zap.Error(err))
		}
	}
	return p, nil
}

func (h *HTTPSource) pageURL(page int, search string) (string, error) {
	u, err := url.Parse(h.BaseURL)
	if err != nil {
		return "", fmt.Errorf("operators base url: %w", err)
	}
	u = u.JoinPath("operators")
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	if h.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(h.PageSize))
	}
	if search != "" {
		q.Set("search", search)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (h *HTTPSource) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if h.InstallID != "" {
		req.Header.Set("X-Install-ID", h.InstallID)
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch operators: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch operators: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("read operators: %w", err)
	}
	return body, nil
}

func decodePage(body []byte, page int, search string) (Page, error) {
	var payload pagePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Page{}, fmt.Errorf("decode operators: %w", err)
	}
	return Page{Items: payload.Items, Page: page, TotalPages: payload.TotalPages, Search: search}, nil
}
