// Package version detects when the deployed application version no longer
// matches the version this installation last applied.
//
// A Checker performs one check and returns a Result; it never touches UI state.
// A Scheduler runs checks at startup and on a fixed interval and hands every
// Result to a consumer, which reduces it into a Banner.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jask/planwizard/internal/database/repository"
)

const maxDescriptorSize = 64 << 10

// Status is the outcome of one check.
type Status string

const (
	// StatusUnknown means no candidate produced a usable descriptor.
	StatusUnknown  Status = "unknown"
	StatusUpToDate Status = "up_to_date"
	StatusStale    Status = "stale"
)

// Record is the version descriptor served by the endpoints.
type Record struct {
	Version string `json:"version"`
}

// Result is produced by every check.
type Result struct {
	Status    Status
	Applied   string
	Observed  string
	Source    string
	Purged    int64
	CheckedAt time.Time
}

// Store persists the applied version.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Purger drops local response caches.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Checker fetches the version descriptor from the first working endpoint and
// compares it with the applied version.
type Checker struct {
	Endpoints []string
	Client    *http.Client
	Store     Store
	Caches    Purger
	Log       *zap.Logger

	now func() time.Time
}

func (c *Checker) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *Checker) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// Check never returns an error: failures are logged and reported as StatusUnknown.
func (c *Checker) Check(ctx context.Context) Result {
	log := c.logger()
	res := Result{Status: StatusUnknown, CheckedAt: c.clock()}

	rec, source, ok := c.Fetch(ctx)
	if !ok {
		log.Debug("version check: no usable endpoint", zap.Int("candidates", len(c.Endpoints)))
		return res
	}
	res.Observed, res.Source = rec.Version, source

	applied, found, err := c.Store.Get(ctx, repository.KeyAppliedVersion)
	if err != nil {
		log.Debug("version check: read applied version", zap.Error(err))
		return res
	}
	if !found || applied == "" {
		if err := c.Store.Set(ctx, repository.KeyAppliedVersion, rec.Version); err != nil {
			log.Debug("version check: persist first version", zap.Error(err))
		}
		res.Status, res.Applied = StatusUpToDate, rec.Version
		return res
	}
	res.Applied = applied
	if applied == rec.Version {
		res.Status = StatusUpToDate
		return res
	}

	res.Status = StatusStale
	if c.Caches != nil {
		n, err := c.Caches.Purge(ctx)
		if err != nil {
			log.Debug("version check: purge caches", zap.Error(err))
		}
		res.Purged = n
	}
	log.Info("new version detected",
		zap.String("applied", applied),
		zap.String("observed", rec.Version),
		zap.Int64("purged", res.Purged))
	return res
}

// Acknowledge records v as applied, typically right before a reload.
func (c *Checker) Acknowledge(ctx context.Context, v string) error {
	if err := c.Store.Set(ctx, repository.KeyAppliedVersion, v); err != nil {
		return fmt.Errorf("acknowledge version %s: %w", v, err)
	}
	return nil
}

// Fetch tries each endpoint in order and returns the first well-formed descriptor.
func (c *Checker) Fetch(ctx context.Context) (Record, string, bool) {
	for _, endpoint := range c.Endpoints {
		rec, err := c.fetchOne(ctx, endpoint)
		if err != nil {
			c.logger().Debug("version endpoint skipped", zap.String("endpoint", endpoint), zap.Error(err))
			continue
		}
		return rec, endpoint, true
	}
	return Record{}, "", false
}

func (c *Checker) fetchOne(ctx context.Context, endpoint string) (Record, error) {
	target, err := bust(endpoint, c.clock())
	if err != nil {
		return Record{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Record{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Record{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Record{}, fmt.Errorf("status %d", resp.StatusCode)
	}
	if !isJSON(resp.Header.Get("Content-Type")) {
		return Record{}, fmt.Errorf("content type %q is not json", resp.Header.Get("Content-Type"))
	}
	var rec Record
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDescriptorSize)).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode descriptor: %w", err)
	}
	rec.Version = strings.TrimSpace(rec.Version)
	if rec.Version == "" {
		return Record{}, fmt.Errorf("descriptor has no version")
	}
	return rec, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// bust appends a cache-busting parameter so intermediaries never serve a stale descriptor.
func bust(endpoint string, now time.Time) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("_", strconv.FormatInt(now.UnixNano(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
