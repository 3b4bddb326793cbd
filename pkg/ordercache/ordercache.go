// Package ordercache is the device-local record of in-flight orders used by
// the customer menu page. It is a disposable hint, never a source of truth:
// the poller always reconciles against the server's status before trusting
// a cached one.
package ordercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/sdiallo/tably/internal/models"
)

// TTL bounds how long a saved order stays interesting to the device.
const TTL = 24 * time.Hour

type Entry struct {
	OrderID   string             `json:"order_id"`
	Status    models.OrderStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

type Cache struct {
	path string
	now  func() time.Time
}

func Open(path string) *Cache {
	return &Cache{path: path, now: time.Now}
}

// Load returns the live entries: younger than TTL and not yet COMPLETED.
// Everything else is silently dropped on the next save.
func (c *Cache) Load() ([]Entry, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var all []Entry
	if err := json.Unmarshal(data, &all); err != nil {
		// A corrupt cache is worthless; start over.
		return nil, nil
	}

	cutoff := c.now().Add(-TTL)
	live := make([]Entry, 0, len(all))
	for _, e := range all {
		if e.CreatedAt.Before(cutoff) {
			continue
		}
		if e.Status == models.OrderStatusCompleted {
			continue
		}
		live = append(live, e)
	}
	return live, nil
}

// Remember inserts or updates an entry and persists the filtered list.
func (c *Cache) Remember(entry Entry) error {
	live, err := c.Load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range live {
		if live[i].OrderID == entry.OrderID {
			live[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		live = append(live, entry)
	}
	return c.save(live)
}

// Latest returns the most recent live entry, or nil when nothing is pending.
func (c *Cache) Latest() (*Entry, error) {
	live, err := c.Load()
	if err != nil {
		return nil, err
	}
	if len(live) == 0 {
		return nil, nil
	}
	sort.Slice(live, func(i, j int) bool {
		return live[i].CreatedAt.After(live[j].CreatedAt)
	})
	return &live[0], nil
}

func (c *Cache) save(entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}

// StatusFunc fetches the authoritative status for an order.
type StatusFunc func(ctx context.Context, orderID string) (models.OrderStatus, error)

// HTTPStatusFunc polls the public status endpoint of a running server.
func HTTPStatusFunc(baseURL string, client *http.Client) StatusFunc {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return func(ctx context.Context, orderID string) (models.OrderStatus, error) {
		url := fmt.Sprintf("%s/api/v1/orders/%s/status", baseURL, orderID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		res, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return "", fmt.Errorf("status endpoint returned %s", res.Status)
		}
		var parsed struct {
			Status models.OrderStatus `json:"status"`
		}
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			return "", err
		}
		return parsed.Status, nil
	}
}

// Poller reconciles the newest cached entry against the server on a plain
// wall-clock interval.
type Poller struct {
	Cache    *Cache
	Fetch    StatusFunc
	Interval time.Duration
}

// Reconcile refreshes the newest entry's status from the server and writes
// it back. Returns the refreshed entry, or nil when the cache is empty.
func (p *Poller) Reconcile(ctx context.Context) (*Entry, error) {
	latest, err := p.Cache.Latest()
	if err != nil || latest == nil {
		return nil, err
	}

	status, err := p.Fetch(ctx, latest.OrderID)
	if err != nil {
		return nil, err
	}

	latest.Status = status
	if err := p.Cache.Remember(*latest); err != nil {
		return nil, err
	}
	return latest, nil
}

// Run polls until the context is done.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.Reconcile(ctx); err != nil {
				// Keep polling; the next tick may succeed.
				continue
			}
		}
	}
}
