// Package history maintains the append-only price history table by paging
// through the upstream per-product history API.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"shard-profit-tracker/internal/bazaar"
	"shard-profit-tracker/internal/config"
	"shard-profit-tracker/internal/models"
	"shard-profit-tracker/internal/store"
)

// Stored timestamps are wall-clock times in this fixed offset; the upstream
// data source publishes in it and the freshness check compares in it.
var utcMinus6 = time.FixedZone("UTC-6", -6*60*60)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Status is a point-in-time snapshot of the refresh job.
type Status struct {
	Running    bool   `json:"isRunning"`
	Progress   int    `json:"progress"`
	Total      int    `json:"total"`
	Message    string `json:"message"`
	LastUpdate string `json:"lastUpdate,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Refresher runs the price history update as a background task. It is
// single-flight: Start while a run is active is a no-op. There is no early
// cancellation; a run ends when its product list is exhausted.
type Refresher struct {
	store     *store.Store
	client    bazaar.ClientInterface
	logger    *zap.Logger
	limiter   *rate.Limiter
	freshness time.Duration

	mu     sync.Mutex
	status Status
}

// NewRefresher creates a new Refresher.
func NewRefresher(s *store.Store, client bazaar.ClientInterface, cfg *config.History, logger *zap.Logger) *Refresher {
	return &Refresher{
		store:     s,
		client:    client,
		logger:    logger.Named("history"),
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		freshness: time.Duration(cfg.FreshnessMinutes) * time.Minute,
	}
}

// Start launches a refresh run in the background. Returns false (and does
// nothing else) when a run is already active.
func (r *Refresher) Start() bool {
	r.mu.Lock()
	if r.status.Running {
		r.mu.Unlock()
		r.logger.Info("Price history update is already running")
		return false
	}
	r.status = Status{Running: true, Message: "Initializing price history update..."}
	r.mu.Unlock()

	go r.run()
	return true
}

// Status returns a snapshot of the job state with a human-readable message.
func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.status
	switch {
	case st.Running && st.Total > 0:
		percent := st.Progress * 100 / st.Total
		st.Message = fmt.Sprintf("Updating price history: %d of %d shards processed (%d%% complete)",
			st.Progress, st.Total, percent)
	case !st.Running && st.Error != "":
		st.Message = fmt.Sprintf("Error updating price history: %s", st.Error)
	case !st.Running && st.LastUpdate != "":
		st.Message = fmt.Sprintf("Price history last updated at %s", st.LastUpdate)
	}
	return st
}

func (r *Refresher) setMessage(message string) {
	r.mu.Lock()
	r.status.Message = message
	r.mu.Unlock()
	r.logger.Info(message)
}

func (r *Refresher) finish(mutate func(*Status)) {
	r.mu.Lock()
	r.status.Running = false
	if mutate != nil {
		mutate(&r.status)
	}
	r.mu.Unlock()
}

func (r *Refresher) run() {
	productIDs, err := r.store.ProductIDs()
	if err != nil {
		// Enumeration failure is the one fatal error; per-item failures
		// below are swallowed.
		r.logger.Error("Failed to enumerate products for price history", zap.Error(err))
		r.finish(func(st *Status) { st.Error = err.Error() })
		return
	}

	r.mu.Lock()
	r.status.Total = len(productIDs)
	r.mu.Unlock()
	r.setMessage(fmt.Sprintf("Starting to update %d shards...", len(productIDs)))

	latest, err := r.store.LatestSampleTimestamp()
	if err != nil {
		r.logger.Error("Failed to read latest sample timestamp", zap.Error(err))
		r.finish(func(st *Status) { st.Error = err.Error() })
		return
	}
	if r.isFresh(latest) {
		r.logger.Info("Price history data is already up to date",
			zap.String("latest", latest),
			zap.Duration("freshness_window", r.freshness))
		r.finish(func(st *Status) {
			st.Progress = st.Total
			st.LastUpdate = latest
		})
		return
	}

	ctx := context.Background()
	for i, productID := range productIDs {
		if err := r.limiter.Wait(ctx); err != nil {
			r.finish(func(st *Status) { st.Error = err.Error() })
			return
		}

		r.setMessage(fmt.Sprintf("Updating shard %d of %d: %s", i+1, len(productIDs), productID))

		if err := r.refreshProduct(productID); err != nil {
			// Continue-on-error: the remaining shards still get their data.
			r.setMessage(fmt.Sprintf("Error processing shard %s: %v", productID, err))
		}

		r.mu.Lock()
		r.status.Progress = i + 1
		r.mu.Unlock()
	}

	completedAt := time.Now().In(utcMinus6).Format(time.RFC3339)
	r.finish(func(st *Status) { st.LastUpdate = completedAt })
	r.logger.Info("Price history update complete",
		zap.Int("products", len(productIDs)),
		zap.String("completed_at", completedAt))
}

func (r *Refresher) refreshProduct(productID string) error {
	entries, err := r.client.GetProductHistory(productID)
	if err != nil {
		return err
	}

	samples := make([]models.PriceSample, 0, len(entries))
	for _, entry := range entries {
		if entry.Buy == nil || entry.Sell == nil {
			r.logger.Debug("Skipping history entry with missing price",
				zap.String("product_id", productID),
				zap.String("timestamp", entry.Timestamp))
			continue
		}
		samples = append(samples, models.PriceSample{
			ProductID: productID,
			Timestamp: entry.Timestamp,
			BuyPrice:  *entry.Buy,
			SellPrice: *entry.Sell,
		})
	}

	return r.store.InsertSamples(samples)
}

// ParseTimestamp parses a stored sample timestamp. The stamp is
// reinterpreted as UTC-6 wall time regardless of any zone suffix it
// carries, matching how it was written.
func ParseTimestamp(value string) (time.Time, error) {
	var parsed time.Time
	var err error
	for _, layout := range timestampLayouts {
		parsed, err = time.Parse(layout, value)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), parsed.Nanosecond(), utcMinus6), nil
}

// isFresh reports whether the newest stored sample is inside the freshness
// window.
func (r *Refresher) isFresh(latest string) bool {
	if latest == "" {
		return false
	}
	wall, err := ParseTimestamp(latest)
	if err != nil {
		r.logger.Warn("Unparseable latest sample timestamp", zap.String("timestamp", latest))
		return false
	}
	return time.Since(wall) < r.freshness
}
