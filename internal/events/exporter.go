package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// ExporterConfig holds configuration for webhook event export.
type ExporterConfig struct {
	// WebhookURL receives JSON event batches via POST.
	WebhookURL string

	// APIKey, when set, is sent as a bearer token.
	APIKey string

	// BatchSize triggers an immediate export when reached.
	BatchSize int

	// Interval is the periodic flush cadence.
	Interval time.Duration
}

// Exporter batches events and ships them to a webhook, either when the
// batch fills or on a periodic flush. Export failures are logged and the
// batch dropped; event delivery is best-effort by design and never blocks
// an engine operation.
type Exporter struct {
	config     ExporterConfig
	httpClient *http.Client

	mu    sync.Mutex
	batch []Event

	cancel context.CancelFunc
	done   chan struct{}
}

// NewExporter creates an exporter and starts its periodic flush loop.
func NewExporter(config ExporterConfig) *Exporter {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.Logger = nil

	ctx, cancel := context.WithCancel(context.Background())
	e := &Exporter{
		config:     config,
		httpClient: retryClient.StandardClient(),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go e.loop(ctx)

	logrus.Infof("Event exporter initialized (webhook=%s, batch=%d)", config.WebhookURL, config.BatchSize)
	return e
}

// Add queues an event for export.
func (e *Exporter) Add(ev Event) {
	e.mu.Lock()
	e.batch = append(e.batch, ev)
	full := len(e.batch) >= e.config.BatchSize
	e.mu.Unlock()

	if full {
		go e.Flush()
	}
}

// Flush pushes the current batch to the webhook.
func (e *Exporter) Flush() {
	e.mu.Lock()
	if len(e.batch) == 0 {
		e.mu.Unlock()
		return
	}
	batch := e.batch
	e.batch = nil
	e.mu.Unlock()

	if err := e.post(batch); err != nil {
		logrus.Warnf("Event export failed, dropping %d events: %v", len(batch), err)
	}
}

// Stop flushes any pending events and terminates the loop.
func (e *Exporter) Stop() {
	e.cancel()
	<-e.done
	e.Flush()
}

func (e *Exporter) loop(ctx context.Context) {
	defer close(e.done)
	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Flush()
		}
	}
}

func (e *Exporter) post(batch []Event) error {
	payload, err := json.Marshal(map[string]interface{}{
		"events":      batch,
		"exported_at": time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshaling batch: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.config.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.config.APIKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
