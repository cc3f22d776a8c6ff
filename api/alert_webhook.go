package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// alertQueueSize is the bounded channel capacity for outbound alert events.
const alertQueueSize = 256

// AlertWebhook dispatches anomaly alerts to an external HTTP endpoint.
// Events are enqueued non-blockingly into a bounded channel and sent by a
// background goroutine. If the channel is full, events are dropped.
type AlertWebhook struct {
	url        string
	authHeader string // "Header: Value" format, e.g., "Authorization: Bearer xxx"
	client     *http.Client
	events     chan AlertEvent
	wg         sync.WaitGroup
}

// NewAlertWebhook creates a webhook dispatcher and starts its background loop.
// Its Notify method satisfies AlertFunc.
func NewAlertWebhook(url, authHeader string) *AlertWebhook {
	w := &AlertWebhook{
		url:        url,
		authHeader: authHeader,
		client:     &http.Client{Timeout: 10 * time.Second},
		events:     make(chan AlertEvent, alertQueueSize),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Notify adds an alert to the dispatch queue. If the queue is full, the
// alert is dropped and a warning is logged. This method never blocks.
func (w *AlertWebhook) Notify(evt AlertEvent) {
	select {
	case w.events <- evt:
	default:
		slog.Warn("alert webhook: queue full, dropping alert", "type", string(evt.Type))
	}
}

// Close shuts down the webhook dispatcher, draining any remaining alerts.
func (w *AlertWebhook) Close() {
	close(w.events)
	w.wg.Wait()
}

// loop reads from the event channel and sends each alert.
func (w *AlertWebhook) loop() {
	defer w.wg.Done()
	for evt := range w.events {
		w.send(evt)
	}
}

// send POSTs the alert to the configured URL. Delivery is best-effort; a
// failed send is logged and dropped.
func (w *AlertWebhook) send(evt AlertEvent) {
	body, err := json.Marshal(evt)
	if err != nil {
		slog.Warn("alert webhook: marshal failed", "error", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		slog.Warn("alert webhook: building request failed", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if w.authHeader != "" {
		if name, value, ok := strings.Cut(w.authHeader, ":"); ok {
			req.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
		}
	}

	resp, err := w.client.Do(req)
	if err != nil {
		slog.Warn("alert webhook: send failed", "error", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		slog.Warn("alert webhook: non-2xx response", "status", resp.StatusCode)
	}
}
