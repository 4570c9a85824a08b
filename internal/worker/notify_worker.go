package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hireflow/assess-backend/internal/config"
	"github.com/hireflow/assess-backend/internal/model"
)

const (
	NotifyPollTimeout = 1 * time.Second
	notifyHTTPTimeout = 10 * time.Second
)

// NotifyWorker drains the notifications queue and POSTs each payload to the
// configured webhook. With no webhook configured, payloads are logged and
// dropped. Strictly fire and forget: one delivery attempt, no requeue, a
// failed notification never blocks anything upstream.
type NotifyWorker struct {
	webhookURL string
	rdb        *redis.Client
	client     *http.Client
	log        zerolog.Logger
}

func NewNotifyWorker(webhookURL string, rdb *redis.Client, log zerolog.Logger) *NotifyWorker {
	return &NotifyWorker{
		webhookURL: webhookURL,
		rdb:        rdb,
		client:     &http.Client{Timeout: notifyHTTPTimeout},
		log:        log.With().Str("component", "notify_worker").Logger(),
	}
}

func (w *NotifyWorker) Start(ctx context.Context) {
	w.log.Info().Bool("webhook_configured", w.webhookURL != "").Msg("NotifyWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return
		default:
		}

		item, err := w.rdb.BLPop(ctx, NotifyPollTimeout, config.WorkerKey.NotificationsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("BLPop error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(item) < 2 {
			continue
		}

		var p model.NotificationPayload
		if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
			w.log.Error().Err(err).Msg("Discarding malformed notification")
			continue
		}

		w.deliver(ctx, []byte(item[1]), &p)
	}
}

func (w *NotifyWorker) deliver(ctx context.Context, raw []byte, p *model.NotificationPayload) {
	if w.webhookURL == "" {
		w.log.Info().
			Str("kind", p.Kind).
			Str("session_id", p.SessionID).
			Str("candidate_id", p.CandidateID).
			Msg("notification (no webhook configured)")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(raw))
	if err != nil {
		w.log.Error().Err(err).Msg("build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.Warn().Err(err).Str("session_id", p.SessionID).Msg("webhook delivery failed")
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.log.Warn().Int("status", resp.StatusCode).Str("session_id", p.SessionID).Msg("webhook rejected notification")
	}
}
