package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"roadwatch/internal/config"
	"roadwatch/internal/domain"
	"roadwatch/internal/redis"
	"roadwatch/pkg/e"
)

// BroadcastSender drains the queue and posts messages to the
// configured sink. With no sink URL it logs the messages instead, so
// local runs still show what would have gone out.
type BroadcastSender struct {
	logger *slog.Logger
	url    string
	queue  *redis.BroadcastQueue
	http   *http.Client
}

func NewBroadcastSender(logger *slog.Logger, engine config.EngineConfig, q *redis.BroadcastQueue) *BroadcastSender {
	return &BroadcastSender{
		logger: logger,
		url:    engine.BroadcastURL,
		queue:  q,
		http:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *BroadcastSender) Run(ctx context.Context) {
	s.logger.Info("broadcastSender STARTED", slog.String("url", s.url))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("broadcastSender STOPPED", slog.String("reason", ctx.Err().Error()))
			return
		default:
		}

		msg, err := s.queue.BRPop(ctx, 5*time.Second)
		if err != nil {
			if errors.Is(err, e.ErrQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			s.logger.Error("BRPop failed", slog.Any("error", err))
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if s.url == "" {
			s.logger.Info("broadcast (no sink configured)",
				slog.String("text", msg.Text),
				slog.Bool("critical", msg.Critical))
			continue
		}

		s.sendWithRetry(ctx, msg)
	}
}

func (s *BroadcastSender) sendWithRetry(ctx context.Context, msg domain.BroadcastMessage) {
	const maxRetries = 3

	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshal broadcast message failed", slog.String("error", err.Error()))
		return
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			s.logger.Info("stop retries due to context cancel")
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			s.logger.Error("create broadcast request failed", slog.String("error", err.Error()))
			return
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := s.http.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}

		reason := "unknown"
		if err != nil {
			reason = err.Error()
		} else if resp != nil {
			reason = resp.Status
		}

		s.logger.Warn("broadcast delivery failed",
			slog.Int("attempt", attempt),
			slog.String("url", s.url),
			slog.String("reason", reason),
		)

		time.Sleep(time.Duration(attempt) * time.Second)
	}
}
