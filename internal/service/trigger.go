package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
)

// ErrWebhookNotConfigured is returned by TriggerScraping when there are
// targets to scrape but nowhere to send them.
var ErrWebhookNotConfigured = errors.New("scrape webhook URL not configured")

// TriggerTarget is one target as sent to the scraping workflow
type TriggerTarget struct {
	ID             string `json:"id"`
	League         string `json:"league"`
	TournamentName string `json:"tournamentName"`
	URL            string `json:"url"`
	AutoApproval   bool   `json:"autoApproval"`
}

// TriggerPayload is the webhook body
type TriggerPayload struct {
	Trigger     string          `json:"trigger"`
	Timestamp   string          `json:"timestamp"`
	TargetCount int             `json:"targetCount"`
	Targets     []TriggerTarget `json:"targets"`
}

// TriggerResult reports what a trigger did
type TriggerResult struct {
	Message       string `json:"message"`
	Targets       int    `json:"targets"`
	Triggered     bool   `json:"triggered"`
	WebhookStatus int    `json:"webhookStatus,omitempty"`
}

// TriggerScraping sends every active tournament-mode target to the scraping
// workflow webhook. With no such target the webhook is not called.
func (s *Service) TriggerScraping(ctx context.Context, trigger string) (TriggerResult, error) {
	if err := s.guard(); err != nil {
		return TriggerResult{}, err
	}
	all, err := s.targets(ctx)
	if err != nil {
		return TriggerResult{}, err
	}

	payload := TriggerPayload{Trigger: trigger, Timestamp: s.now(), Targets: []TriggerTarget{}}
	for _, t := range all {
		if t.IsActive && t.TournamentMode {
			payload.Targets = append(payload.Targets, triggerTarget(t))
		}
	}
	payload.TargetCount = len(payload.Targets)

	if payload.TargetCount == 0 {
		return TriggerResult{Message: "No active scrape targets with tournament mode enabled"}, nil
	}
	if s.opts.WebhookURL == "" {
		return TriggerResult{}, ErrWebhookNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return TriggerResult{}, fmt.Errorf("failed to encode trigger payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return TriggerResult{}, fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return TriggerResult{}, fmt.Errorf("failed to call scrape webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TriggerResult{}, fmt.Errorf("scrape webhook responded with status: %d", resp.StatusCode)
	}

	logger.Info("Scraping workflow triggered", "trigger", trigger, "targets", payload.TargetCount)
	s.publish(pubsub.ScrapeTriggered, map[string]interface{}{"trigger": trigger, "targets": payload.TargetCount})
	return TriggerResult{
		Message:       "Scraping workflow triggered successfully",
		Targets:       payload.TargetCount,
		Triggered:     true,
		WebhookStatus: resp.StatusCode,
	}, nil
}

func triggerTarget(t models.ScrapeTarget) TriggerTarget {
	return TriggerTarget{
		ID:             t.ID,
		League:         t.League,
		TournamentName: t.TournamentName,
		URL:            t.URL,
		AutoApproval:   t.AutoApproval,
	}
}
