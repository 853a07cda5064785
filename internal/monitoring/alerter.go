package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/branch-risk/internal/config"
	"github.com/sells-group/branch-risk/internal/format"
	"github.com/sells-group/branch-risk/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertHighRiskBranches AlertType = "high_risk_branches"
	AlertNegativeProfit   AlertType = "negative_average_profit"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg     config.MonitoringConfig
	client  *http.Client
	backoff resilience.Backoff
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		backoff: resilience.DefaultBackoff(),
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	// High-risk branch count. A zero threshold disables the check.
	high := len(snap.HighRisk)
	if a.cfg.HighRiskThreshold > 0 && high >= a.cfg.HighRiskThreshold {
		names := make([]string, 0, high)
		ids := make([]string, 0, high)
		for _, b := range snap.HighRisk {
			names = append(names, b.Name)
			ids = append(ids, b.BranchID)
		}
		alerts = append(alerts, Alert{
			Type:     AlertHighRiskBranches,
			Severity: "high",
			Message: fmt.Sprintf(
				"%d branch(es) at high risk: %s",
				high, strings.Join(names, ", "),
			),
			Details: map[string]any{
				"count":      high,
				"threshold":  a.cfg.HighRiskThreshold,
				"branch_ids": ids,
			},
			Timestamp: now,
		})
	}

	// Network-wide loss.
	if snap.BranchesWithData > 0 && snap.AverageProfit < 0 {
		alerts = append(alerts, Alert{
			Type:     AlertNegativeProfit,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Average latest-month profit is %s across %d branch(es)",
				format.Currency(snap.AverageProfit), snap.BranchesWithData,
			),
			Details: map[string]any{
				"average_profit":     snap.AverageProfit,
				"branches_with_data": snap.BranchesWithData,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		err := resilience.Retry(ctx, a.backoff, "alert webhook", func(ctx context.Context) error {
			return a.sendWebhook(ctx, alert)
		})
		if err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return &resilience.StatusError{Code: resp.StatusCode, URL: a.cfg.WebhookURL}
	}
	return nil
}
