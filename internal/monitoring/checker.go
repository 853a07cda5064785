package monitoring

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/branch-risk/internal/config"
	"github.com/sells-group/branch-risk/internal/dashboard"
)

// DefaultSchedule is used when no schedule is configured.
const DefaultSchedule = "@every 5m"

// Checker refreshes metrics and runs alert checks on a cron schedule.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
}

// NewChecker creates a background alert checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
	}
}

// Run schedules Check and blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) error {
	schedule := c.cfg.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))

	sched := cron.New()
	if _, err := sched.AddFunc(schedule, func() { c.Check(ctx) }); err != nil {
		return eris.Wrapf(err, "monitoring: parse schedule %q", schedule)
	}

	log.Info("starting risk checker",
		zap.String("schedule", schedule),
		zap.Int("high_risk_threshold", c.cfg.HighRiskThreshold),
	)
	c.Check(ctx)
	sched.Start()

	<-ctx.Done()
	<-sched.Stop().Done()
	log.Info("risk checker stopped")
	return nil
}

// Check collects a fresh snapshot, updates gauges and sends any alerts.
func (c *Checker) Check(ctx context.Context) []Alert {
	snap, err := c.collector.Collect(ctx)
	if err != nil {
		RefreshesTotal.WithLabelValues("error").Inc()
		zap.L().Error("monitoring: failed to collect metrics", zap.Error(err))
		return nil
	}
	RefreshesTotal.WithLabelValues("ok").Inc()
	Record(snap)

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		zap.L().Debug("monitoring: no alerts triggered")
		return nil
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	zap.L().Info("monitoring: alert check complete",
		zap.Int("alerts_triggered", len(alerts)),
		zap.Int("alerts_sent", sent),
	)
	return alerts
}

// Refresh updates gauges from a snapshot that was already loaded, without
// alerting. Used by the change-notification loop.
func (c *Checker) Refresh(snap dashboard.Snapshot) {
	RefreshesTotal.WithLabelValues("ok").Inc()
	Record(c.collector.Summarize(snap))
}
