package notifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"ayursutra-server/internal/config"
	"ayursutra-server/internal/metrics"
	"ayursutra-server/internal/models"
)

// Dispatcher periodically delivers due pending notifications. Delivery of
// in-app notifications is persistence only; email goes over SMTP; sms is
// logged until a provider is configured.
type Dispatcher struct {
	db        *gorm.DB
	cfg       *config.Config
	log       *zap.Logger
	collector *metrics.Collector
	interval  time.Duration
	batchSize int
}

func NewDispatcher(db *gorm.DB, cfg *config.Config, log *zap.Logger, collector *metrics.Collector) *Dispatcher {
	interval := time.Duration(cfg.Notifier.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	batch := cfg.Notifier.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &Dispatcher{
		db:        db,
		cfg:       cfg,
		log:       log.Named("notifier"),
		collector: collector,
		interval:  interval,
		batchSize: batch,
	}
}

// Run loops until the context is cancelled. A failed sweep is logged and the
// next tick retries; due notifications stay pending.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("dispatcher started", zap.Duration("interval", d.interval))
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatcher stopped")
			return
		case <-ticker.C:
			if err := d.DispatchDue(ctx); err != nil {
				d.log.Error("dispatch sweep failed", zap.Error(err))
			}
		}
	}
}

// DispatchDue delivers every pending notification whose scheduled time has
// passed, oldest first.
func (d *Dispatcher) DispatchDue(ctx context.Context) error {
	var due []models.Notification
	err := d.db.WithContext(ctx).
		Preload("Recipient").
		Where("status = ? AND scheduled_at <= ?", models.NotificationPending, time.Now().UTC()).
		Order("scheduled_at asc").
		Limit(d.batchSize).
		Find(&due).Error
	if err != nil {
		return fmt.Errorf("loading due notifications: %w", err)
	}

	for i := range due {
		d.deliver(ctx, &due[i])
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, n *models.Notification) {
	var deliveryErr error
	for _, channel := range n.Channels {
		switch channel {
		case models.ChannelEmail:
			if err := d.sendEmail(n); err != nil {
				deliveryErr = err
			}
		case models.ChannelSMS:
			// No SMS provider configured; record the attempt.
			d.log.Info("sms delivery skipped",
				zap.String("notification", n.ID),
				zap.String("recipient", n.RecipientID))
		case models.ChannelInApp:
			// In-app delivery is the row itself.
		}
	}

	if deliveryErr != nil {
		if err := n.MarkFailed(); err != nil {
			d.log.Warn("mark failed rejected", zap.String("notification", n.ID), zap.Error(err))
			return
		}
		d.log.Error("notification delivery failed",
			zap.String("notification", n.ID),
			zap.String("template", string(n.Template)),
			zap.Error(deliveryErr))
	} else {
		if err := n.MarkSent(); err != nil {
			d.log.Warn("mark sent rejected", zap.String("notification", n.ID), zap.Error(err))
			return
		}
	}

	if err := d.db.WithContext(ctx).Save(n).Error; err != nil {
		d.log.Error("persisting notification status", zap.String("notification", n.ID), zap.Error(err))
		return
	}

	for _, channel := range n.Channels {
		d.collector.NotificationsTotal.WithLabelValues(string(n.Status), string(channel)).Inc()
	}
}

func (d *Dispatcher) sendEmail(n *models.Notification) error {
	if d.cfg.Mailer.Host == "" {
		d.log.Debug("smtp not configured, skipping email", zap.String("notification", n.ID))
		return nil
	}
	if n.Recipient.Email == "" {
		return fmt.Errorf("recipient %s has no email address", n.RecipientID)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.cfg.Mailer.DefaultFrom)
	m.SetHeader("To", n.Recipient.Email)
	m.SetHeader("Subject", n.Title)
	m.SetBody("text/plain", n.Body)

	dialer := gomail.NewDialer(d.cfg.Mailer.Host, d.cfg.Mailer.Port, d.cfg.Mailer.Username, d.cfg.Mailer.Password)
	if err := dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
