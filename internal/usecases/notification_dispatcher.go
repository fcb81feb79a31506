package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/entities"
	"renewal_notifier/internal/interfaces"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ReminderLease is the lease name shared by every dispatch trigger.
const ReminderLease = "whatsapp-reminders"

const logWriteTimeout = 5 * time.Second

// SendPacer throttles sends per messaging instance.
type SendPacer interface {
	Wait(ctx context.Context, instanceID uuid.UUID) error
}

type DispatcherConfig struct {
	Workers                int
	SendTimeout            time.Duration
	MaxAttempts            int
	RetryBackoff           time.Duration
	LeaseTTL               time.Duration
	RenewEvery             time.Duration
	IncludeResellerClients bool
	Triggers               TriggerSet
	Location               *time.Location
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 15 * time.Second
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = 30 * time.Minute
	}
	if c.RenewEvery <= 0 || c.RenewEvery >= c.LeaseTTL {
		c.RenewEvery = c.LeaseTTL / 3
	}
	if c.Triggers == nil {
		c.Triggers = NewTriggerSet(nil)
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

// RunSummary counts one dispatch run. Clients is every eligible client
// visited; Skipped covers triggering clients that were not sent (already
// notified today, no template, unusable phone, cancelled).
type RunSummary struct {
	Instances int `json:"instances"`
	Clients   int `json:"clients"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type summaryCounter struct {
	mu sync.Mutex
	s  RunSummary
}

func (c *summaryCounter) add(fn func(s *RunSummary)) {
	c.mu.Lock()
	fn(&c.s)
	c.mu.Unlock()
}

type NotificationDispatcher struct {
	lease     interfaces.Lease
	instances InstanceStore
	clients   ClientStore
	logs      MessageLogStore
	usage     UsageStore
	resolver  *TemplateResolver
	messenger interfaces.Messenger
	pacer     SendPacer
	cfg       DispatcherConfig
	now       func() time.Time
}

func NewNotificationDispatcher(
	lease interfaces.Lease,
	instances InstanceStore,
	clients ClientStore,
	logs MessageLogStore,
	usage UsageStore,
	resolver *TemplateResolver,
	messenger interfaces.Messenger,
	pacer SendPacer,
	cfg DispatcherConfig,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		lease:     lease,
		instances: instances,
		clients:   clients,
		logs:      logs,
		usage:     usage,
		resolver:  resolver,
		messenger: messenger,
		pacer:     pacer,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

// Run walks every active instance and sends reminders to clients whose stage
// triggers one. It returns apperrors.ErrLeaseHeld when another run is in
// progress. The lease is renewed every RenewEvery while the run lasts; if a
// renewal fails the run stops like a cancellation and returns
// apperrors.ErrLeaseLost. Cancelling ctx stops new sends; sends already
// started finish and are logged before Run returns.
func (d *NotificationDispatcher) Run(parent context.Context) (*RunSummary, error) {
	hold, err := d.lease.Acquire(parent, ReminderLease, d.cfg.LeaseTTL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancelCause(parent)
	heartbeat := make(chan struct{})
	go func() {
		defer close(heartbeat)
		d.keepLease(ctx, hold, cancel)
	}()
	defer func() {
		cancel(nil)
		<-heartbeat
		if err := hold.Release(context.WithoutCancel(parent)); err != nil {
			log.Error().Err(err).Msg("failed to release dispatch lease")
		}
	}()

	instances, err := d.instances.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active instances: %w", err)
	}

	now := d.now().In(d.cfg.Location)
	counter := &summaryCounter{}
	started := time.Now()

	for i := range instances {
		if ctx.Err() != nil {
			break
		}
		counter.add(func(s *RunSummary) { s.Instances++ })
		d.runInstance(ctx, &instances[i], now, counter)
	}

	summary := counter.s
	log.Info().
		Int("instances", summary.Instances).
		Int("clients", summary.Clients).
		Int("sent", summary.Sent).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("took", time.Since(started)).
		Msg("Reminder run finished")
	if ctx.Err() != nil {
		return &summary, context.Cause(ctx)
	}
	return &summary, nil
}

// keepLease renews hold until ctx is done. A failed renewal cancels ctx
// with apperrors.ErrLeaseLost so no new sends start on an expired lease.
func (d *NotificationDispatcher) keepLease(ctx context.Context, hold interfaces.LeaseHold, cancel context.CancelCauseFunc) {
	ticker := time.NewTicker(d.cfg.RenewEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			renewCtx, done := context.WithTimeout(ctx, d.cfg.RenewEvery)
			err := hold.Renew(renewCtx, d.cfg.LeaseTTL)
			done()
			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("dispatch lease renewal failed, stopping run")
			if !errors.Is(err, apperrors.ErrLeaseLost) {
				err = fmt.Errorf("%w: %v", apperrors.ErrLeaseLost, err)
			}
			cancel(err)
			return
		}
	}
}

func (d *NotificationDispatcher) runInstance(ctx context.Context, inst *entities.MessagingInstance, now time.Time, counter *summaryCounter) {
	clients, err := d.clients.ListDispatchable(ctx, inst.UserID, d.cfg.IncludeResellerClients)
	if err != nil {
		log.Error().Err(err).Str("instance_id", inst.ID.String()).Msg("failed to list clients")
		return
	}

	var g errgroup.Group
	g.SetLimit(d.cfg.Workers)
	for i := range clients {
		if ctx.Err() != nil {
			break
		}
		client := &clients[i]
		counter.add(func(s *RunSummary) { s.Clients++ })
		g.Go(func() error {
			d.processClient(ctx, inst, client, now, counter)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *NotificationDispatcher) processClient(ctx context.Context, inst *entities.MessagingInstance, client *entities.Client, now time.Time, counter *summaryCounter) {
	stage := Classify(client.ExpirationDate, now)
	if !d.cfg.Triggers.Triggers(stage) {
		return
	}
	logger := log.With().
		Str("instance_id", inst.ID.String()).
		Str("client_id", client.ID.String()).
		Str("stage", string(stage)).
		Logger()
	skip := func(reason string) {
		logger.Debug().Str("reason", reason).Msg("reminder skipped")
		counter.add(func(s *RunSummary) { s.Skipped++ })
	}

	if ctx.Err() != nil {
		skip("cancelled")
		return
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	sent, err := d.logs.HasSent(ctx, client.ID, stage, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		logger.Error().Err(err).Msg("dedup lookup failed")
		skip("dedup lookup failed")
		return
	}
	if sent {
		skip("already sent today")
		return
	}

	text, err := d.resolver.Resolve(ctx, inst.UserID, stage)
	if errors.Is(err, apperrors.ErrTemplateNotFound) {
		skip("no template")
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("template lookup failed")
		skip("template lookup failed")
		return
	}
	rendered := Render(text, client)
	if strings.TrimSpace(rendered) == "" {
		skip("empty message")
		return
	}
	number := CleanPhone(client.PhoneNumber())
	if number == "" {
		skip("no phone")
		return
	}

	attempted, sendErr := d.send(ctx, inst, number, rendered)
	if !attempted {
		skip("cancelled")
		return
	}

	entry := &entities.MessageLog{
		UserID:    inst.UserID,
		ClientID:  client.ID,
		StatusKey: stage,
		Template:  rendered,
		Status:    entities.DeliverySent,
	}
	if sendErr != nil {
		msg := sendErr.Error()
		entry.Status = entities.DeliveryFailed
		entry.Error = &msg
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logWriteTimeout)
	defer cancel()
	if err := d.logs.Insert(writeCtx, entry); err != nil {
		logger.Error().Err(err).Msg("failed to write message log")
	}

	if sendErr != nil {
		logger.Warn().Err(sendErr).Msg("reminder send failed")
		counter.add(func(s *RunSummary) { s.Failed++ })
		return
	}
	if err := d.usage.IncrementSent(writeCtx, inst.UserID, now); err != nil {
		logger.Warn().Err(err).Msg("failed to count usage")
	}
	counter.add(func(s *RunSummary) { s.Sent++ })
}

// send delivers one message with pacing, a per-call timeout and bounded
// retries. attempted is false when ctx ended before any call was made.
func (d *NotificationDispatcher) send(ctx context.Context, inst *entities.MessagingInstance, number, text string) (attempted bool, err error) {
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if d.pacer != nil {
			if waitErr := d.pacer.Wait(ctx, inst.ID); waitErr != nil {
				if !attempted {
					return false, waitErr
				}
				return true, err
			}
		}

		attempted = true
		// a started call runs to completion or timeout even if ctx is cancelled
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.SendTimeout)
		_, err = d.messenger.SendText(callCtx, inst, number, text)
		cancel()
		if err == nil {
			return true, nil
		}
		if !retryable(err) || attempt == d.cfg.MaxAttempts {
			return true, err
		}

		backoff := d.cfg.RetryBackoff * time.Duration(attempt)
		select {
		case <-ctx.Done():
			return true, err
		case <-time.After(backoff):
		}
	}
	return attempted, err
}

func retryable(err error) bool {
	var provErr *apperrors.ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable()
	}
	// transport errors and timeouts
	return errors.Is(err, apperrors.ErrProvider) || errors.Is(err, context.DeadlineExceeded)
}

// CleanPhone strips everything but digits.
func CleanPhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
