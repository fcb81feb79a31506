package jobs

import (
	"context"
	"errors"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/usecases"

	"github.com/rs/zerolog/log"
)

// ReminderRunner performs one dispatch run.
type ReminderRunner interface {
	Run(ctx context.Context) (*usecases.RunSummary, error)
}

// StartReminderJob triggers runner every interval until ctx is done. The
// returned channel closes once the loop has exited and any run in progress
// has drained. It is a no-op when interval is not positive, leaving runs to
// the cron endpoint.
func StartReminderJob(ctx context.Context, runner ReminderRunner, interval, timeout time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if interval <= 0 {
		close(done)
		return done
	}
	if runner == nil {
		log.Warn().Msg("reminder job disabled: dispatcher not configured")
		close(done)
		return done
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				summary, err := runner.Run(tickCtx)
				cancel()
				if errors.Is(err, apperrors.ErrLeaseHeld) {
					log.Debug().Msg("reminder job skipped, lease held")
					continue
				}
				if err != nil {
					log.Error().Err(err).Msg("reminder job error")
					if summary == nil {
						continue
					}
				}
				if summary.Sent > 0 || summary.Failed > 0 {
					log.Info().Int("sent", summary.Sent).Int("failed", summary.Failed).Msg("reminder job finished")
				}
			}
		}
	}()
	return done
}
