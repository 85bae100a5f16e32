package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/barsan/reservation-service/internal/service"
)

// StartCompletionSweeper periodically marks confirmed reservations whose
// interval has passed as completed. It runs until ctx is cancelled.
func StartCompletionSweeper(ctx context.Context, bookings *service.BookingService, interval time.Duration, logger *zap.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				swept, err := bookings.SweepCompleted(ctx)
				if err != nil {
					logger.Warn("completion sweep failed", zap.Error(err))
					continue
				}
				if swept > 0 {
					logger.Info("completion sweep finished", zap.Int("completed", swept))
				}
			}
		}
	}()
}
