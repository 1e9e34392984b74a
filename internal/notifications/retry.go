package notifications

import (
	"context"
	"time"

	"ticketpoint/pkg/logger"
)

// RetryPolicy bounds how often a failed delivery is attempted again.
// Attempt n (0-based) waits Backoff * 2^n before the next one.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Backoff: 2 * time.Second}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	return p.Backoff * time.Duration(1<<attempt)
}

func executeWithRetry(ctx context.Context, policy RetryPolicy, handler TaskHandler, task DeliveryTask, log *logger.Logger) (DeliveryStatus, error) {
	var (
		status DeliveryStatus
		err    error
	)

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		status, err = handler.HandleDelivery(ctx, task)
		if err == nil {
			if attempt > 0 {
				log.InfoWithContext(ctx, "Delivery succeeded after retries", map[string]interface{}{
					"booking_id": task.BookingID.String(),
					"retries":    attempt,
				})
			}
			return status, nil
		}

		if attempt == policy.MaxRetries {
			break
		}

		delay := policy.delay(attempt)
		log.DebugWithContext(ctx, "Retrying delivery", map[string]interface{}{
			"booking_id": task.BookingID.String(),
			"attempt":    attempt + 1,
			"delay":      delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return DeliveryStatusFailed, ctx.Err()
		}
	}

	log.ErrorWithContext(ctx, "Delivery failed after retries", err, map[string]interface{}{
		"booking_id": task.BookingID.String(),
		"attempts":   policy.MaxRetries + 1,
	})
	return status, err
}
