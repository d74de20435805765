package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// SubscriptionRepository exposes the toggle contract for channel
// subscriptions. Toggle reports the affected row and whether the
// subscription exists after the call.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (models.Subscription, bool, error)
}
