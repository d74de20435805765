package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/models"
)

// SubscriptionHandler implements the subscription toggle and the
// subscribed-channel listing.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Feeds         FeedStore
}

type subscriptionToggleResponse struct {
	Subscribed   bool                `json:"subscribed"`
	Subscription models.Subscription `json:"subscription"`
}

// Toggle handles POST /api/v1/subscriptions/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID := r.PathValue("channelId")
	subscriberID := currentUserID(r)

	if channelID == subscriberID {
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
		return
	}

	sub, subscribed, err := h.Subscriptions.Toggle(ctx, subscriberID, channelID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found", "failed to toggle subscription")
		return
	}

	message := "unsubscribed"
	if subscribed {
		message = "subscribed"
	}
	respondData(ctx, w, http.StatusOK, subscriptionToggleResponse{Subscribed: subscribed, Subscription: sub}, message)
}

// Channels handles GET /api/v1/subscriptions/channels. An actor with no
// subscriptions gets an empty list, not an error.
func (h SubscriptionHandler) Channels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channels, err := h.Feeds.SubscribedChannels(ctx, currentUserID(r))
	if err != nil {
		respondStoreError(ctx, w, err, "channels not found", "failed to fetch subscribed channels")
		return
	}

	respondData(ctx, w, http.StatusOK, channels, "subscribed channels fetched successfully")
}
