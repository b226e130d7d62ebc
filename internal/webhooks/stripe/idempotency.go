package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/autoflexeasy/autoflex-backend/pkg/redis"
)

const (
	markerProcessing = "processing"
	markerDone       = "done"

	defaultProcessingTTL = 5 * time.Minute
)

// Delivery classifies an incoming event id against previous deliveries.
type Delivery int

const (
	// DeliveryNew is the first sighting; the caller owns processing.
	DeliveryNew Delivery = iota
	// DeliveryDuplicate was already processed and should be acknowledged.
	DeliveryDuplicate
	// DeliveryInFlight is being processed by another request.
	DeliveryInFlight
)

var errMissingEventID = errors.New("event id is required")

// IdempotencyGuard tracks Stripe event ids in two phases. Begin claims an id
// with a short processing marker; Complete swaps it for a long-lived done
// marker; Release drops the claim so Stripe can redeliver.
type IdempotencyGuard struct {
	store         redis.IdempotencyStore
	doneTTL       time.Duration
	processingTTL time.Duration
	scope         string
}

func NewIdempotencyGuard(store redis.IdempotencyStore, doneTTL time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if doneTTL <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	processing := defaultProcessingTTL
	if doneTTL < processing {
		processing = doneTTL
	}
	return &IdempotencyGuard{
		store:         store,
		doneTTL:       doneTTL,
		processingTTL: processing,
		scope:         scope,
	}, nil
}

// Begin claims eventID for processing or reports why it cannot be claimed.
func (g *IdempotencyGuard) Begin(ctx context.Context, eventID string) (Delivery, error) {
	if eventID == "" {
		return DeliveryNew, errMissingEventID
	}
	key := g.key(eventID)
	claimed, err := g.store.SetNX(ctx, key, markerProcessing, g.processingTTL)
	if err != nil {
		return DeliveryNew, fmt.Errorf("claim event %s: %w", eventID, err)
	}
	if claimed {
		return DeliveryNew, nil
	}

	marker, err := g.store.Get(ctx, key)
	switch {
	case errors.Is(err, goredis.Nil):
		// the claim lapsed between SetNX and Get; let the provider retry
		return DeliveryInFlight, nil
	case err != nil:
		return DeliveryNew, fmt.Errorf("read event marker %s: %w", eventID, err)
	case marker == markerDone:
		return DeliveryDuplicate, nil
	default:
		return DeliveryInFlight, nil
	}
}

// Complete records eventID as processed for the guard's retention window.
func (g *IdempotencyGuard) Complete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errMissingEventID
	}
	return g.store.Set(ctx, g.key(eventID), markerDone, g.doneTTL)
}

// Release forgets eventID so a failed event is processed again on redelivery.
func (g *IdempotencyGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errMissingEventID
	}
	return g.store.Del(ctx, g.key(eventID))
}

func (g *IdempotencyGuard) key(eventID string) string {
	return g.store.IdempotencyKey(g.scope, eventID)
}
