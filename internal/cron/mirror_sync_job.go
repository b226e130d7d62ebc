package cron

import (
	"context"
	"fmt"

	"github.com/autoflexeasy/autoflex-backend/internal/mirror"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
)

const MirrorSyncJobName = "stripe-mirror-sync"

type mirrorSyncer interface {
	SyncAll(ctx context.Context) (mirror.Result, error)
}

// MirrorSyncJobParams configures the Stripe mirror refresh.
type MirrorSyncJobParams struct {
	Logger *logger.Logger
	Syncer mirrorSyncer
}

// NewMirrorSyncJob refreshes the prices/subscriptions mirror from Stripe.
func NewMirrorSyncJob(params MirrorSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Syncer == nil {
		return nil, fmt.Errorf("mirror syncer required")
	}
	return &mirrorSyncJob{logg: params.Logger, syncer: params.Syncer}, nil
}

type mirrorSyncJob struct {
	logg   *logger.Logger
	syncer mirrorSyncer
}

func (j *mirrorSyncJob) Name() string { return MirrorSyncJobName }

func (j *mirrorSyncJob) Run(ctx context.Context) error {
	res, err := j.syncer.SyncAll(ctx)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"prices":        res.Prices,
		"subscriptions": res.Subscriptions,
	})
	if err != nil {
		return fmt.Errorf("mirror sync: %w", err)
	}
	j.logg.Info(logCtx, "mirror sync loop complete")
	return nil
}
