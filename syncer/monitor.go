package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/bnb-chain/keys-hub/db"
	"github.com/bnb-chain/keys-hub/external"
	"github.com/bnb-chain/keys-hub/logging"
	"github.com/bnb-chain/keys-hub/metrics"
)

const MonitorLagInterval = time.Minute

func (s *RegistrySyncer) monitorLag(ctx context.Context) {
	monitorTicker := time.NewTicker(MonitorLagInterval)
	defer monitorTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-monitorTicker.C:
		}
		if err := s.recordLag(ctx); err != nil {
			logging.Logger.Errorf("failed to record sync lag, err=%s", err.Error())
		}
	}
}

// recordLag sets the distance between the chain head and the block the stored data is known at.
func (s *RegistrySyncer) recordLag(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, DiscoveryTimeout)
	defer cancel()
	meta, err := s.dao.GetElMeta(ctx)
	if err != nil {
		if errors.Is(err, db.ErrDataNotYetAvailable) {
			return nil
		}
		return err
	}
	head, err := s.client.GetBlock(ctx, external.BlockTagLatest)
	if err != nil {
		return err
	}
	lag := int64(head.Number) - int64(meta.BlockNumber)
	if lag < 0 {
		lag = 0
	}
	metrics.SyncLagGauge.Set(float64(lag))
	logging.Logger.Debugf("el head %d, synced block %d", head.Number, meta.BlockNumber)
	return nil
}
