package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/bnb-chain/keys-hub/config"
	"github.com/bnb-chain/keys-hub/db"
	"github.com/bnb-chain/keys-hub/external"
	"github.com/bnb-chain/keys-hub/logging"
	"github.com/bnb-chain/keys-hub/metrics"
	"github.com/bnb-chain/keys-hub/types"
)

const (
	UpdateTimeout    = 15 * time.Minute
	DiscoveryTimeout = 30 * time.Second
)

var ErrSyncTimeout = errors.New("sync timed out")

type SyncResult int

const (
	// SyncSkipped means the on-chain nonce matched the stored one and nothing was written.
	SyncSkipped SyncResult = iota
	SyncUpdated
)

func (r SyncResult) String() string {
	if r == SyncUpdated {
		return metrics.ResultUpdated
	}
	return metrics.ResultSkipped
}

// RegistrySyncer runs the sync cycle: discover modules at the finalized block, then bring every
// module whose nonce moved up to date.
type RegistrySyncer struct {
	dao      db.RegistryDao
	client   external.IClient
	fetcher  *Fetcher
	registry *Registry
	locks    *moduleLocks
	config   *config.SyncerConfig

	updateTimeout time.Duration
}

func NewRegistrySyncer(dao db.RegistryDao, client external.IClient, cfg *config.SyncerConfig) *RegistrySyncer {
	curated := NewCuratedModule(client, dao, cfg.GetKeysBatchSize())
	return &RegistrySyncer{
		dao:      dao,
		client:   client,
		fetcher:  NewFetcher(client, common.HexToAddress(cfg.LocatorAddress), cfg.ModuleTypeById),
		registry: NewRegistry(curated),
		locks:    newModuleLocks(),
		config:   cfg,

		updateTimeout: UpdateTimeout,
	}
}

// Registry exposes the module type registry to the read side.
func (s *RegistrySyncer) Registry() *Registry {
	return s.registry
}

// CheckChainId fails when the provider serves a different chain than configured. A zero chain id
// in config skips the check.
func (s *RegistrySyncer) CheckChainId(ctx context.Context) error {
	if s.config.ChainId == 0 {
		return nil
	}
	chainId, err := s.client.ChainID(ctx)
	if err != nil {
		return err
	}
	if !chainId.IsUint64() || chainId.Uint64() != s.config.ChainId {
		return fmt.Errorf("provider chain id %s does not match configured chain id %d", chainId, s.config.ChainId)
	}
	return nil
}

func (s *RegistrySyncer) StartLoop(ctx context.Context) {
	go s.monitorLag(ctx)
	interval := time.Duration(s.config.GetSyncIntervalSeconds()) * time.Second
	syncTicker := time.NewTicker(interval)
	defer syncTicker.Stop()
	for {
		if err := s.syncCycle(ctx); err != nil {
			logging.Logger.Errorf("sync cycle failed, err=%s", err.Error())
		}
		select {
		case <-ctx.Done():
			return
		case <-syncTicker.C:
		}
	}
}

func (s *RegistrySyncer) syncCycle(ctx context.Context) error {
	discoverCtx, cancel := context.WithTimeout(ctx, DiscoveryTimeout)
	defer cancel()

	block, err := s.client.GetBlock(discoverCtx, s.config.GetFinalizedBlockTag())
	if err != nil {
		metrics.SyncErrorsCounter.WithLabelValues("block").Inc()
		return s.wrapTimeout(discoverCtx, err)
	}
	modules, err := s.fetcher.DiscoverModules(discoverCtx, block.Hash)
	if err != nil {
		metrics.SyncErrorsCounter.WithLabelValues("discovery").Inc()
		return s.wrapTimeout(discoverCtx, err)
	}
	if err := s.dao.SaveStakingModules(ctx, modules); err != nil {
		metrics.SyncErrorsCounter.WithLabelValues("save_modules").Inc()
		return fmt.Errorf("failed to save staking modules: %w", err)
	}

	g := new(errgroup.Group)
	g.SetLimit(s.config.GetMaxParallelModules())
	for _, module := range modules {
		module := module
		g.Go(func() error {
			if _, err := s.syncModule(ctx, module, block.Hash); err != nil {
				metrics.SyncErrorsCounter.WithLabelValues("module").Inc()
				logging.Logger.Errorf("failed to sync module %s, err=%s", module.StakingModuleAddress, err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()

	metrics.SyncedBlockGauge.Set(float64(block.Number))
	logging.Logger.Debugf("sync cycle done at block %d, modules=%d", block.Number, len(modules))
	return nil
}

// SyncModule brings one stored module up to date with the finalized block.
func (s *RegistrySyncer) SyncModule(ctx context.Context, moduleAddress string) (SyncResult, error) {
	module, err := s.dao.Reader(ctx).GetStakingModuleByAddress(types.NormalizeHex(moduleAddress))
	if err != nil {
		return SyncSkipped, err
	}
	block, err := s.client.GetBlock(ctx, s.config.GetFinalizedBlockTag())
	if err != nil {
		return SyncSkipped, err
	}
	return s.syncModule(ctx, module, block.Hash)
}

func (s *RegistrySyncer) syncModule(ctx context.Context, module *db.StakingModule, blockTag string) (result SyncResult, err error) {
	address := module.StakingModuleAddress
	synchronizer, err := s.registry.Resolve(module.Type)
	if err != nil {
		return SyncSkipped, err
	}

	lock := s.locks.get(address)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	defer func() {
		label := result.String()
		if err != nil {
			label = metrics.ResultFailed
		}
		metrics.ModuleSyncDuration.WithLabelValues(address, label).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, s.updateTimeout)
	defer cancel()

	nonce, err := synchronizer.GetCurrentNonce(ctx, address, blockTag)
	if err != nil {
		return SyncSkipped, s.wrapTimeout(ctx, err)
	}
	stored, err := s.dao.GetRegistryMeta(ctx, address)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return SyncSkipped, err
	}
	if stored != nil && stored.Nonce == nonce {
		logging.Logger.Debugf("module %s nonce %d unchanged", address, nonce)
		return SyncSkipped, nil
	}

	if err := synchronizer.Update(ctx, address, blockTag); err != nil {
		return SyncSkipped, s.wrapTimeout(ctx, err)
	}
	metrics.ModuleNonceGauge.WithLabelValues(address).Set(float64(nonce))
	return SyncUpdated, nil
}

func (s *RegistrySyncer) wrapTimeout(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrSyncTimeout, err)
	}
	return err
}
