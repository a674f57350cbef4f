package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// Snapshot is a read-only repeatable-read transaction. The el meta row is read when the snapshot
// is opened, which pins the transaction's view, so the meta and every record read through the
// snapshot come from the same committed state even while module updates commit concurrently.
type Snapshot struct {
	registryReader
	meta    *ElMeta
	release sync.Once
}

var _ RegistryReader = (*Snapshot)(nil)

func (d *RegistrySvcDB) BeginSnapshot(ctx context.Context) (*Snapshot, error) {
	tx := d.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin snapshot: %w", tx.Error)
	}
	s := &Snapshot{registryReader: registryReader{db: tx}}
	meta, err := s.registryReader.GetElMeta()
	if err != nil && !errors.Is(err, ErrDataNotYetAvailable) {
		s.Release()
		return nil, err
	}
	s.meta = meta
	return s, nil
}

// ReadSnapshot runs fn inside a snapshot and releases it afterwards, including on panic.
func (d *RegistrySvcDB) ReadSnapshot(ctx context.Context, fn func(s *Snapshot) error) error {
	s, err := d.BeginSnapshot(ctx)
	if err != nil {
		return err
	}
	defer s.Release()
	return fn(s)
}

// GetElMeta returns the meta the snapshot was pinned at.
func (s *Snapshot) GetElMeta() (*ElMeta, error) {
	if s.meta == nil {
		return nil, ErrDataNotYetAvailable
	}
	meta := *s.meta
	return &meta, nil
}

// Release ends the snapshot transaction. It is safe to call more than once.
func (s *Snapshot) Release() {
	s.release.Do(func() {
		s.db.Rollback()
	})
}
