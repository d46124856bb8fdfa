package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/groupcache/singleflight"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
	"github.com/sophialabs/testlabadvisor/internal/domain/component"
	"github.com/sophialabs/testlabadvisor/internal/domain/match"
	"github.com/sophialabs/testlabadvisor/internal/domain/operation"
)

// Snapshot is everything loaded from the data directory at one point in
// time. Snapshots are never modified after they are published.
type Snapshot struct {
	Dataset  *component.Dataset
	Matcher  *match.Matcher
	Advisor  advisory.Generator
	Catalog  *operation.Catalog
	Warnings []string
	LoadedAt time.Time
	Version  uint64
}

// LoaderFunc builds a fresh snapshot.
type LoaderFunc func(ctx context.Context) (*Snapshot, error)

// DatasetHandle publishes the current snapshot to readers without locking.
// Concurrent reloads share one load.
type DatasetHandle struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	group   singleflight.Group
	load    LoaderFunc
}

// NewDatasetHandle creates a handle holding initial until the first reload.
func NewDatasetHandle(initial *Snapshot, load LoaderFunc) *DatasetHandle {
	if initial == nil {
		initial = &Snapshot{}
	}
	if initial.Dataset == nil {
		initial.Dataset = component.Empty()
	}
	if initial.Matcher == nil {
		initial.Matcher = match.NewMatcher(initial.Dataset)
	}
	if initial.Catalog == nil {
		initial.Catalog = operation.Builtin()
	}
	h := &DatasetHandle{load: load}
	h.current.Store(initial)
	return h
}

// Current returns the published snapshot. It is never nil.
func (h *DatasetHandle) Current() *Snapshot {
	return h.current.Load()
}

// Reload loads a new snapshot and publishes it. When several callers reload
// at once, they all receive the result of a single load. On error the
// previous snapshot stays published.
func (h *DatasetHandle) Reload(ctx context.Context) (*Snapshot, error) {
	v, err := h.group.Do("reload", func() (interface{}, error) {
		snap, err := h.load(ctx)
		if err != nil {
			return nil, err
		}
		snap.Version = h.version.Add(1)
		h.current.Store(snap)
		return snap, nil
	})
	if err != nil {
		return h.Current(), err
	}
	return v.(*Snapshot), nil
}
