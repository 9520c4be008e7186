// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"encoding/binary"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/focus/cache"
	"github.com/vechain/focus/kv"
	"github.com/vechain/focus/log"
	"github.com/vechain/focus/metrics"
	"github.com/vechain/focus/staking/group"
	"github.com/vechain/focus/staking/reverts"
	"github.com/vechain/focus/thor"
)

const (
	groupsBucket = kv.Bucket("g")
	metaBucket   = kv.Bucket("m")

	cacheReportInterval = 20 * time.Second
)

var (
	logger     = log.WithContext("pkg", "registry")
	nextIDKey  = []byte("next-group-id")
	errMissing = errors.New("registry: group record missing")

	metricCacheHitMiss = metrics.LazyLoadGaugeVec("registry_cache_hit_miss_count", []string{"event"})
)

// Registry allocates group ids and owns every group.
// Mutations of one group are serialized by a per-group lock, different groups never block each other.
// Committed groups are persisted before they become visible to readers.
type Registry struct {
	store  kv.Store
	groups kv.Store
	meta   kv.Store
	cache  *cache.LRU

	lastReport atomic.Int64 // unix nano of the last cache report

	mu      sync.Mutex // guards the fields below
	nextID  uint64
	locks   map[uint64]*sync.RWMutex
	started map[uint64]struct{}
}

// New opens the registry persisted in store, restoring the id counter and the index of started groups.
func New(store kv.Store, cacheSize int) (*Registry, error) {
	c, err := cache.NewLRU(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create group cache")
	}
	r := &Registry{
		store:   store,
		groups:  groupsBucket.NewStore(store),
		meta:    metaBucket.NewStore(store),
		cache:   c,
		locks:   make(map[uint64]*sync.RWMutex),
		started: make(map[uint64]struct{}),
	}

	data, err := r.meta.Get(nextIDKey)
	switch {
	case err == nil:
		if len(data) != 8 {
			return nil, errors.Errorf("corrupted group counter %x", data)
		}
		r.nextID = binary.BigEndian.Uint64(data)
	case !r.meta.IsNotFound(err):
		return nil, errors.Wrap(err, "read group counter")
	}

	iter := r.groups.Iterate(kv.Range{})
	defer iter.Release()
	for iter.Next() {
		var g group.Group
		if err := rlp.DecodeBytes(iter.Value(), &g); err != nil {
			return nil, errors.Wrapf(err, "decode group %x", iter.Key())
		}
		if g.ID() >= r.nextID {
			return nil, errors.Errorf("group %d beyond counter %d", g.ID(), r.nextID)
		}
		if g.State() == group.StateStarted {
			r.started[g.ID()] = struct{}{}
		}
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "iterate groups")
	}

	logger.Debug("registry opened", "groups", r.nextID, "started", len(r.started))
	return r, nil
}

func groupKey(id uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], id)
	return k[:]
}

// NextGroupID returns the number of groups ever created, which is also the id of the next one.
func (r *Registry) NextGroupID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextID
}

// Create validates the parameters and stores a new group under the next id.
func (r *Registry) Create(params group.Params, creator thor.Address, bot *thor.Address) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	g, err := group.New(id, params, creator, bot)
	if err != nil {
		return 0, err
	}
	data, err := rlp.EncodeToBytes(g)
	if err != nil {
		return 0, errors.Wrap(err, "encode group")
	}

	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], id+1)

	bulk := r.store.Bulk()
	if err := groupsBucket.NewPutter(bulk).Put(groupKey(id), data); err != nil {
		return 0, errors.Wrap(err, "put group")
	}
	if err := metaBucket.NewPutter(bulk).Put(nextIDKey, counter[:]); err != nil {
		return 0, errors.Wrap(err, "put group counter")
	}
	if err := bulk.Write(); err != nil {
		return 0, errors.Wrap(err, "write group")
	}

	r.nextID = id + 1
	r.locks[id] = &sync.RWMutex{}
	r.cache.Add(id, g)
	return id, nil
}

// lock returns the lock of group id, NotFound if the id was never allocated.
func (r *Registry) lock(id uint64) (*sync.RWMutex, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id >= r.nextID {
		return nil, reverts.Newf(reverts.KindNotFound, "group %d not found", id)
	}
	l, ok := r.locks[id]
	if !ok {
		l = &sync.RWMutex{}
		r.locks[id] = l
	}
	return l, nil
}

// load returns the committed group. Callers hold its lock and must not mutate it.
func (r *Registry) load(id uint64) (*group.Group, error) {
	v, err := r.cache.GetOrLoad(id, func(any) (any, error) {
		data, err := r.groups.Get(groupKey(id))
		if err != nil {
			if r.groups.IsNotFound(err) {
				return nil, errMissing
			}
			return nil, errors.Wrapf(err, "get group %d", id)
		}
		var g group.Group
		if err := rlp.DecodeBytes(data, &g); err != nil {
			return nil, errors.Wrapf(err, "decode group %d", id)
		}
		return &g, nil
	})
	r.reportCache()
	if err != nil {
		return nil, err
	}
	return v.(*group.Group), nil
}

// reportCache publishes the group cache hits and misses at most once per interval,
// and logs them when the hit rate moved.
func (r *Registry) reportCache() {
	now := time.Now().UnixNano()
	last := r.lastReport.Swap(now)
	if now-last <= int64(cacheReportInterval) {
		r.lastReport.CompareAndSwap(now, last)
		return
	}

	changed, hit, miss := r.cache.Stats().Stats()
	if changed {
		rate := float64(0)
		if lookups := hit + miss; lookups > 0 {
			rate = float64(hit) / float64(lookups)
		}
		logger.Debug("group cache stats", "hit", hit, "miss", miss, "rate", rate)
	}
	metricCacheHitMiss().SetWithLabel(hit, map[string]string{"event": "hit"})
	metricCacheHitMiss().SetWithLabel(miss, map[string]string{"event": "miss"})
}

// View calls fn with the committed group under a shared lock. fn must not mutate the group.
func (r *Registry) View(id uint64, fn func(g *group.Group) error) error {
	l, err := r.lock(id)
	if err != nil {
		return err
	}
	l.RLock()
	defer l.RUnlock()

	g, err := r.load(id)
	if err != nil {
		return err
	}
	return fn(g)
}

// Get returns a deep copy of the group.
func (r *Registry) Get(id uint64) (*group.Snapshot, error) {
	var snap *group.Snapshot
	err := r.View(id, func(g *group.Group) error {
		snap = g.Snapshot()
		return nil
	})
	return snap, err
}

// Update applies fn to a copy of the group under its exclusive lock.
// The copy is committed only if fn succeeds and it has been persisted, otherwise nothing changes.
func (r *Registry) Update(id uint64, fn func(g *group.Group) error) error {
	l, err := r.lock(id)
	if err != nil {
		return err
	}
	l.Lock()
	defer l.Unlock()

	committed, err := r.load(id)
	if err != nil {
		return err
	}
	g := committed.Clone()
	if err := fn(g); err != nil {
		return err
	}

	data, err := rlp.EncodeToBytes(g)
	if err != nil {
		return errors.Wrap(err, "encode group")
	}
	if err := r.groups.Put(groupKey(id), data); err != nil {
		return errors.Wrapf(err, "put group %d", id)
	}
	r.cache.Add(id, g)

	r.mu.Lock()
	if g.State() == group.StateStarted {
		r.started[id] = struct{}{}
	} else {
		delete(r.started, id)
	}
	r.mu.Unlock()
	return nil
}

// Started returns the ids of the groups whose session is running, in ascending order.
func (r *Registry) Started() []uint64 {
	r.mu.Lock()
	ids := make([]uint64, 0, len(r.started))
	for id := range r.started {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	slices.Sort(ids)
	return ids
}
