package live

import (
	"context"
	"time"

	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

// Entry is the live state of one configured cluster. Snapshot is nil when
// nothing has been recorded for the cluster yet. Stale is set once the
// snapshot is older than three refresh intervals, which means the poller
// stopped recording the cluster.
type Entry struct {
	Cluster    string                 `json:"cluster"`
	Snapshot   *model.ClusterSnapshot `json:"snapshot"`
	AgeSeconds float64                `json:"age_seconds,omitempty"`
	Stale      bool                   `json:"stale"`
	Error      string                 `json:"error,omitempty"`
}

// View serves the most recent snapshot of every cluster from memory, falling
// back to the store on a miss such as right after a restart.
type View struct {
	cache    *cache.Cache
	store    repository.SnapshotStore
	staleAge time.Duration
	now      func() time.Time
}

func NewView(store repository.SnapshotStore, interval time.Duration) *View {
	return &View{
		cache:    cache.New(3*interval, time.Minute),
		store:    store,
		staleAge: 3 * interval,
		now:      time.Now,
	}
}

// Update replaces the cached snapshot unless a newer one is already cached.
func (v *View) Update(snap model.ClusterSnapshot) {
	if cur, ok := v.cache.Get(snap.Cluster); ok {
		if cur.(model.ClusterSnapshot).PollTime.After(snap.PollTime) {
			return
		}
	}
	v.cache.SetDefault(snap.Cluster, snap)
}

func (v *View) Get(ctx context.Context, cluster string) (model.ClusterSnapshot, error) {
	if cur, ok := v.cache.Get(cluster); ok {
		return cur.(model.ClusterSnapshot), nil
	}
	if v.store == nil {
		return model.ClusterSnapshot{}, repository.ErrRecordNotFound
	}
	snap, err := v.store.Latest(ctx, cluster)
	if err != nil {
		return snap, err
	}
	v.Update(snap)
	return snap, nil
}

func (v *View) All(ctx context.Context, clusters []string) []Entry {
	entries := make([]Entry, 0, len(clusters))
	for _, cluster := range clusters {
		entry := Entry{Cluster: cluster}
		snap, err := v.Get(ctx, cluster)
		switch {
		case err == nil:
			entry.Snapshot = &snap
			age := v.now().Sub(snap.PollTime)
			entry.AgeSeconds = age.Seconds()
			entry.Stale = age > v.staleAge
		case errors.Is(err, repository.ErrRecordNotFound):
		default:
			log.Logger.Errorf("load latest snapshot of %s failed: %v", cluster, err)
			entry.Error = err.Error()
		}
		entries = append(entries, entry)
	}
	return entries
}
