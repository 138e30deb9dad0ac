package repository

import (
	"context"
	"time"

	"github.com/housepower/redwatch/model"
	"github.com/pkg/errors"
)

// Global registry to mapping adapter name to the adapter factory
var PersistentRegistry map[string]PersistentFactory = make(map[string]PersistentFactory)

type PersistentFactory interface {
	GetPersistentName() string
	// Create an adapter instance
	CreatePersistent() SnapshotStore
}

// SnapshotStore keeps the append-only history of cluster snapshots.
// Append is atomic per snapshot and may run concurrently with Query.
type SnapshotStore interface {
	UnmarshalConfig(configMap map[string]interface{}) interface{}

	Init(config interface{}) error

	Append(ctx context.Context, snap model.ClusterSnapshot) error

	// Query returns matching snapshots by ascending poll time. Each call
	// starts a fresh iteration.
	Query(ctx context.Context, q model.HistoryQuery) (SnapshotIter, error)

	// Latest returns ErrRecordNotFound when the cluster has no snapshot yet.
	Latest(ctx context.Context, cluster string) (model.ClusterSnapshot, error)

	// Purge removes every snapshot polled before the given time.
	Purge(ctx context.Context, before time.Time) (int64, error)

	Close() error
}

// SnapshotIter walks a query result the way sql.Rows does.
type SnapshotIter interface {
	Next() bool
	Snapshot() model.ClusterSnapshot
	Err() error
	Close() error
}

func RegistePersistent(fn func() PersistentFactory) {
	if fn == nil {
		return
	}
	factory := fn()
	name := factory.GetPersistentName()
	if name == "" {
		panic("Empty persistent name when registe persistent factory")
	}
	PersistentRegistry[name] = factory
}

func GetPersistentByName(name string) SnapshotStore {
	if factory, ok := PersistentRegistry[name]; ok {
		return factory.CreatePersistent()
	}
	return nil
}

// InitPersistent creates and initializes the store selected by policy.
func InitPersistent(policy string, persistentConfig map[string]map[string]interface{}) (SnapshotStore, error) {
	ps := GetPersistentByName(policy)
	if ps == nil {
		return nil, errors.Errorf("persistent policy %s is not regist", policy)
	}

	var pcfg interface{}
	if persistentConfig != nil {
		if configMap, ok := persistentConfig[policy]; ok {
			pcfg = ps.UnmarshalConfig(configMap)
		}
	}
	if err := ps.Init(pcfg); err != nil {
		return nil, errors.Wrapf(err, "init persistent policy %s", policy)
	}
	return ps, nil
}
