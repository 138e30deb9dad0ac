package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/model"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)

// ConnectTimeout bounds how long a backend keeps retrying an unreachable database.
var ConnectTimeout = 30 * time.Second

// Retry runs op with exponential backoff until it succeeds or ConnectTimeout
// has elapsed, and returns the last error.
func Retry(what string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = ConnectTimeout
	return backoff.RetryNotify(op, b, func(err error, next time.Duration) {
		log.Logger.Warnf("%s failed, retry in %v: %v", what, next, err)
	})
}

func WriteFailure(err error) error {
	return &model.StoreError{Kind: model.StoreWriteFailure, Err: err}
}

func QueryFailure(err error) error {
	return &model.StoreError{Kind: model.StoreQueryFailure, Err: err}
}

// DecodeConfig turns a persistent_config section into the backend's config struct.
func DecodeConfig(name string, configMap map[string]interface{}, config interface{}) bool {
	data, err := json.Marshal(configMap)
	if err != nil {
		log.Logger.Errorf("marshal %s configMap failed:%v", name, err)
		return false
	}
	if err = json.Unmarshal(data, config); err != nil {
		log.Logger.Errorf("unmarshal %s config failed:%v", name, err)
		return false
	}
	return true
}

func EncodeSnapshot(snap *model.ClusterSnapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, errors.Wrapf(err, "encode snapshot %s", snap.ID)
	}
	return data, nil
}

func DecodeSnapshot(data []byte) (model.ClusterSnapshot, error) {
	var snap model.ClusterSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, errors.Wrap(err, "decode snapshot")
	}
	return snap, nil
}

// ExportRows runs q and flattens every snapshot into one row per node.
func ExportRows(ctx context.Context, store SnapshotStore, q model.HistoryQuery) ([]model.NodeRow, error) {
	it, err := store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var rows []model.NodeRow
	for it.Next() {
		snap := it.Snapshot()
		rows = append(rows, snap.Rows()...)
	}
	if err = it.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Collect drains q into a slice.
func Collect(ctx context.Context, store SnapshotStore, q model.HistoryQuery) ([]model.ClusterSnapshot, error) {
	it, err := store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var snaps []model.ClusterSnapshot
	for it.Next() {
		snaps = append(snaps, it.Snapshot())
	}
	if err = it.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}
