package sqlstore

import (
	"context"
	"time"

	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Store implements the snapshot operations on top of gorm. Backends embed it
// and only differ in how they connect and create the tables.
type Store struct {
	Client *gorm.DB
	// Scan reads the payload column; nil scans into a plain string.
	Scan repository.PayloadScanner
}

// Append stores the snapshot and its node rows in one transaction. The poll
// time is cut to PollTimePrecision first so the column and the payload agree
// and range bounds compare exactly.
func (s *Store) Append(ctx context.Context, snap model.ClusterSnapshot) error {
	snap.PollTime = snap.PollTime.Truncate(model.PollTimePrecision)
	payload, err := repository.EncodeSnapshot(&snap)
	if err != nil {
		return repository.WriteFailure(err)
	}
	row := TblSnapshot{
		SnapshotID:  snap.ID,
		ClusterName: snap.Cluster,
		PollTime:    snap.PollTime.UTC(),
		Health:      string(snap.Health),
		MasterAddr:  snap.MasterAddr(),
		Payload:     string(payload),
	}
	nodes := make([]TblSnapshotNode, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodes = append(nodes, TblSnapshotNode{
			SnapshotID:  snap.ID,
			Addr:        n.Addr,
			ClusterName: snap.Cluster,
			PollTime:    row.PollTime,
			Role:        string(n.Role),
			Reachable:   n.Reachable,
		})
	}

	err = s.Client.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(nodes) > 0 {
			return tx.Create(&nodes).Error
		}
		return nil
	})
	if err != nil {
		return repository.WriteFailure(errors.Wrapf(err, "append snapshot %s", snap.ID))
	}
	return nil
}

func (s *Store) filter(ctx context.Context, q model.HistoryQuery) *gorm.DB {
	db := s.Client.WithContext(ctx).Model(&TblSnapshot{})
	if q.Cluster != "" {
		db = db.Where("cluster_name = ?", q.Cluster)
	}
	if !q.Start.IsZero() {
		db = db.Where("poll_time >= ?", q.Start.UTC())
	}
	if !q.End.IsZero() {
		db = db.Where("poll_time <= ?", q.End.UTC())
	}
	if q.Node != "" {
		sub := s.Client.Model(&TblSnapshotNode{}).Select("snapshot_id").Where("addr = ?", q.Node)
		db = db.Where("snapshot_id IN (?)", sub)
	}
	return db
}

func (s *Store) Query(ctx context.Context, q model.HistoryQuery) (repository.SnapshotIter, error) {
	db := s.filter(ctx, q).Select("payload").Order("poll_time ASC").Order("snapshot_id ASC")
	// not every dialect accepts OFFSET without LIMIT
	skip := q.Offset
	if q.Limit > 0 {
		db = db.Limit(q.Limit).Offset(q.Offset)
		skip = 0
	}
	rows, err := db.Rows()
	if err != nil {
		return nil, repository.QueryFailure(errors.Wrap(err, "query snapshots"))
	}
	return repository.NewRowsIter(rows, q, skip).WithScanner(s.Scan), nil
}

func (s *Store) Latest(ctx context.Context, cluster string) (model.ClusterSnapshot, error) {
	rows, err := s.filter(ctx, model.HistoryQuery{Cluster: cluster}).
		Select("payload").Order("poll_time DESC").Limit(1).Rows()
	if err != nil {
		return model.ClusterSnapshot{}, repository.QueryFailure(errors.Wrap(err, "latest snapshot"))
	}
	it := repository.NewRowsIter(rows, model.HistoryQuery{}, 0).WithScanner(s.Scan)
	defer it.Close()
	if !it.Next() {
		if err = it.Err(); err != nil {
			return model.ClusterSnapshot{}, err
		}
		return model.ClusterSnapshot{}, repository.ErrRecordNotFound
	}
	return it.Snapshot(), nil
}

func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	var purged int64
	err := s.Client.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("poll_time < ?", before.UTC()).Delete(&TblSnapshotNode{}).Error; err != nil {
			return err
		}
		res := tx.Where("poll_time < ?", before.UTC()).Delete(&TblSnapshot{})
		purged = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, repository.WriteFailure(errors.Wrap(err, "purge snapshots"))
	}
	return purged, nil
}

func (s *Store) Close() error {
	if s.Client == nil {
		return nil
	}
	sqlDB, err := s.Client.DB()
	if err != nil {
		return errors.Wrap(err, "")
	}
	return errors.Wrap(sqlDB.Close(), "")
}
