package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	"github.com/pkg/errors"
)

// ClickHousePersistent stores every snapshot as one row of a MergeTree table.
type ClickHousePersistent struct {
	Config ClickHouseConfig
	Conn   driver.Conn
}

func NewClickHousePersistent() *ClickHousePersistent {
	return &ClickHousePersistent{}
}

func (cp *ClickHousePersistent) UnmarshalConfig(configMap map[string]interface{}) interface{} {
	var config ClickHouseConfig
	if !repository.DecodeConfig(ClickHousePersistentName, configMap, &config) {
		return nil
	}
	return config
}

func (cp *ClickHousePersistent) Init(config interface{}) error {
	if config == nil {
		config = ClickHouseConfig{}
	}
	cp.Config = config.(ClickHouseConfig)
	cp.Config.Normalize()

	log.Logger.Debugf("clickhouse addrs:%v, table:%s", cp.Config.Addrs(), cp.Config.TableName())
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cp.Config.Addrs(),
		Auth: clickhouse.Auth{
			Database: "default",
			Username: cp.Config.User,
			Password: cp.Config.Password,
		},
		DialTimeout:  cp.Config.Timeout(),
		MaxOpenConns: cp.Config.MaxOpenConns,
		MaxIdleConns: cp.Config.MaxIdleConns,
	})
	if err != nil {
		return errors.Wrap(err, "")
	}
	err = repository.Retry("ping clickhouse", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), cp.Config.Timeout())
		defer cancel()
		return conn.Ping(ctx)
	})
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "")
	}
	cp.Conn = conn

	ctx, cancel := context.WithTimeout(context.Background(), cp.Config.Timeout())
	defer cancel()
	if err = cp.Conn.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cp.Config.Database)); err != nil {
		return errors.Wrap(err, "")
	}
	if err = cp.Conn.Exec(ctx, fmt.Sprintf(createTable, cp.Config.TableName())); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// Append sends the snapshot as a single-row block, which ClickHouse inserts atomically.
func (cp *ClickHousePersistent) Append(ctx context.Context, snap model.ClusterSnapshot) error {
	payload, err := repository.EncodeSnapshot(&snap)
	if err != nil {
		return repository.WriteFailure(err)
	}
	batch, err := cp.Conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", cp.Config.TableName()))
	if err != nil {
		return repository.WriteFailure(errors.Wrap(err, "prepare batch"))
	}
	err = batch.Append(
		snap.ID,
		snap.Cluster,
		snap.PollTime.UTC(),
		string(snap.Health),
		snap.MasterAddr(),
		snap.NodeAddrs(),
		string(payload),
	)
	if err != nil {
		_ = batch.Abort()
		return repository.WriteFailure(errors.Wrapf(err, "append snapshot %s", snap.ID))
	}
	if err = batch.Send(); err != nil {
		return repository.WriteFailure(errors.Wrapf(err, "send snapshot %s", snap.ID))
	}
	return nil
}

// where renders the filter of q; args follow the placeholders in order.
func where(q model.HistoryQuery) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if q.Cluster != "" {
		conds = append(conds, "cluster_name = ?")
		args = append(args, q.Cluster)
	}
	if !q.Start.IsZero() {
		conds = append(conds, "poll_time >= ?")
		args = append(args, q.Start.UTC())
	}
	if !q.End.IsZero() {
		conds = append(conds, "poll_time <= ?")
		args = append(args, q.End.UTC())
	}
	if q.Node != "" {
		conds = append(conds, "has(node_addrs, ?)")
		args = append(args, q.Node)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (cp *ClickHousePersistent) querySQL(q model.HistoryQuery) (string, []interface{}) {
	cond, args := where(q)
	query := fmt.Sprintf("SELECT payload FROM %s%s ORDER BY poll_time ASC, snapshot_id ASC", cp.Config.TableName(), cond)
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, q.Offset)
	}
	return query, args
}

func (cp *ClickHousePersistent) Query(ctx context.Context, q model.HistoryQuery) (repository.SnapshotIter, error) {
	query, args := cp.querySQL(q)
	rows, err := cp.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, repository.QueryFailure(errors.Wrap(err, "query snapshots"))
	}
	skip := 0
	if q.Limit == 0 {
		skip = q.Offset
	}
	return repository.NewRowsIter(rows, q, skip), nil
}

func (cp *ClickHousePersistent) Latest(ctx context.Context, cluster string) (model.ClusterSnapshot, error) {
	query := fmt.Sprintf("SELECT payload FROM %s WHERE cluster_name = ? ORDER BY poll_time DESC LIMIT 1", cp.Config.TableName())
	var payload string
	if err := cp.Conn.QueryRow(ctx, query, cluster).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ClusterSnapshot{}, repository.ErrRecordNotFound
		}
		return model.ClusterSnapshot{}, repository.QueryFailure(errors.Wrap(err, "latest snapshot"))
	}
	snap, err := repository.DecodeSnapshot([]byte(payload))
	if err != nil {
		return model.ClusterSnapshot{}, repository.QueryFailure(err)
	}
	return snap, nil
}

// Purge counts the expired rows and schedules their removal with a mutation.
func (cp *ClickHousePersistent) Purge(ctx context.Context, before time.Time) (int64, error) {
	var count uint64
	query := fmt.Sprintf("SELECT count() FROM %s WHERE poll_time < ?", cp.Config.TableName())
	if err := cp.Conn.QueryRow(ctx, query, before.UTC()).Scan(&count); err != nil {
		return 0, repository.WriteFailure(errors.Wrap(err, "count expired snapshots"))
	}
	if count == 0 {
		return 0, nil
	}
	mutation := fmt.Sprintf("ALTER TABLE %s DELETE WHERE poll_time < ?", cp.Config.TableName())
	if err := cp.Conn.Exec(ctx, mutation, before.UTC()); err != nil {
		return 0, repository.WriteFailure(errors.Wrap(err, "purge snapshots"))
	}
	return int64(count), nil
}

func (cp *ClickHousePersistent) Close() error {
	if cp.Conn == nil {
		return nil
	}
	return errors.Wrap(cp.Conn.Close(), "")
}
