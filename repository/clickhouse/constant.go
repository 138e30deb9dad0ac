package clickhouse

const (
	ClickHousePersistentName  string = "clickhouse"
	CK_PORT_DEFAULT           int    = 9000
	CK_DATABASE_DEFAULT       string = "redwatch"
	CK_TABLE_DEFAULT          string = "tbl_snapshot"
	CK_DIAL_TIMEOUT_DEFAULT   int    = 10
	CK_MAX_OPEN_CONNS_DEFAULT int    = 10
	CK_MAX_IDLE_CONNS_DEFAULT int    = 5
)

const createTable = `CREATE TABLE IF NOT EXISTS %s
(
    snapshot_id  String,
    cluster_name String,
    poll_time    DateTime64(9, 'UTC'),
    health       LowCardinality(String),
    master_addr  String,
    node_addrs   Array(String),
    payload      String CODEC(ZSTD)
)
ENGINE = MergeTree
ORDER BY (cluster_name, poll_time)`
