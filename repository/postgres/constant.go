package postgres

const (
	PostgresPersistentName    string = "postgres"
	PG_PORT_DEFAULT           int    = 5432
	PG_DATABASE_DEFAULT       string = "redwatch_db"
	PG_MAX_IDLE_CONNS_DEFAULT int    = 10
	PG_MAX_OPEN_CONNS_DEFAULT int    = 100
	PG_MAX_LIFETIME_DEFAULT   int    = 3600
	PG_MAX_IDLE_TIME_DEFAULT  int    = 10
)

var createTables = []string{
	`CREATE TABLE IF NOT EXISTS tbl_snapshot (
		snapshot_id  VARCHAR(191) PRIMARY KEY,
		cluster_name VARCHAR(191) NOT NULL,
		poll_time    TIMESTAMPTZ NOT NULL,
		health       VARCHAR(16) NOT NULL,
		master_addr  VARCHAR(128) NOT NULL DEFAULT '',
		payload      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cluster_time ON tbl_snapshot (cluster_name, poll_time)`,
	`CREATE INDEX IF NOT EXISTS idx_poll_time ON tbl_snapshot (poll_time)`,
	`CREATE TABLE IF NOT EXISTS tbl_snapshot_node (
		snapshot_id  VARCHAR(191) NOT NULL,
		addr         VARCHAR(128) NOT NULL,
		cluster_name VARCHAR(191) NOT NULL,
		poll_time    TIMESTAMPTZ NOT NULL,
		role         VARCHAR(16) NOT NULL,
		reachable    BOOLEAN NOT NULL,
		PRIMARY KEY (snapshot_id, addr)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_node_addr ON tbl_snapshot_node (addr)`,
	`CREATE INDEX IF NOT EXISTS idx_node_poll_time ON tbl_snapshot_node (poll_time)`,
}
