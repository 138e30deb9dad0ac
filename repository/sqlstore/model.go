package sqlstore

import (
	"time"
)

const (
	TBL_SNAPSHOT      string = "tbl_snapshot"
	TBL_SNAPSHOT_NODE string = "tbl_snapshot_node"
)

// TblSnapshot holds one cluster-cycle. The full snapshot lives in Payload;
// the other columns exist for filtering and ordering.
type TblSnapshot struct {
	SnapshotID  string    `gorm:"primaryKey; size:191; column:snapshot_id"`
	ClusterName string    `gorm:"index:idx_cluster_time,priority:1; size:191; column:cluster_name"`
	PollTime    time.Time `gorm:"index:idx_cluster_time,priority:2; index:idx_poll_time; column:poll_time"`
	Health      string    `gorm:"size:16; column:health"`
	MasterAddr  string    `gorm:"size:128; column:master_addr"`
	Payload     string    `gorm:"type:text; column:payload"`
}

func (v TblSnapshot) TableName() string {
	return TBL_SNAPSHOT
}

// TblSnapshotNode has one row per node of a snapshot so node filters can use an index.
type TblSnapshotNode struct {
	SnapshotID  string    `gorm:"primaryKey; size:191; column:snapshot_id"`
	Addr        string    `gorm:"primaryKey; size:128; index:idx_node_addr; column:addr"`
	ClusterName string    `gorm:"size:191; column:cluster_name"`
	PollTime    time.Time `gorm:"index:idx_node_poll_time; column:poll_time"`
	Role        string    `gorm:"size:16; column:role"`
	Reachable   bool      `gorm:"column:reachable"`
}

func (v TblSnapshotNode) TableName() string {
	return TBL_SNAPSHOT_NODE
}
