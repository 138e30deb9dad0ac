package model

import "time"

// HistoryQuery selects stored snapshots. Zero Start/End leave that side open,
// an empty Cluster matches every cluster, and Limit 0 means no limit.
type HistoryQuery struct {
	Cluster string
	Start   time.Time
	End     time.Time
	Node    string
	Offset  int
	Limit   int
}

// Match reports whether a snapshot satisfies the cluster, time and node filters.
func (q HistoryQuery) Match(s *ClusterSnapshot) bool {
	if q.Cluster != "" && s.Cluster != q.Cluster {
		return false
	}
	if !q.Start.IsZero() && s.PollTime.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && s.PollTime.After(q.End) {
		return false
	}
	if q.Node != "" {
		if _, ok := s.Node(q.Node); !ok {
			return false
		}
	}
	return true
}

type NodeRow struct {
	PollTime         time.Time `json:"poll_time"`
	Cluster          string    `json:"cluster"`
	Health           Health    `json:"health"`
	MasterAddr       string    `json:"master_addr"`
	Addr             string    `json:"addr"`
	Role             Role      `json:"role"`
	Reachable        bool      `json:"reachable"`
	LatencyMs        *float64  `json:"latency_ms"`
	Keys             *int64    `json:"keys"`
	ConnectedClients *int64    `json:"connected_clients"`
	UsedMemory       *int64    `json:"used_memory"`
	UsedMemoryHuman  string    `json:"used_memory_human"`
	ReplicaLag       *int64    `json:"replica_lag"`
}
