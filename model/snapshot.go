package model

import "time"

// ClusterSnapshot is the unit of persistence: one cluster, one poll cycle.
// Once written it is never changed.
type ClusterSnapshot struct {
	ID        string                `json:"id"`
	Cluster   string                `json:"cluster"`
	PollTime  time.Time             `json:"poll_time"`
	Topology  *ClusterTopology      `json:"topology,omitempty"`
	Nodes     []NodeMetrics         `json:"nodes"`
	Sentinels []SentinelObservation `json:"sentinels,omitempty"`
	Health    Health                `json:"health"`
	Causes    []Cause               `json:"causes,omitempty"`
}

func (s *ClusterSnapshot) MasterAddr() string {
	if s.Topology == nil {
		return ""
	}
	return s.Topology.MasterAddr
}

func (s *ClusterSnapshot) Node(addr string) (NodeMetrics, bool) {
	for _, n := range s.Nodes {
		if n.Addr == addr {
			return n, true
		}
	}
	return NodeMetrics{}, false
}

func (s *ClusterSnapshot) NodeAddrs() []string {
	addrs := make([]string, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		addrs = append(addrs, n.Addr)
	}
	return addrs
}

// Rows flattens the snapshot into one export row per node. A snapshot with no
// nodes still yields a single row so a DOWN cycle stays visible.
func (s *ClusterSnapshot) Rows() []NodeRow {
	if len(s.Nodes) == 0 {
		return []NodeRow{{
			PollTime:   s.PollTime,
			Cluster:    s.Cluster,
			Health:     s.Health,
			MasterAddr: s.MasterAddr(),
		}}
	}
	rows := make([]NodeRow, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		rows = append(rows, NodeRow{
			PollTime:         s.PollTime,
			Cluster:          s.Cluster,
			Health:           s.Health,
			MasterAddr:       s.MasterAddr(),
			Addr:             n.Addr,
			Role:             n.Role,
			Reachable:        n.Reachable,
			LatencyMs:        n.LatencyMs,
			Keys:             n.Keys,
			ConnectedClients: n.ConnectedClients,
			UsedMemory:       n.UsedMemory,
			UsedMemoryHuman:  n.UsedMemoryHuman,
			ReplicaLag:       n.ReplicaLag,
		})
	}
	return rows
}

// WithOnlyNode returns a copy whose node list holds only addr.
func (s ClusterSnapshot) WithOnlyNode(addr string) ClusterSnapshot {
	var nodes []NodeMetrics
	for _, n := range s.Nodes {
		if n.Addr == addr {
			nodes = append(nodes, n)
		}
	}
	s.Nodes = nodes
	return s
}
