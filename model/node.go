package model

// NodeMetrics is one data node's probe result. An unreachable node carries no
// numbers at all: nil means absent, never zero.
type NodeMetrics struct {
	Addr             string   `json:"addr"`
	Role             Role     `json:"role"`
	Reachable        bool     `json:"reachable"`
	LatencyMs        *float64 `json:"latency_ms,omitempty"`
	Keys             *int64   `json:"keys,omitempty"`
	ConnectedClients *int64   `json:"connected_clients,omitempty"`
	UsedMemory       *int64   `json:"used_memory,omitempty"`
	UsedMemoryHuman  string   `json:"used_memory_human,omitempty"`
	ReplicaLag       *int64   `json:"replica_lag,omitempty"`
	ReportedRole     string   `json:"reported_role,omitempty"`
	MasterLinkStatus string   `json:"master_link_status,omitempty"`
	ReplOffset       *int64   `json:"repl_offset,omitempty"`
	Error            string   `json:"error,omitempty"`
}

func UnreachableNode(addr string, role Role, err error) NodeMetrics {
	m := NodeMetrics{Addr: addr, Role: role}
	if err != nil {
		m.Error = err.Error()
	}
	return m
}

func Int64(v int64) *int64 {
	return &v
}

func Float64(v float64) *float64 {
	return &v
}
