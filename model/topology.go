package model

// ClusterTopology is the resolved master/replica layout of one cluster for one cycle.
type ClusterTopology struct {
	Cluster        string         `json:"cluster"`
	MasterAddr     string         `json:"master_addr"`
	Replicas       []string       `json:"replicas"`
	SentinelsAgree int            `json:"sentinels_agree"`
	Responding     int            `json:"responding"`
	Configured     int            `json:"configured"`
	AgreementRatio float64        `json:"agreement_ratio"`
	Tilt           bool           `json:"tilt"`
	Candidates     map[string]int `json:"candidates,omitempty"`
}

// Addrs returns the master followed by the replicas.
func (t *ClusterTopology) Addrs() []string {
	addrs := make([]string, 0, len(t.Replicas)+1)
	addrs = append(addrs, t.MasterAddr)
	return append(addrs, t.Replicas...)
}

func (t *ClusterTopology) RoleOf(addr string) Role {
	if addr == t.MasterAddr {
		return RoleMaster
	}
	return RoleReplica
}
