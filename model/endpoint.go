package model

import (
	"net"
	"strconv"
)

// SentinelEndpoint is one sentinel process watching one logical cluster.
type SentinelEndpoint struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Cluster  string `json:"cluster"`
	Password string `json:"-"`
}

func (e SentinelEndpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ClusterEndpoints groups endpoints by cluster name, keeping configuration order
// inside each group. The returned names are in first-seen order.
func ClusterEndpoints(endpoints []SentinelEndpoint) ([]string, map[string][]SentinelEndpoint) {
	var names []string
	groups := make(map[string][]SentinelEndpoint)
	for _, e := range endpoints {
		if _, ok := groups[e.Cluster]; !ok {
			names = append(names, e.Cluster)
		}
		groups[e.Cluster] = append(groups[e.Cluster], e)
	}
	return names, groups
}
