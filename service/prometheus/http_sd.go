package prometheus

import (
	"github.com/housepower/redwatch/model"
)

const (
	LABEL_CLUSTER string = "redis_cluster"
	LABEL_ROLE    string = "redis_role"
)

// Object is one target group of the Prometheus HTTP service discovery format.
type Object struct {
	Targets []string          `json:"targets"`
	Labels  map[string]string `json:"labels"`
}

// GetObjects turns the latest snapshot of each cluster into target groups,
// one per cluster and role. Unreachable nodes stay listed so their scrape
// failures show up in Prometheus as well.
func GetObjects(snaps []model.ClusterSnapshot) []Object {
	objs := make([]Object, 0, 2*len(snaps))
	for _, snap := range snaps {
		master := Object{Labels: map[string]string{LABEL_CLUSTER: snap.Cluster, LABEL_ROLE: string(model.RoleMaster)}}
		replica := Object{Labels: map[string]string{LABEL_CLUSTER: snap.Cluster, LABEL_ROLE: string(model.RoleReplica)}}
		for _, node := range snap.Nodes {
			switch node.Role {
			case model.RoleMaster:
				master.Targets = append(master.Targets, node.Addr)
			case model.RoleReplica:
				replica.Targets = append(replica.Targets, node.Addr)
			}
		}
		for _, obj := range []Object{master, replica} {
			if len(obj.Targets) == 0 {
				continue
			}
			objs = append(objs, obj)
		}
	}
	return objs
}
