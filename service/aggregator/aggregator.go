package aggregator

import (
	"fmt"
	"time"

	"github.com/housepower/redwatch/model"
)

// SnapshotID is derived from the cluster and poll time only, so the same cycle
// always gets the same id.
func SnapshotID(cluster string, pollTime time.Time) string {
	return fmt.Sprintf("%s-%d", cluster, pollTime.UnixNano())
}

// Aggregate combines one cycle's topology and node metrics into a snapshot.
// It does no I/O and the result depends on its arguments only.
func Aggregate(cluster string, topo *model.ClusterTopology, nodes map[string]model.NodeMetrics,
	sentinels []model.SentinelObservation, pollTime time.Time) model.ClusterSnapshot {
	snap := model.ClusterSnapshot{
		ID:        SnapshotID(cluster, pollTime),
		Cluster:   cluster,
		PollTime:  pollTime,
		Sentinels: copyObservations(sentinels),
	}
	if topo == nil {
		snap.Health = model.HealthDown
		snap.Causes = []model.Cause{model.CauseNoQuorum}
		return snap
	}

	t := *topo
	t.Replicas = append([]string(nil), topo.Replicas...)
	if topo.Candidates != nil {
		t.Candidates = make(map[string]int, len(topo.Candidates))
		for k, v := range topo.Candidates {
			t.Candidates[k] = v
		}
	}
	snap.Topology = &t

	var masterDown, replicaDown bool
	for _, addr := range t.Addrs() {
		m, ok := nodes[addr]
		if !ok {
			m = model.UnreachableNode(addr, t.RoleOf(addr), fmt.Errorf("%s: not probed", addr))
		}
		m.Addr = addr
		m.Role = t.RoleOf(addr)
		if !m.Reachable {
			m = stripNumbers(m)
			if m.Role == model.RoleMaster {
				masterDown = true
			} else {
				replicaDown = true
			}
		}
		snap.Nodes = append(snap.Nodes, m)
	}

	if masterDown {
		snap.Causes = append(snap.Causes, model.CauseMasterUnreachable)
	}
	if t.AgreementRatio < 1.0 {
		snap.Causes = append(snap.Causes, model.CausePartialAgreement)
	}
	if replicaDown {
		snap.Causes = append(snap.Causes, model.CauseReplicaUnreachable)
	}
	if t.Tilt {
		snap.Causes = append(snap.Causes, model.CauseTilt)
	}

	switch {
	case masterDown:
		snap.Health = model.HealthDown
	case len(snap.Causes) > 0:
		snap.Health = model.HealthDegraded
	default:
		snap.Health = model.HealthHealthy
	}
	return snap
}

// TimedOut records a cluster whose pipeline missed the cycle deadline.
func TimedOut(cluster string, pollTime time.Time, sentinels []model.SentinelObservation) model.ClusterSnapshot {
	return model.ClusterSnapshot{
		ID:        SnapshotID(cluster, pollTime),
		Cluster:   cluster,
		PollTime:  pollTime,
		Sentinels: copyObservations(sentinels),
		Health:    model.HealthDown,
		Causes:    []model.Cause{model.CauseCycleTimeout},
	}
}

// Failed records a cluster whose topology could not be resolved.
func Failed(cluster string, pollTime time.Time, err error, sentinels []model.SentinelObservation) model.ClusterSnapshot {
	snap := Aggregate(cluster, nil, nil, sentinels, pollTime)
	if model.KindOf(err) == model.CycleTimeout {
		snap.Causes = []model.Cause{model.CauseCycleTimeout}
	}
	return snap
}

// stripNumbers makes sure a dead node never carries a number, zero or not.
func stripNumbers(m model.NodeMetrics) model.NodeMetrics {
	return model.NodeMetrics{
		Addr:  m.Addr,
		Role:  m.Role,
		Error: m.Error,
	}
}

func copyObservations(sentinels []model.SentinelObservation) []model.SentinelObservation {
	if len(sentinels) == 0 {
		return nil
	}
	return append([]model.SentinelObservation(nil), sentinels...)
}
