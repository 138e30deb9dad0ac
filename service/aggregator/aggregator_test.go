package aggregator

import (
	"testing"
	"time"

	"github.com/housepower/redwatch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pollTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func reachable(addr string, role model.Role) model.NodeMetrics {
	return model.NodeMetrics{
		Addr:             addr,
		Role:             role,
		Reachable:        true,
		LatencyMs:        model.Float64(0.42),
		Keys:             model.Int64(100),
		ConnectedClients: model.Int64(5),
		UsedMemory:       model.Int64(1 << 20),
	}
}

func topo(ratio float64, tilt bool) *model.ClusterTopology {
	return &model.ClusterTopology{
		Cluster:        "cacheA",
		MasterAddr:     "10.0.0.1:6379",
		Replicas:       []string{"10.0.0.2:6379", "10.0.0.3:6379"},
		AgreementRatio: ratio,
		Tilt:           tilt,
	}
}

func allUp() map[string]model.NodeMetrics {
	return map[string]model.NodeMetrics{
		"10.0.0.1:6379": reachable("10.0.0.1:6379", model.RoleMaster),
		"10.0.0.2:6379": reachable("10.0.0.2:6379", model.RoleReplica),
		"10.0.0.3:6379": reachable("10.0.0.3:6379", model.RoleReplica),
	}
}

func TestAggregateHealthy(t *testing.T) {
	snap := Aggregate("cacheA", topo(1.0, false), allUp(), nil, pollTime)
	assert.Equal(t, model.HealthHealthy, snap.Health)
	assert.Empty(t, snap.Causes)
	assert.Equal(t, []string{"10.0.0.1:6379", "10.0.0.2:6379", "10.0.0.3:6379"}, snap.NodeAddrs())
	assert.Equal(t, "10.0.0.1:6379", snap.MasterAddr())
	assert.Equal(t, pollTime, snap.PollTime)
}

func TestAggregateDeterministic(t *testing.T) {
	obs := []model.SentinelObservation{{Addr: "10.0.1.1:26379", Reachable: true, MasterAddr: "10.0.0.1:6379"}}
	a := Aggregate("cacheA", topo(0.75, false), allUp(), obs, pollTime)
	b := Aggregate("cacheA", topo(0.75, false), allUp(), obs, pollTime)
	assert.Equal(t, a, b)
	assert.Equal(t, SnapshotID("cacheA", pollTime), a.ID)
	assert.NotEqual(t, a.ID, SnapshotID("cacheA", pollTime.Add(time.Second)))
}

func TestAggregateMasterDown(t *testing.T) {
	for _, ratio := range []float64{1.0, 0.5} {
		nodes := allUp()
		nodes["10.0.0.1:6379"] = model.UnreachableNode("10.0.0.1:6379", model.RoleMaster, nil)
		snap := Aggregate("cacheA", topo(ratio, false), nodes, nil, pollTime)
		assert.Equal(t, model.HealthDown, snap.Health)
		assert.Contains(t, snap.Causes, model.CauseMasterUnreachable)
	}

	// a master the prober never reported counts as unreachable
	nodes := allUp()
	delete(nodes, "10.0.0.1:6379")
	snap := Aggregate("cacheA", topo(1.0, false), nodes, nil, pollTime)
	assert.Equal(t, model.HealthDown, snap.Health)
	m, ok := snap.Node("10.0.0.1:6379")
	require.True(t, ok)
	assert.False(t, m.Reachable)
}

func TestAggregateReplicaTimedOut(t *testing.T) {
	nodes := allUp()
	nodes["10.0.0.3:6379"] = model.UnreachableNode("10.0.0.3:6379", model.RoleReplica, nil)
	snap := Aggregate("cacheA", topo(1.0, false), nodes, nil, pollTime)
	assert.Equal(t, model.HealthDegraded, snap.Health)
	assert.Equal(t, []model.Cause{model.CauseReplicaUnreachable}, snap.Causes)

	m, ok := snap.Node("10.0.0.3:6379")
	require.True(t, ok)
	assert.False(t, m.Reachable)
	assert.Nil(t, m.Keys)
	assert.Nil(t, m.LatencyMs)
	assert.Nil(t, m.ConnectedClients)
	assert.Nil(t, m.UsedMemory)
	assert.Nil(t, m.ReplicaLag)
}

func TestAggregateDropsNumbersOfDeadNodes(t *testing.T) {
	nodes := allUp()
	dead := nodes["10.0.0.2:6379"]
	dead.Reachable = false
	nodes["10.0.0.2:6379"] = dead
	snap := Aggregate("cacheA", topo(1.0, false), nodes, nil, pollTime)
	m, _ := snap.Node("10.0.0.2:6379")
	assert.Nil(t, m.Keys)
	assert.Nil(t, m.UsedMemory)
}

func TestAggregateDegraded(t *testing.T) {
	snap := Aggregate("cacheA", topo(0.75, false), allUp(), nil, pollTime)
	assert.Equal(t, model.HealthDegraded, snap.Health)
	assert.Equal(t, []model.Cause{model.CausePartialAgreement}, snap.Causes)

	snap = Aggregate("cacheA", topo(1.0, true), allUp(), nil, pollTime)
	assert.Equal(t, model.HealthDegraded, snap.Health)
	assert.Equal(t, []model.Cause{model.CauseTilt}, snap.Causes)
}

func TestAggregateNoTopology(t *testing.T) {
	snap := Failed("cacheA", pollTime, &model.ResolutionError{Kind: model.NoQuorum, Cluster: "cacheA"}, nil)
	assert.Equal(t, model.HealthDown, snap.Health)
	assert.Nil(t, snap.Topology)
	assert.Empty(t, snap.Nodes)
	assert.Equal(t, []model.Cause{model.CauseNoQuorum}, snap.Causes)
	assert.Equal(t, "", snap.MasterAddr())
}

func TestTimedOut(t *testing.T) {
	snap := TimedOut("cacheB", pollTime, nil)
	assert.Equal(t, model.HealthDown, snap.Health)
	assert.Nil(t, snap.Topology)
	assert.Equal(t, []model.Cause{model.CauseCycleTimeout}, snap.Causes)
	assert.Equal(t, SnapshotID("cacheB", pollTime), snap.ID)
}

func TestAggregateDoesNotShareInput(t *testing.T) {
	in := topo(1.0, false)
	snap := Aggregate("cacheA", in, allUp(), nil, pollTime)
	in.Replicas[0] = "changed"
	assert.Equal(t, "10.0.0.2:6379", snap.Topology.Replicas[0])
}
