package exporter

import (
	"bufio"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	ctx := context.Background()
	lp := local.NewLocalPersistent()
	require.NoError(t, lp.Init(local.LocalConfig{DataDir: t.TempDir(), NoSync: true}))
	defer lp.Close()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, lp.Append(ctx, model.ClusterSnapshot{
		ID: "cacheA-1", Cluster: "cacheA", PollTime: base, Health: model.HealthDegraded,
		Topology: &model.ClusterTopology{Cluster: "cacheA", MasterAddr: "10.0.0.1:6379"},
		Nodes: []model.NodeMetrics{
			{Addr: "10.0.0.1:6379", Role: model.RoleMaster, Reachable: true, Keys: model.Int64(7)},
			{Addr: "10.0.0.2:6379", Role: model.RoleReplica},
		},
	}))
	require.NoError(t, lp.Append(ctx, model.ClusterSnapshot{
		ID: "cacheA-2", Cluster: "cacheA", PollTime: base.Add(time.Minute), Health: model.HealthDown,
	}))

	var buf bytes.Buffer
	n, err := Export(ctx, lp, model.HistoryQuery{Cluster: "cacheA"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var rows []model.NodeRow
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var row model.NodeRow
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
		rows = append(rows, row)
	}
	require.Len(t, rows, 3)
	assert.Equal(t, "10.0.0.1:6379", rows[0].Addr)
	require.NotNil(t, rows[0].Keys)
	assert.Equal(t, int64(7), *rows[0].Keys)
	assert.False(t, rows[1].Reachable)
	assert.Nil(t, rows[1].Keys)
	assert.Equal(t, model.HealthDown, rows[2].Health)
	assert.Empty(t, rows[2].Addr)

	buf.Reset()
	n, err = Export(ctx, lp, model.HistoryQuery{Cluster: "cacheA", Node: "10.0.0.2:6379"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
