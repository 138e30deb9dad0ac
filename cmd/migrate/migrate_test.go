package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	"github.com/housepower/redwatch/repository/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func snapshot(cluster string, at time.Time) model.ClusterSnapshot {
	return model.ClusterSnapshot{
		ID:       fmt.Sprintf("%s-%d", cluster, at.UnixNano()),
		Cluster:  cluster,
		PollTime: at,
		Health:   model.HealthHealthy,
		Nodes:    []model.NodeMetrics{{Addr: "10.0.0.1:6379", Role: model.RoleMaster, Reachable: true}},
	}
}

func newStore(t *testing.T, dir string) repository.SnapshotStore {
	lp := local.NewLocalPersistent()
	require.NoError(t, lp.Init(local.LocalConfig{DataDir: dir, NoSync: true}))
	t.Cleanup(func() { _ = lp.Close() })
	return lp
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	src := newStore(t, t.TempDir())
	dst := newStore(t, t.TempDir())
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, src.Append(ctx, snapshot("cacheA", at)))
		require.NoError(t, src.Append(ctx, snapshot("cacheB", at)))
	}
	require.NoError(t, dst.Append(ctx, snapshot("cacheA", base.Add(time.Minute))))

	copied, err := Migrate(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, 4, copied)

	snaps, err := repository.Collect(ctx, dst, model.HistoryQuery{Cluster: "cacheA"})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.True(t, snaps[1].PollTime.Equal(base.Add(2*time.Minute)))

	snaps, err = repository.Collect(ctx, dst, model.HistoryQuery{Cluster: "cacheB"})
	require.NoError(t, err)
	assert.Len(t, snaps, 3)

	copied, err = Migrate(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, 0, copied)
}

func TestParseConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "migrate.hjson")
	content := fmt.Sprintf(`{
  source: old
  target: new
  persistent_config: {
    old: {
      policy: local
      config: {
        data_dir: %q
      }
    }
    new: {
      policy: local
      config: {
        data_dir: %q
      }
    }
  }
}`, filepath.Join(dir, "old"), filepath.Join(dir, "new"))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))

	config, err := ParseConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "old", config.Source)
	assert.Equal(t, "new", config.Target)
	assert.Equal(t, "local", config.PsConf["new"].Policy)

	ps, err := PersistentCheck(config, config.Source)
	require.NoError(t, err)
	defer ps.Close()
	assert.FileExists(t, filepath.Join(dir, "old", local.SNAPSHOT_FILE_DEFAULT))

	_, err = PersistentCheck(config, "missing")
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.hjson")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = ParseConfig(empty)
	assert.Error(t, err)
}
