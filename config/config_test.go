package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hjsonConfig = `
{
  server: {
    port: 9000
    persistent_policy: mysql
  }
  monitor: {
    sentinels: [
      { host: "10.0.1.1", cluster: "cacheA" }
      { host: "10.0.1.2", port: 26380, cluster: " cacheA ", password: "secret" }
      { host: "10.0.1.1", cluster: "*" }
    ]
    node_passwords: { cacheA: "nodepass" }
    refresh_interval: 30
    retention_hours: 72
  }
  persistent_config: {
    mysql: { host: "127.0.0.1", port: 3306 }
  }
}
`

const yamlConfig = `
server:
  port: 9001
monitor:
  sentinels:
    - host: 10.0.1.1
      port: 26379
      cluster: cacheB
  cycle_timeout_ms: 3000
cron:
  enabled: false
`

func TestParseHjson(t *testing.T) {
	var c RedwatchConfig
	require.NoError(t, ParseConfig([]byte(hjsonConfig), FORMAT_HJSON, &c))

	assert.Equal(t, 9000, c.Server.Port)
	assert.Equal(t, "mysql", c.Server.PersistentPolicy)
	assert.True(t, c.Server.Metrics)
	assert.Equal(t, "INFO", c.Log.Level)

	m := c.Monitor
	require.Len(t, m.Sentinels, 3)
	assert.Equal(t, SENTINEL_PORT_DEFAULT, m.Sentinels[0].Port)
	assert.Equal(t, 26380, m.Sentinels[1].Port)
	assert.Equal(t, "cacheA", m.Sentinels[1].Cluster)
	assert.Equal(t, 30*time.Second, m.Interval())
	assert.Equal(t, 2*time.Second, m.SentinelTimeoutDuration())
	assert.Equal(t, time.Second, m.NodeTimeoutDuration())
	assert.Equal(t, 10*time.Second, m.CycleTimeoutDuration())
	assert.Equal(t, 5*time.Second, m.StoreWriteTimeoutDuration())
	assert.Equal(t, 72*time.Hour, m.Retention())
	assert.Equal(t, 4, m.Writers)
	assert.Equal(t, "nodepass", m.NodePasswords["cacheA"])
	require.NoError(t, m.Validate())

	endpoints := m.Endpoints()
	require.Len(t, endpoints, 2)
	assert.Equal(t, "10.0.1.2:26380", endpoints[1].Addr())
	assert.Equal(t, "secret", endpoints[1].Password)

	seeds := m.Discoverable()
	require.Len(t, seeds, 1)
	assert.Equal(t, "10.0.1.1:26379", seeds[0].Addr())

	assert.Equal(t, "127.0.0.1", c.PersistentConfig["mysql"]["host"])
}

func TestParseYaml(t *testing.T) {
	var c RedwatchConfig
	require.NoError(t, ParseConfig([]byte(yamlConfig), FORMAT_YAML, &c))
	assert.Equal(t, 9001, c.Server.Port)
	assert.Equal(t, "local", c.Server.PersistentPolicy)
	assert.Equal(t, 3*time.Second, c.Monitor.CycleTimeoutDuration())
	assert.Equal(t, 60*time.Second, c.Monitor.Interval())
	assert.False(t, c.Cron.Enabled)
	require.NoError(t, c.Monitor.Validate())
}

func TestParseUnsupported(t *testing.T) {
	var c RedwatchConfig
	assert.Error(t, ParseConfig([]byte("a=b"), ".toml", &c))
	assert.Error(t, ParseConfig([]byte("{"), FORMAT_JSON, &c))
}

func TestParseConfigFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "redwatch.yaml")
	require.NoError(t, os.WriteFile(p, []byte(yamlConfig), 0644))
	require.NoError(t, ParseConfigFile(p, "v1.0.0"))
	assert.Equal(t, p, GlobalConfig.ConfigFile)
	assert.Equal(t, "v1.0.0", GlobalConfig.Version)
	assert.Equal(t, "cacheB", GlobalConfig.Monitor.Sentinels[0].Cluster)

	assert.Error(t, ParseConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), ""))
}

func TestMergeEnv(t *testing.T) {
	t.Setenv("REDWATCH_PERSISTENT_POLICY", "postgres")
	t.Setenv("REDWATCH_REFRESH_INTERVAL", "15")
	var c RedwatchConfig
	require.NoError(t, ParseConfig([]byte(yamlConfig), FORMAT_YAML, &c))
	assert.Equal(t, "postgres", c.Server.PersistentPolicy)
	assert.Equal(t, 15*time.Second, c.Monitor.Interval())
}

func TestValidate(t *testing.T) {
	valid := func() MonitorConfig {
		m := MonitorConfig{Sentinels: []SentinelConfig{
			{Host: "10.0.1.1", Cluster: "cacheA"},
			{Host: "10.0.1.2", Cluster: "cacheA"},
		}}
		m.Normalize()
		return m
	}
	m := valid()
	require.NoError(t, m.Validate())

	cases := map[string]func(m *MonitorConfig){
		"empty":          func(m *MonitorConfig) { m.Sentinels = nil },
		"empty host":     func(m *MonitorConfig) { m.Sentinels[0].Host = "" },
		"port too large": func(m *MonitorConfig) { m.Sentinels[0].Port = 70000 },
		"negative port":  func(m *MonitorConfig) { m.Sentinels[0].Port = -1 },
		"empty cluster":  func(m *MonitorConfig) { m.Sentinels[1].Cluster = "" },
		"duplicate":      func(m *MonitorConfig) { m.Sentinels[1].Host = "10.0.1.1" },
		"interval":       func(m *MonitorConfig) { m.RefreshInterval = -5 },
		"node timeout":   func(m *MonitorConfig) { m.NodeTimeout = -1 },
		"retention":      func(m *MonitorConfig) { m.RetentionHours = -1 },
	}
	for name, mutate := range cases {
		m := valid()
		mutate(&m)
		assert.Error(t, m.Validate(), name)
	}
}
