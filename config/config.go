package config

import (
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/hjson/hjson-go/v4"
	"github.com/housepower/redwatch/model"
	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var GlobalConfig RedwatchConfig

const (
	FORMAT_JSON  string = ".json"
	FORMAT_HJSON string = ".hjson"
	FORMAT_YAML  string = ".yaml"
	FORMAT_YML   string = ".yml"

	// DiscoverAll asks the sentinel for every master it monitors.
	DiscoverAll string = "*"

	SENTINEL_PORT_DEFAULT int = 26379
)

type CronJob struct {
	Enabled        bool
	PurgeSnapshots string `yaml:"purge_snapshots" json:"purge_snapshots"`
}

type RedwatchConfig struct {
	ConfigFile       string `yaml:"-" json:"-"`
	Server           ServerConfig
	Log              LogConfig
	Monitor          MonitorConfig
	PersistentConfig map[string]map[string]interface{} `yaml:"persistent_config" json:"persistent_config"`
	Cron             CronJob
	Version          string `yaml:"-" json:"-"`
}

type ServerConfig struct {
	Ip               string
	Port             int
	Pprof            bool
	Metrics          bool
	PersistentPolicy string `yaml:"persistent_policy" json:"persistent_policy"`
}

type LogConfig struct {
	Level    string
	MaxCount int `yaml:"max_count" json:"max_count"`
	MaxSize  int `yaml:"max_size" json:"max_size"`
	MaxAge   int `yaml:"max_age" json:"max_age"`
}

type SentinelConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Cluster  string `yaml:"cluster" json:"cluster"`
	Password string `yaml:"password" json:"password"`
}

// MonitorConfig drives the poll loop. Intervals are seconds, timeouts milliseconds.
type MonitorConfig struct {
	Sentinels         []SentinelConfig  `yaml:"sentinels" json:"sentinels"`
	NodePasswords     map[string]string `yaml:"node_passwords" json:"node_passwords"`
	RefreshInterval   int               `yaml:"refresh_interval" json:"refresh_interval"`
	SentinelTimeout   int               `yaml:"sentinel_timeout_ms" json:"sentinel_timeout_ms"`
	NodeTimeout       int               `yaml:"node_timeout_ms" json:"node_timeout_ms"`
	CycleTimeout      int               `yaml:"cycle_timeout_ms" json:"cycle_timeout_ms"`
	StoreWriteTimeout int               `yaml:"store_write_timeout_ms" json:"store_write_timeout_ms"`
	RetentionHours    int               `yaml:"retention_hours" json:"retention_hours"`
	Writers           int               `yaml:"writers" json:"writers"`
}

func defaultMonitor() MonitorConfig {
	return MonitorConfig{
		RefreshInterval:   60,
		SentinelTimeout:   2000,
		NodeTimeout:       1000,
		CycleTimeout:      10000,
		StoreWriteTimeout: 5000,
		Writers:           4,
	}
}

// Normalize fills zero monitor settings with defaults.
func (m *MonitorConfig) Normalize() {
	_ = mergo.Merge(m, defaultMonitor())
	for i := range m.Sentinels {
		_ = mergo.Merge(&m.Sentinels[i], SentinelConfig{Port: SENTINEL_PORT_DEFAULT})
		m.Sentinels[i].Host = strings.TrimSpace(m.Sentinels[i].Host)
		m.Sentinels[i].Cluster = strings.TrimSpace(m.Sentinels[i].Cluster)
	}
}

func (m *MonitorConfig) Interval() time.Duration {
	return time.Duration(m.RefreshInterval) * time.Second
}

func (m *MonitorConfig) SentinelTimeoutDuration() time.Duration {
	return time.Duration(m.SentinelTimeout) * time.Millisecond
}

func (m *MonitorConfig) NodeTimeoutDuration() time.Duration {
	return time.Duration(m.NodeTimeout) * time.Millisecond
}

func (m *MonitorConfig) CycleTimeoutDuration() time.Duration {
	return time.Duration(m.CycleTimeout) * time.Millisecond
}

func (m *MonitorConfig) StoreWriteTimeoutDuration() time.Duration {
	return time.Duration(m.StoreWriteTimeout) * time.Millisecond
}

func (m *MonitorConfig) Retention() time.Duration {
	return time.Duration(m.RetentionHours) * time.Hour
}

// Validate rejects configurations the scheduler cannot start with.
func (m *MonitorConfig) Validate() error {
	if len(m.Sentinels) == 0 {
		return errors.New("monitor.sentinels is empty")
	}
	seen := make(map[string]struct{}, len(m.Sentinels))
	for i, s := range m.Sentinels {
		if s.Host == "" {
			return errors.Errorf("monitor.sentinels[%d]: host is empty", i)
		}
		if s.Port <= 0 || s.Port > 65535 {
			return errors.Errorf("monitor.sentinels[%d]: port %d out of range", i, s.Port)
		}
		if s.Cluster == "" {
			return errors.Errorf("monitor.sentinels[%d]: cluster is empty", i)
		}
		key := s.Cluster + "@" + net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
		if _, ok := seen[key]; ok {
			return errors.Errorf("monitor.sentinels[%d]: duplicate endpoint %s", i, key)
		}
		seen[key] = struct{}{}
	}
	if m.RefreshInterval <= 0 {
		return errors.Errorf("monitor.refresh_interval must be positive, got %d", m.RefreshInterval)
	}
	for name, v := range map[string]int{
		"sentinel_timeout_ms":    m.SentinelTimeout,
		"node_timeout_ms":        m.NodeTimeout,
		"cycle_timeout_ms":       m.CycleTimeout,
		"store_write_timeout_ms": m.StoreWriteTimeout,
	} {
		if v <= 0 {
			return errors.Errorf("monitor.%s must be positive, got %d", name, v)
		}
	}
	if m.RetentionHours < 0 {
		return errors.Errorf("monitor.retention_hours must not be negative, got %d", m.RetentionHours)
	}
	return nil
}

// Endpoints returns the configured sentinel endpoints. Entries using the
// DiscoverAll cluster name are skipped; see Discoverable.
func (m *MonitorConfig) Endpoints() []model.SentinelEndpoint {
	var endpoints []model.SentinelEndpoint
	for _, s := range m.Sentinels {
		if s.Cluster == DiscoverAll {
			continue
		}
		endpoints = append(endpoints, model.SentinelEndpoint{
			Host:     s.Host,
			Port:     s.Port,
			Cluster:  s.Cluster,
			Password: s.Password,
		})
	}
	return endpoints
}

// Discoverable returns the sentinels whose clusters must be listed at startup.
func (m *MonitorConfig) Discoverable() []model.SentinelEndpoint {
	var list []model.SentinelEndpoint
	for _, s := range m.Sentinels {
		if s.Cluster == DiscoverAll {
			list = append(list, model.SentinelEndpoint{
				Host:     s.Host,
				Port:     s.Port,
				Cluster:  s.Cluster,
				Password: s.Password,
			})
		}
	}
	return list
}

func fillDefault(c *RedwatchConfig) {
	c.Server.Port = 8818
	c.Server.Pprof = false
	c.Server.Metrics = true
	c.Server.PersistentPolicy = "local"
	c.Log.Level = "INFO"
	c.Log.MaxCount = 5
	c.Log.MaxSize = 10
	c.Log.MaxAge = 10
	c.Monitor = defaultMonitor()
	c.Cron.Enabled = true
	c.Cron.PurgeSnapshots = "0 0 * * * *"
}

func MergeEnv(c *RedwatchConfig) {
	if v := os.Getenv("HOST_IP"); v != "" {
		c.Server.Ip = v
	}
	if v := os.Getenv("REDWATCH_PERSISTENT_POLICY"); v != "" {
		c.Server.PersistentPolicy = v
	}
	if v := os.Getenv("REDWATCH_REFRESH_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Monitor.RefreshInterval = n
		}
	}
}

// ParseConfig decodes data according to the format implied by the extension.
func ParseConfig(data []byte, ext string, c *RedwatchConfig) error {
	fillDefault(c)
	var err error
	switch ext {
	case FORMAT_JSON, FORMAT_HJSON:
		err = hjson.Unmarshal(data, c)
	case FORMAT_YAML, FORMAT_YML:
		err = yaml.Unmarshal(data, c)
	default:
		return fmt.Errorf("config format %s unsupported yet", ext)
	}
	if err != nil {
		return errors.Wrap(err, "")
	}
	MergeEnv(c)
	c.Monitor.Normalize()
	return nil
}

func ParseConfigFile(p, version string) error {
	f, err := os.Open(p)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "")
	}

	GlobalConfig.ConfigFile = p
	GlobalConfig.Version = version
	return ParseConfig(data, path.Ext(p), &GlobalConfig)
}
