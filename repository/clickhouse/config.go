package clickhouse

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/housepower/redwatch/common"
)

type ClickHouseConfig struct {
	Hosts        []string `yaml:"hosts" json:"hosts"`
	Port         int      `yaml:"port" json:"port"`
	User         string   `yaml:"user" json:"user"`
	Password     string   `yaml:"password" json:"password"`
	Database     string   `yaml:"database" json:"database"`
	Table        string   `yaml:"table" json:"table"`
	DialTimeout  int      `yaml:"dial_timeout" json:"dial_timeout"`
	MaxOpenConns int      `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns int      `yaml:"max_idle_conns" json:"max_idle_conns"`
}

func (config *ClickHouseConfig) Normalize() {
	if len(config.Hosts) == 0 {
		config.Hosts = []string{"127.0.0.1"}
	}
	config.Port = common.GetIntegerwithDefault(config.Port, CK_PORT_DEFAULT)
	config.User = common.GetStringwithDefault(config.User, "default")
	config.Database = common.GetStringwithDefault(config.Database, CK_DATABASE_DEFAULT)
	config.Table = common.GetStringwithDefault(config.Table, CK_TABLE_DEFAULT)
	config.DialTimeout = common.GetIntegerwithDefault(config.DialTimeout, CK_DIAL_TIMEOUT_DEFAULT)
	config.MaxOpenConns = common.GetIntegerwithDefault(config.MaxOpenConns, CK_MAX_OPEN_CONNS_DEFAULT)
	config.MaxIdleConns = common.GetIntegerwithDefault(config.MaxIdleConns, CK_MAX_IDLE_CONNS_DEFAULT)
}

func (config *ClickHouseConfig) Addrs() []string {
	addrs := make([]string, 0, len(config.Hosts))
	for _, host := range config.Hosts {
		if _, _, err := net.SplitHostPort(host); err == nil {
			addrs = append(addrs, host)
			continue
		}
		addrs = append(addrs, net.JoinHostPort(host, strconv.Itoa(config.Port)))
	}
	return addrs
}

func (config *ClickHouseConfig) TableName() string {
	return fmt.Sprintf("`%s`.`%s`", config.Database, config.Table)
}

func (config *ClickHouseConfig) Timeout() time.Duration {
	return time.Duration(config.DialTimeout) * time.Second
}
