package sqlstore

import (
	"time"

	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/repository"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"moul.io/zapgorm2"
)

// PoolConfig is the connection pool section shared by every sql backend.
type PoolConfig struct {
	MaxIdleConns    int `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns    int `yaml:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime int `yaml:"conn_max_life_time" json:"conn_max_life_time"`
	ConnMaxIdleTime int `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
}

// Open connects through dialector with gorm logging routed to zap and the
// pool configured. cfg may be nil.
func Open(dialector gorm.Dialector, pool PoolConfig, cfg *gorm.Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &gorm.Config{}
	}
	logger := zapgorm2.New(log.ZapLog)
	logger.SetAsDefault()
	cfg.Logger = logger
	var db *gorm.DB
	err := repository.Retry("connect database", func() error {
		var err error
		db, err = gorm.Open(dialector, cfg)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	// set connection pool
	if sqlDB != nil {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
		sqlDB.SetConnMaxIdleTime(time.Second * time.Duration(pool.ConnMaxIdleTime))
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Second * time.Duration(pool.ConnMaxLifetime))
	}
	return db, nil
}
