package postgres

import (
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/repository"
	"github.com/housepower/redwatch/repository/sqlstore"
	"github.com/pkg/errors"
	driver "gorm.io/driver/postgres"
)

type PostgresPersistent struct {
	Config PostgresConfig
	sqlstore.Store
}

func NewPostgresPersistent() *PostgresPersistent {
	return &PostgresPersistent{}
}

func (mp *PostgresPersistent) UnmarshalConfig(configMap map[string]interface{}) interface{} {
	var config PostgresConfig
	if !repository.DecodeConfig(PostgresPersistentName, configMap, &config) {
		return nil
	}
	return config
}

func (mp *PostgresPersistent) Init(config interface{}) error {
	if config == nil {
		config = PostgresConfig{}
	}
	mp.Config = config.(PostgresConfig)
	mp.Config.Normalize()

	log.Logger.Debugf("postgres host:%s:%d, database:%s", mp.Config.Host, mp.Config.Port, mp.Config.DataBase)
	db, err := sqlstore.Open(driver.Open(mp.Config.DSN()), mp.Config.Pool(), nil)
	if err != nil {
		return err
	}
	mp.Client = db

	//postgres automigrate have many bugs,so we create table with sql
	for _, stmt := range createTables {
		if err = mp.Client.Exec(stmt).Error; err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}
