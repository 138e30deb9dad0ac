package mysql

import (
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/repository"
	"github.com/housepower/redwatch/repository/sqlstore"
	"github.com/pkg/errors"
	driver "gorm.io/driver/mysql"
)

type MysqlPersistent struct {
	Config MysqlConfig
	sqlstore.Store
}

func NewMysqlPersistent() *MysqlPersistent {
	return &MysqlPersistent{}
}

func (mp *MysqlPersistent) UnmarshalConfig(configMap map[string]interface{}) interface{} {
	var config MysqlConfig
	if !repository.DecodeConfig(MySQLPersistentName, configMap, &config) {
		return nil
	}
	return config
}

func (mp *MysqlPersistent) Init(config interface{}) error {
	if config == nil {
		config = MysqlConfig{}
	}
	mp.Config = config.(MysqlConfig)
	mp.Config.Normalize()

	log.Logger.Debugf("mysql host:%s:%d, database:%s", mp.Config.Host, mp.Config.Port, mp.Config.DataBase)
	db, err := sqlstore.Open(driver.Open(mp.Config.DSN()), mp.Config.Pool(), nil)
	if err != nil {
		return err
	}
	mp.Client = db

	//auto create table
	err = mp.Client.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4").AutoMigrate(
		&sqlstore.TblSnapshot{},
		&sqlstore.TblSnapshotNode{},
	)
	if err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
