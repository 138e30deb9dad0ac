package dm8

import (
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/repository"
	"github.com/housepower/redwatch/repository/sqlstore"
	"github.com/pkg/errors"
	driver "github.com/wanlay/gorm-dm8"
	dmSchema "github.com/wanlay/gorm-dm8/schema"
	"gorm.io/gorm"
)

type DM8Persistent struct {
	Config DM8Config
	sqlstore.Store
}

func NewDM8Persistent() *DM8Persistent {
	return &DM8Persistent{}
}

func (mp *DM8Persistent) UnmarshalConfig(configMap map[string]interface{}) interface{} {
	var config DM8Config
	if !repository.DecodeConfig(DM8PersistentName, configMap, &config) {
		return nil
	}
	return config
}

func (mp *DM8Persistent) Init(config interface{}) error {
	if config == nil {
		config = DM8Config{}
	}
	mp.Config = config.(DM8Config)
	mp.Config.Normalize()

	log.Logger.Debugf("DM8 host:%s:%d, schema:%s", mp.Config.Host, mp.Config.Port, mp.Config.Schema)
	db, err := sqlstore.Open(driver.Open(mp.Config.DSN()), mp.Config.Pool(), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return err
	}
	mp.Client = db
	mp.Scan = scanClob

	//auto create table
	err = mp.Client.AutoMigrate(
		&sqlstore.TblSnapshot{},
		&sqlstore.TblSnapshotNode{},
	)
	if err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// text columns come back from DM8 as clob handles
func scanClob(src repository.Rows) (string, error) {
	var payload dmSchema.Clob
	if err := src.Scan(&payload); err != nil {
		return "", err
	}
	return string(payload), nil
}
