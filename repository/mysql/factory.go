package mysql

import "github.com/housepower/redwatch/repository"

func init() {
	repository.RegistePersistent(NewFactory)
}

type Factory struct{}

func (factory *Factory) CreatePersistent() repository.SnapshotStore {
	return NewMysqlPersistent()
}

func (factory *Factory) GetPersistentName() string {
	return MySQLPersistentName
}

func NewFactory() repository.PersistentFactory {
	return &Factory{}
}
