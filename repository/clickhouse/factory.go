package clickhouse

import "github.com/housepower/redwatch/repository"

func init() {
	repository.RegistePersistent(NewFactory)
}

type Factory struct{}

func (factory *Factory) CreatePersistent() repository.SnapshotStore {
	return NewClickHousePersistent()
}

func (factory *Factory) GetPersistentName() string {
	return ClickHousePersistentName
}

func NewFactory() repository.PersistentFactory {
	return &Factory{}
}
