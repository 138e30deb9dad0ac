package postgres

import "github.com/housepower/redwatch/repository"

func init() {
	repository.RegistePersistent(NewFactory)
}

type Factory struct{}

func (factory *Factory) CreatePersistent() repository.SnapshotStore {
	return NewPostgresPersistent()
}

func (factory *Factory) GetPersistentName() string {
	return PostgresPersistentName
}

func NewFactory() repository.PersistentFactory {
	return &Factory{}
}
