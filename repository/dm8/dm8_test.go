package dm8

import (
	"testing"

	"github.com/housepower/redwatch/repository"
	"github.com/stretchr/testify/assert"
)

func TestConfig(t *testing.T) {
	config := DM8Config{Host: "dm1", Schema: "REDWATCH"}
	config.Normalize()
	assert.Equal(t, DM8_PORT_DEFAULT, config.Port)
	assert.Equal(t, "dm://SYSDBA:SYSDBA@dm1:5236?autoCommit=true&schema=REDWATCH", config.DSN())
	assert.Equal(t, DM8_MAX_LIFETIME_DEFAULT, config.Pool().ConnMaxLifetime)
}

func TestRegistered(t *testing.T) {
	_, ok := repository.GetPersistentByName(DM8PersistentName).(*DM8Persistent)
	assert.True(t, ok)
}
