package common

import (
	"testing"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

const sampleInfo = "# Server\r\nredis_version:7.2.4\r\n\r\n# Clients\r\nconnected_clients:12\r\n" +
	"# Memory\r\nused_memory:1048576\r\nused_memory_human:1.00M\r\n" +
	"# Replication\r\nrole:master\r\nmaster_repl_offset:5000\r\n" +
	"# Keyspace\r\ndb0:keys=10,expires=2,avg_ttl=0\r\ndb3:keys=5,expires=0,avg_ttl=0\r\n"

func TestParseInfo(t *testing.T) {
	m := ParseInfo(sampleInfo)
	assert.Equal(t, "7.2.4", m["redis_version"])
	assert.Equal(t, "1.00M", m["used_memory_human"])
	assert.Equal(t, "master", m["role"])
	_, ok := m["# Server"]
	assert.False(t, ok)

	n, ok := InfoInt64(m, "connected_clients")
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)

	_, ok = InfoInt64(m, "missing")
	assert.False(t, ok)

	_, ok = InfoInt64(map[string]string{"x": "abc"}, "x")
	assert.False(t, ok)
}

func TestKeyspaceKeys(t *testing.T) {
	keys, ok := KeyspaceKeys(ParseInfo(sampleInfo))
	assert.True(t, ok)
	assert.Equal(t, int64(15), keys)

	_, ok = KeyspaceKeys(map[string]string{"role": "master"})
	assert.False(t, ok)
}

func TestIsReplyError(t *testing.T) {
	assert.True(t, IsReplyError(redis.Error("ERR unknown command")))
	assert.True(t, IsReplyError(errors.Wrap(redis.Error("ERR"), "wrapped")))
	assert.False(t, IsReplyError(errors.New("connection refused")))
}
