package model

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestUnreachableNode(t *testing.T) {
	m := UnreachableNode("10.0.0.1:6379", RoleReplica, errors.New("connection refused"))
	assert.Equal(t, "10.0.0.1:6379", m.Addr)
	assert.Equal(t, RoleReplica, m.Role)
	assert.False(t, m.Reachable)
	assert.Equal(t, "connection refused", m.Error)
	assert.Nil(t, m.LatencyMs)
	assert.Nil(t, m.Keys)
	assert.Nil(t, m.ConnectedClients)
	assert.Nil(t, m.UsedMemory)
	assert.Nil(t, m.ReplicaLag)

	m = UnreachableNode("10.0.0.2:6379", RoleMaster, nil)
	assert.Empty(t, m.Error)
}

func TestKindOf(t *testing.T) {
	err := errors.Wrap(&ProbeError{Kind: Unreachable, Addr: "10.0.0.1:26379"}, "observe")
	assert.Equal(t, Unreachable, KindOf(err))
	assert.Equal(t, NoQuorum, KindOf(&ResolutionError{Kind: NoQuorum, Cluster: "cacheA"}))
	assert.Equal(t, StoreWriteFailure, KindOf(&StoreError{Kind: StoreWriteFailure, Err: errors.New("disk full")}))
	assert.Equal(t, Unreachable, KindOf(context.DeadlineExceeded))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("other")))
}
