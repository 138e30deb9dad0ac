package repository

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	old := ConnectTimeout
	defer func() { ConnectTimeout = old }()
	ConnectTimeout = 5 * time.Second

	calls := 0
	err := Retry("flaky", func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	ConnectTimeout = 200 * time.Millisecond
	err = Retry("down", func() error { return errors.New("connection refused") })
	assert.EqualError(t, err, "connection refused")
}
