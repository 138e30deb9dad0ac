package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArrayDistinct(t *testing.T) {
	in := []string{"10.0.0.3:6379", "10.0.0.2:6379", "", "10.0.0.3:6379"}
	assert.Equal(t, []string{"10.0.0.2:6379", "10.0.0.3:6379"}, ArrayDistinct(in))
	assert.Empty(t, ArrayDistinct(nil))
}

func TestGetWithDefault(t *testing.T) {
	assert.Equal(t, "json", GetStringwithDefault("", "json"))
	assert.Equal(t, "yaml", GetStringwithDefault("yaml", "json"))
	assert.Equal(t, 3306, GetIntegerwithDefault(0, 3306))
	assert.Equal(t, 1, GetIntegerwithDefault(1, 3306))
}
