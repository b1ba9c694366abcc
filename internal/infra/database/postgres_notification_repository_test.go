package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerNames(t *testing.T) {
	assert.Equal(t, []string{"alice", "bob"}, lowerNames([]string{"Alice", " BOB "}))
	assert.Empty(t, lowerNames(nil))
}
