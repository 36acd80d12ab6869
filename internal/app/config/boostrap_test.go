package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBootstrapShutdownWithoutDrivers(t *testing.T) {
	stopped := false
	b := &Bootstrap{WorkerStop: func() { stopped = true }}

	assert.NoError(t, b.Shutdown(context.Background()))
	assert.True(t, stopped)
}
