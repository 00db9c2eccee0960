package logging

import (
	"bytes"
	"testing"

	"github.com/go-kit/kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(&buf, false), "sim")

	require.NoError(t, level.Debug(logger).Log("msg", "hidden"))
	require.NoError(t, level.Info(logger).Log("msg", "shown"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "component=sim")
	assert.Contains(t, out, "level=info")
}

func TestVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)
	require.NoError(t, level.Debug(logger).Log("msg", "step rejected"))
	assert.Contains(t, buf.String(), "level=debug")
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop().Log("msg", "x"))
}
