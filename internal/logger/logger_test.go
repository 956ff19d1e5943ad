package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, 4)

	l.Info("hidden")
	l.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "key=value")
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, 0).Component("gateway")

	l.Info("started")
	assert.Contains(t, buf.String(), "component=gateway")
}
