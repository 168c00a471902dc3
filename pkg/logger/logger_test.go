package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	t.Run("Rejects an unknown level", func(t *testing.T) {
		err := Init(Config{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("Builds a production logger", func(t *testing.T) {
		err := Init(Config{Level: "warn", Encoding: "json"})
		assert.NoError(t, err)
		assert.NotNil(t, Get())
	})
}

func TestSet(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))

	Get().Infow("hello", "component", "test")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "hello", entries[0].Message)
		assert.Equal(t, "test", entries[0].ContextMap()["component"])
	}
}
