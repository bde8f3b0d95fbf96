package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mfps/internal/core/domain/model/assembly"
)

func Test_LineRouter(t *testing.T) {
	t.Run("should pick the first line when all are idle", func(t *testing.T) {
		router := NewLineRouter()

		assert.Equal(t, assembly.LineA, router.Route())
	})

	t.Run("should spread consecutive orders across lines", func(t *testing.T) {
		router := NewLineRouter()

		assert.Equal(t, assembly.LineA, router.Route())
		assert.Equal(t, assembly.LineB, router.Route())
		assert.Equal(t, assembly.LineC, router.Route())
		assert.Equal(t, assembly.LineA, router.Route())
	})

	t.Run("should prefer the least loaded line", func(t *testing.T) {
		router := NewLineRouter()
		router.Route() // A
		router.Route() // B
		router.Route() // C
		router.Done(assembly.LineB)

		assert.Equal(t, assembly.LineB, router.Route())
	})

	t.Run("should break ties by declaration order", func(t *testing.T) {
		router := NewLineRouter()
		router.Route() // A
		router.Done(assembly.LineA)

		assert.Equal(t, assembly.LineA, router.Route())
	})

	t.Run("should never drop a count below zero", func(t *testing.T) {
		router := NewLineRouter()
		router.Done(assembly.LineC)

		snapshot := router.PendingPerLine()
		assert.Equal(t, 0, snapshot[assembly.LineC])
		assert.Equal(t, assembly.LineA, router.Route())
	})

	t.Run("should expose pending counts per line", func(t *testing.T) {
		router := NewLineRouter()
		router.Route()
		router.Route()

		snapshot := router.PendingPerLine()
		assert.Equal(t, 1, snapshot[assembly.LineA])
		assert.Equal(t, 1, snapshot[assembly.LineB])
		assert.Equal(t, 0, snapshot[assembly.LineC])
	})
}
