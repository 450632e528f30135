// AngelaMos | 2026
// database_test.go

package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitteredDuration(t *testing.T) {
	t.Run("zero lifetime stays unlimited", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), jitteredDuration(0))
	})

	t.Run("lifetimes too small to jitter pass through", func(t *testing.T) {
		for base := time.Duration(1); base < 7; base++ {
			assert.Equal(t, base, jitteredDuration(base))
		}
	})

	t.Run("jitter stays within a seventh of the base", func(t *testing.T) {
		base := time.Hour
		for range 100 {
			got := jitteredDuration(base)
			assert.GreaterOrEqual(t, got, base)
			assert.Less(t, got, base+base/7)
		}
	})
}
