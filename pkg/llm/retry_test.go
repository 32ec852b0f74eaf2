package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, time.Duration(0), CalculateBackoff(time.Second, 0))

	for attempt := 1; attempt <= 3; attempt++ {
		base := time.Second * time.Duration(1<<uint(attempt))
		got := CalculateBackoff(time.Second, attempt)
		assert.GreaterOrEqual(t, got, base-base/4)
		assert.Less(t, got, base+base/4)
	}

	assert.LessOrEqual(t, CalculateBackoff(time.Second, 50), 30*time.Second+30*time.Second/4)
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepContext(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
