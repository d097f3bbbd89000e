package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

func TestNewStepRand_SameSeedAndStepReplaysIdentically(t *testing.T) {
	a := kernel.NewStepRand(42, 100)
	b := kernel.NewStepRand(42, 100)

	for i := 0; i < 64; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestNewStepRand_DifferentStepsDiverge(t *testing.T) {
	a := kernel.NewStepRand(42, 100)
	b := kernel.NewStepRand(42, 101)

	same := true
	for i := 0; i < 8; i++ {
		if a.Float64() != b.Float64() {
			same = false
		}
	}
	assert.False(t, same)
}

func TestRand_BernoulliEdges(t *testing.T) {
	r := kernel.NewStepRand(1, 1)

	assert.False(t, r.Bernoulli(0))
	assert.False(t, r.Bernoulli(-0.5))
	assert.True(t, r.Bernoulli(1))
	assert.True(t, r.Bernoulli(1.5))
}

func TestRand_TriangularStaysInBounds(t *testing.T) {
	r := kernel.NewStepRand(7, 7)

	for i := 0; i < 1000; i++ {
		v := r.Triangular(0.5, 1.0, 1.5)
		assert.GreaterOrEqual(t, v, 0.5)
		assert.LessOrEqual(t, v, 1.5)
	}
}

func TestRand_TriangularDegenerateRange(t *testing.T) {
	r := kernel.NewStepRand(7, 7)

	assert.Equal(t, 2.0, r.Triangular(2, 2, 2))
}

func TestClock_MonthMapping(t *testing.T) {
	clock := kernel.NewClock(720)

	assert.Equal(t, int64(0), clock.Month())
	assert.True(t, clock.IsMonthTick())

	for i := 0; i < 719; i++ {
		clock.Advance()
		assert.False(t, clock.IsMonthTick())
	}
	clock.Advance()

	assert.Equal(t, int64(720), clock.Step())
	assert.Equal(t, int64(1), clock.Month())
	assert.True(t, clock.IsMonthTick())
}

func TestClock_DefaultStepsPerMonth(t *testing.T) {
	clock := kernel.NewClock(0)

	assert.Equal(t, int64(kernel.DefaultStepsPerMonth), clock.StepsPerMonth())
}
