package sector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proximalabs/proxima-go/internal/domain/sector"
)

func TestDRRScheduler_LongRunShareMatchesPriorities(t *testing.T) {
	// Priorities 3:1:1 over 10000 turns must converge to a 60/20/20
	// split of selections.
	tasks := []string{"a", "b", "c"}
	s := sector.NewDRRScheduler(tasks, 1)

	priorities := map[string]float64{"a": 3, "b": 1, "c": 1}
	available := map[string]bool{"a": true, "b": true, "c": true}

	counts := map[string]int{}
	for i := 0; i < 10000; i++ {
		task, ok := s.Select(priorities, available)
		require.True(t, ok)
		counts[task]++
		s.Spend(task, true)
	}

	assert.InDelta(t, 6000, counts["a"], 5)
	assert.InDelta(t, 2000, counts["b"], 5)
	assert.InDelta(t, 2000, counts["c"], 5)
}

func TestDRRScheduler_UnavailableTaskBankResets(t *testing.T) {
	s := sector.NewDRRScheduler([]string{"a", "b"}, 1)

	priorities := map[string]float64{"a": 1, "b": 1}
	available := map[string]bool{"a": true, "b": true}

	// Let b accumulate a bank, then make it unavailable.
	_, ok := s.Select(priorities, available)
	require.True(t, ok)

	available["b"] = false
	task, ok := s.Select(priorities, available)
	require.True(t, ok)
	assert.Equal(t, "a", task)
	assert.Zero(t, s.Bank("b"))
}

func TestDRRScheduler_NoEligibleTasks(t *testing.T) {
	s := sector.NewDRRScheduler([]string{"a", "b"}, 1)

	_, ok := s.Select(map[string]float64{"a": 0, "b": 0}, map[string]bool{"a": true, "b": true})
	assert.False(t, ok)

	_, ok = s.Select(map[string]float64{"a": 1}, map[string]bool{})
	assert.False(t, ok)
}

func TestDRRScheduler_UnproductiveTurnCostsNothing(t *testing.T) {
	s := sector.NewDRRScheduler([]string{"a"}, 1)

	priorities := map[string]float64{"a": 1}
	available := map[string]bool{"a": true}

	task, ok := s.Select(priorities, available)
	require.True(t, ok)
	bankBefore := s.Bank(task)

	s.Spend(task, false)
	assert.Equal(t, bankBefore, s.Bank(task))

	s.Spend(task, true)
	assert.Equal(t, bankBefore-1, s.Bank(task))
}

func TestDRRScheduler_EqualPrioritiesRotate(t *testing.T) {
	// Equal priorities keep every bank equal after top-up, so the
	// rotating pointer alone decides: strict round robin.
	s := sector.NewDRRScheduler([]string{"a", "b", "c"}, 1)

	priorities := map[string]float64{"a": 1, "b": 1, "c": 1}
	available := map[string]bool{"a": true, "b": true, "c": true}

	var order []string
	for i := 0; i < 6; i++ {
		task, ok := s.Select(priorities, available)
		require.True(t, ok)
		order = append(order, task)
		s.Spend(task, true)
	}

	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, order)
}
