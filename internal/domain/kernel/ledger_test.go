package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

func singleSectorLookup(name string, stocks *kernel.StockSet) func(string) *kernel.StockSet {
	return func(sector string) *kernel.StockSet {
		if sector == name {
			return stocks
		}
		return nil
	}
}

func TestLedger_ProduceAndConsumeApplyAtCommit(t *testing.T) {
	// Arrange
	errs := kernel.NewErrorLog()
	ledger := kernel.NewLedger(errs)
	stocks := kernel.NewStockSet(map[string]float64{"H2O_kg": 10})

	ledger.Produce("manufacturing", "H2O_kg", 4)
	ledger.Consume("manufacturing", "H2O_kg", 3)

	// Assert - nothing moves until commit
	assert.Equal(t, 10.0, stocks.Level("H2O_kg"))
	assert.Len(t, ledger.Pending(), 2)

	// Act
	err := ledger.Commit(singleSectorLookup("manufacturing", stocks), kernel.CommitStrict)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 11.0, stocks.Level("H2O_kg"))
	assert.Empty(t, ledger.Pending())
	assert.Empty(t, errs.Drain())
}

func TestLedger_ProductionDoesNotFundSameStepConsumption(t *testing.T) {
	// A step that produces 5 and consumes 6 against a stock of 2 is an
	// overdraft: debits validate against pre-commit levels only.
	errs := kernel.NewErrorLog()
	ledger := kernel.NewLedger(errs)
	stocks := kernel.NewStockSet(map[string]float64{"O2_kg": 2})

	ledger.Produce("manufacturing", "O2_kg", 5)
	ledger.Consume("manufacturing", "O2_kg", 6)

	// Act
	err := ledger.Commit(singleSectorLookup("manufacturing", stocks), kernel.CommitStrict)

	// Assert - strict mode rejects the whole batch, stock unchanged
	var overdraft *kernel.CommitOverdraftError
	require.ErrorAs(t, err, &overdraft)
	require.ErrorIs(t, err, kernel.ErrCommitOverdraft)
	assert.Equal(t, "manufacturing", overdraft.Sector)
	assert.Equal(t, "O2_kg", overdraft.Resource)
	assert.Equal(t, 2.0, stocks.Level("O2_kg"))
}

func TestLedger_LenientDropsOnlyOffendingGroup(t *testing.T) {
	// Same batch in lenient mode: the production group commits, the
	// overdrafting consumption group is dropped. Final level 2+5 = 7.
	errs := kernel.NewErrorLog()
	ledger := kernel.NewLedger(errs)
	stocks := kernel.NewStockSet(map[string]float64{"O2_kg": 2})

	ledger.Produce("manufacturing", "O2_kg", 5)
	ledger.Consume("manufacturing", "O2_kg", 6)

	// Act
	err := ledger.Commit(singleSectorLookup("manufacturing", stocks), kernel.CommitLenient)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 7.0, stocks.Level("O2_kg"))

	faults := errs.Drain()
	require.Len(t, faults, 1)
	var overdraft *kernel.CommitOverdraftError
	assert.ErrorAs(t, faults[0], &overdraft)
}

func TestLedger_FlowsGroupBySourceDestResource(t *testing.T) {
	// Two transfers on the same edge validate as one group; a stock of
	// 5 cannot cover 3+3 even though each flow alone fits.
	errs := kernel.NewErrorLog()
	ledger := kernel.NewLedger(errs)
	manufacturing := kernel.NewStockSet(map[string]float64{"Metal_kg": 5})
	construction := kernel.NewStockSet(nil)
	lookup := func(sector string) *kernel.StockSet {
		switch sector {
		case "manufacturing":
			return manufacturing
		case "construction":
			return construction
		}
		return nil
	}

	ledger.Transfer("manufacturing", "construction", "Metal_kg", 3)
	ledger.Transfer("manufacturing", "construction", "Metal_kg", 3)

	// Act
	err := ledger.Commit(lookup, kernel.CommitStrict)

	// Assert
	var overdraft *kernel.CommitOverdraftError
	require.ErrorAs(t, err, &overdraft)
	assert.Equal(t, 6.0, overdraft.Debit)
	assert.Equal(t, 5.0, manufacturing.Level("Metal_kg"))
	assert.Equal(t, 0.0, construction.Level("Metal_kg"))
}

func TestLedger_TransferMovesBetweenSectors(t *testing.T) {
	errs := kernel.NewErrorLog()
	ledger := kernel.NewLedger(errs)
	manufacturing := kernel.NewStockSet(map[string]float64{"shells": 4})
	construction := kernel.NewStockSet(map[string]float64{"shells": 1})
	lookup := func(sector string) *kernel.StockSet {
		switch sector {
		case "manufacturing":
			return manufacturing
		case "construction":
			return construction
		}
		return nil
	}

	ledger.Transfer("manufacturing", "construction", "shells", 3)

	require.NoError(t, ledger.Commit(lookup, kernel.CommitStrict))
	assert.Equal(t, 1.0, manufacturing.Level("shells"))
	assert.Equal(t, 4.0, construction.Level("shells"))
}

func TestLedger_NonPositiveFlowsAreIgnored(t *testing.T) {
	ledger := kernel.NewLedger(kernel.NewErrorLog())

	ledger.Produce("manufacturing", "H2O_kg", 0)
	ledger.Consume("manufacturing", "H2O_kg", -1)

	assert.Empty(t, ledger.Pending())
}

func TestStockSet_NegativeInitialLevelsClampToZero(t *testing.T) {
	stocks := kernel.NewStockSet(map[string]float64{"H2O_kg": -5, "O2_kg": 3})

	assert.Equal(t, 0.0, stocks.Level("H2O_kg"))
	assert.Equal(t, 3.0, stocks.Level("O2_kg"))
	assert.True(t, stocks.Has("O2_kg", 3))
	assert.False(t, stocks.Has("O2_kg", 3.1))
}
