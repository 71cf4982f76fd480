// Package storagetest holds the behavior every storage.AnalysisStore must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risklo/internal/domain"
	"risklo/internal/storage"
)

// Record builds a valid record for store tests.
func Record(id, runID, sheet string, createdAt int64) *domain.AnalysisRecord {
	return &domain.AnalysisRecord{
		ID:          id,
		RunID:       runID,
		SheetName:   sheet,
		AccountName: "PA-" + id,
		Config: domain.PositionConfig{
			SheetName:    sheet,
			AccountSize:  50000,
			Contracts:    2,
			ContractType: domain.ContractMNQ,
			MaxDrawdown:  domain.Some(2500.0),
		},
		Metrics: domain.RiskMetrics{
			HighestLoss:            300,
			TotalDays:              20,
			RiskScore:              40,
			RiskLevel:              domain.RiskModerate,
			BlowAccountStatus:      domain.BlowoutGO,
			BlowAccountProbability: domain.Some(0.0),
			ContractType:           domain.ContractMNQ,
		},
		CreatedAt: createdAt,
	}
}

// RunAnalysisStore exercises store against the storage.AnalysisStore contract.
// newStore must return an empty store for every call.
func RunAnalysisStore(t *testing.T, newStore func(t *testing.T) storage.AnalysisStore) {
	t.Run("round trip", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Insert(ctx, Record("a1", "", "Alpha", 1000)))

		got, err := store.GetByID(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, "Alpha", got.SheetName)
		assert.Equal(t, "PA-a1", got.AccountName)
		assert.Equal(t, domain.ContractMNQ, got.Config.ContractType)
		assert.Equal(t, domain.Some(2500.0), got.Config.MaxDrawdown)
		assert.False(t, got.Config.SafetyNet.IsSome())
		assert.Equal(t, domain.Some(0.0), got.Metrics.BlowAccountProbability)
		assert.False(t, got.Metrics.DrawdownBreach.IsSome())
		assert.Equal(t, int64(1000), got.CreatedAt)
	})

	t.Run("errors", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Insert(ctx, Record("a1", "", "Alpha", 1000)))
		assert.ErrorIs(t, store.Insert(ctx, Record("a1", "", "Alpha", 2000)), storage.ErrDuplicateKey)
		assert.ErrorIs(t, store.Insert(ctx, Record("", "", "Alpha", 1)), storage.ErrInvalidInput)
		assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)

		_, err := store.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("bulk is atomic", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Insert(ctx, Record("b", "", "Alpha", 1)))

		err := store.InsertBulk(ctx, []*domain.AnalysisRecord{
			Record("a", "run1", "Alpha", 2),
			Record("b", "run1", "Alpha", 3),
		})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)

		_, err = store.GetByID(ctx, "a")
		assert.ErrorIs(t, err, storage.ErrNotFound, "failed batch must not leave partial rows")

		assert.NoError(t, store.InsertBulk(ctx, nil))
	})

	t.Run("queries", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.InsertBulk(ctx, []*domain.AnalysisRecord{
			Record("r2", "run1", "Alpha", 20),
			Record("r1", "run1", "Beta", 10),
			Record("s1", "", "Alpha", 30),
		}))

		bySheet, err := store.GetBySheet(ctx, "Alpha", 0)
		require.NoError(t, err)
		require.Len(t, bySheet, 2)
		assert.Equal(t, "s1", bySheet[0].ID)
		assert.Equal(t, "r2", bySheet[1].ID)

		limited, err := store.GetBySheet(ctx, "Alpha", 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		none, err := store.GetBySheet(ctx, "Gamma", 10)
		require.NoError(t, err)
		assert.Empty(t, none)

		byRun, err := store.GetByRunID(ctx, "run1")
		require.NoError(t, err)
		require.Len(t, byRun, 2)
		assert.Equal(t, "r1", byRun[0].ID)
		assert.Equal(t, "r2", byRun[1].ID)

		recent, err := store.ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "s1", recent[0].ID)
		assert.Equal(t, "r2", recent[1].ID)
	})
}
