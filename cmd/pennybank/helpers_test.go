package main

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennybank/pennybank/internal/testutil"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseID("zero")
	assert.Error(t, err)
	_, err = parseID("-3")
	assert.Error(t, err)
	_, err = parseID("0")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	amount, err := parseAmount("12.50")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("12.50")))

	// A leading dollar sign is tolerated.
	amount, err = parseAmount("$3")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(3)))

	_, err = parseAmount("-5")
	assert.Error(t, err)
	_, err = parseAmount("0")
	assert.Error(t, err)
	_, err = parseAmount("twelve")
	assert.Error(t, err)
}

func TestParseDateFlag(t *testing.T) {
	when, err := parseDateFlag("2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, time.June, when.Month())

	today, err := parseDateFlag("")
	require.NoError(t, err)
	assert.False(t, today.IsZero())

	_, err = parseDateFlag("June 15")
	assert.Error(t, err)
}

func TestResolveAccount(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	byName, err := resolveAccount(ctx, db.Storage, "Checking")
	require.NoError(t, err)
	assert.Equal(t, db.Checking.ID, byName.ID)

	byID, err := resolveAccount(ctx, db.Storage, "1")
	require.NoError(t, err)
	assert.Equal(t, db.Checking.Name, byID.Name)

	_, err = resolveAccount(ctx, db.Storage, "Nonexistent")
	assert.Error(t, err)
}

func TestResolveCategory(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	byName, err := resolveCategory(ctx, db.Storage, "household")
	require.NoError(t, err)
	assert.Equal(t, db.Expense.ID, byName.ID)

	byID, err := resolveCategory(ctx, db.Storage, "1")
	require.NoError(t, err)
	assert.NotEmpty(t, byID.Name)

	_, err = resolveCategory(ctx, db.Storage, "Nonexistent")
	assert.Error(t, err)
}
