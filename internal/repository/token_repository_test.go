package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-booking/internal/database/dbtest"
	"github.com/iliyamo/flight-booking/internal/model"
)

func TestTokenRepo_ConsumeOnce(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	tokens := NewTokenRepo(db)
	uid := dbtest.InsertUser(t, db, "priya@example.com", model.RoleCustomer)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, tokens.StoreRefresh(ctx, uid, "live", now.Add(time.Hour)))
	require.NoError(t, tokens.StoreRefresh(ctx, uid, "stale", now.Add(-time.Hour)))

	got, err := tokens.Consume(ctx, "live", now)
	require.NoError(t, err)
	assert.Equal(t, uid, got)

	_, err = tokens.Consume(ctx, "live", now)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
	_, err = tokens.Consume(ctx, "stale", now)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
	_, err = tokens.Consume(ctx, "unknown", now)
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	n, err := tokens.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTokenRepo_RevokeAll(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	tokens := NewTokenRepo(db)
	uid := dbtest.InsertUser(t, db, "priya@example.com", model.RoleCustomer)
	exp := time.Now().Add(time.Hour)
	for _, h := range []string{"a", "b", "c"} {
		require.NoError(t, tokens.StoreRefresh(ctx, uid, h, exp))
	}

	n, err := tokens.RevokeAllForUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	_, err = tokens.Consume(ctx, "b", time.Now())
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}
