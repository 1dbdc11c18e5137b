package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassengerService_CRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.passSvc.Create(ctx, env.employee, PassengerInput{
		FirstName: "Meera", LastName: "Iyer", Email: "Meera@Example.com",
	})
	require.NoError(t, err)
	assert.Nil(t, p.UserID)
	assert.Equal(t, "meera@example.com", p.Email)

	_, err = env.passSvc.Create(ctx, env.employee, PassengerInput{FirstName: "Ravi"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "last_name")
	assert.Contains(t, verr.Fields, "email")

	phone := "+91 98450 12345"
	p, err = env.passSvc.Update(ctx, env.employee, p.ID, PassengerInput{
		FirstName: "Meera", LastName: "Nair", Email: "meera@example.com", Phone: &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, "Nair", p.LastName)
	require.NotNil(t, p.Phone)
	assert.Equal(t, phone, *p.Phone)

	_, err = env.passSvc.Update(ctx, env.employee, 9999, PassengerInput{
		FirstName: "A", LastName: "B", Email: "a@b.co",
	})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.passSvc.Delete(ctx, env.employee, p.ID))
	assert.ErrorIs(t, env.passSvc.Delete(ctx, env.employee, p.ID), ErrNotFound)
}

func TestPassengerService_Search(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, n := range [][2]string{{"Meera", "Iyer"}, {"Ravi", "Menon"}, {"Anil", "Kumar"}} {
		_, err := env.passSvc.Create(ctx, env.employee, PassengerInput{FirstName: n[0], LastName: n[1], Email: "x@example.com"})
		require.NoError(t, err)
	}

	all, err := env.passSvc.List(ctx, env.employee, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Anil", all[0].FirstName)

	hits, err := env.passSvc.List(ctx, env.employee, "ME")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Meera", hits[0].FirstName)
	assert.Equal(t, "Ravi", hits[1].FirstName)
}

func TestPassengerService_EmployeeOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.passSvc.List(ctx, env.customer, "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.passSvc.Create(ctx, env.customer, PassengerInput{FirstName: "A", LastName: "B", Email: "a@b.co"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, env.passSvc.Delete(ctx, env.customer, 1), ErrForbidden)
}

func TestPassengerService_DeleteBlockedByTicket(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	res := env.book(t, env.customer, fid, "12A")

	err := env.passSvc.Delete(context.Background(), env.employee, res.Passenger.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, countRows(t, env.db, "passengers"))
}
