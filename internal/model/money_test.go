package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Price Money `json:"price"`
	}{MustMoney("4500")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":"4500.00"}`, string(b))

	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12.5","b":2000}`), &in))
	assert.Equal(t, "12.50", in.A.String())
	assert.Equal(t, "2012.50", in.A.Add(in.B).String())
}

func TestMoney_NoFloatDrift(t *testing.T) {
	sum := Money{}
	for i := 0; i < 10; i++ {
		sum = sum.Add(MustMoney("0.10"))
	}
	assert.True(t, sum.Equal(MoneyFromInt(1)))
	_, err := ParseMoney("12,50")
	assert.Error(t, err)
}

func TestTicketDetail_Classify(t *testing.T) {
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	d := TicketDetail{
		Ticket: Ticket{Status: TicketConfirmed},
		Flight: Flight{DepartureTime: now.Add(-time.Minute)},
	}
	d.Classify(now)
	assert.Equal(t, TicketCompleted, d.Ticket.Status)
}
