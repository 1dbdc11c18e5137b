package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))

	// out-of-range cost falls back to the default
	hash, err = HashPassword("pw", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestValidateStruct(t *testing.T) {
	type inner struct {
		Code string `json:"code" validate:"required,len=3"`
	}
	type req struct {
		Email string  `json:"email" validate:"required,email"`
		Items []inner `json:"items" validate:"dive"`
	}

	assert.Nil(t, ValidateStruct(req{Email: "a@b.co", Items: []inner{{Code: "DEL"}}}))
	assert.Equal(t,
		map[string]string{"email": "email", "items[0].code": "len"},
		ValidateStruct(req{Email: "nope", Items: []inner{{Code: "DELHI"}}}))
}

func TestValidateStruct_EnumTags(t *testing.T) {
	type flight struct {
		Status string `json:"status" validate:"omitempty,flight_status"`
		Class  string `json:"seat_class" validate:"omitempty,seat_class"`
	}

	assert.Nil(t, ValidateStruct(flight{}))
	assert.Nil(t, ValidateStruct(flight{Status: "delayed", Class: "business"}))
	assert.Equal(t,
		map[string]string{"status": "flight_status", "seat_class": "seat_class"},
		ValidateStruct(flight{Status: "lost", Class: "cargo"}))
}
