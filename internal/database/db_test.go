package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsDSN(t *testing.T) {
	dsn := Options{User: "booking", Pass: "p@ss", Host: "db", Port: "3306", Name: "flights"}.DSN()
	assert.Contains(t, dsn, "booking:p@ss@tcp(db:3306)/flights?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	noPass := Options{User: "root", Host: "127.0.0.1", Port: "3307", Name: "x"}.DSN()
	assert.Contains(t, noPass, "root@tcp(127.0.0.1:3307)/x?")
}
