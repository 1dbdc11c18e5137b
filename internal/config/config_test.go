package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelfServiceEmployees(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"dev", true},
		{"test", true},
		{" Local ", true},
		{"prod", false},
		{"production", false},
		{"staging", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, Config{Env: tt.env}.SelfServiceEmployees())
		})
	}
}
