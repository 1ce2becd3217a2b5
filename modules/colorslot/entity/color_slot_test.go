package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLabel(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Acme", "Acme"},
		{"#Acme", "Acme"},
		{"  Acme  ", "Acme"},
		{"  #Acme  ", "Acme"},
		{"# Acme", "Acme"},
		{"##Acme", "#Acme"}, // only one marker is stripped
		{"#", ""},
		{"   ", ""},
		{"", ""},
		{"Acme Corp", "Acme Corp"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeLabel(tc.raw), "raw=%q", tc.raw)
	}
}

func TestAssigned(t *testing.T) {
	assert.False(t, ColorSlot{Label: ""}.Assigned())
	assert.False(t, ColorSlot{Label: "   "}.Assigned())
	assert.True(t, ColorSlot{Label: "Acme"}.Assigned())
}
