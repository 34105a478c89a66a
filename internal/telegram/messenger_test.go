package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/exchangebot/internal/models"
)

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{150_00, "150.00"},
		{123_45, "123.45"},
		{-99_07, "-99.07"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCents(tt.cents))
	}
}

func TestPlayerLines(t *testing.T) {
	players := []models.GamePlayer{
		{Player: models.Player{Balance: 850_00}, FirstName: "Alice"},
		{Player: models.Player{Balance: 1000_00}, Username: "bob"},
	}
	assert.Equal(t, "• Alice: 850.00\n• @bob: 1000.00", playerLines(players))
}
