package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
	}
}

func TestNormalizeAppliesGameDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, int64(10000_00), cfg.Game.StartBalance)
	assert.Equal(t, 3, cfg.Game.SessionLimit)
	assert.Equal(t, 5*time.Second, cfg.Game.ConfirmWindow())
	assert.Equal(t, 60*time.Second, cfg.Game.SessionDuration())
	assert.Equal(t, int64(10_00), cfg.Game.MinPrice)
	assert.Equal(t, int64(1000_00), cfg.Game.MaxPrice)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	cfg := validConfig()
	cfg.Game = GameConfig{
		StartBalance:      500_00,
		SessionLimit:      5,
		ConfirmWindowSecs: 30,
		SessionTimerSecs:  120,
		MinPrice:          1_00,
		MaxPrice:          50_00,
	}
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, int64(500_00), cfg.Game.StartBalance)
	assert.Equal(t, 5, cfg.Game.SessionLimit)
	assert.Equal(t, 30*time.Second, cfg.Game.ConfirmWindow())
	assert.Equal(t, 2*time.Minute, cfg.Game.SessionDuration())
}

func TestNormalizeRejectsMissingToken(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, Normalize(cfg))
}

func TestNormalizeRejectsInvertedPriceRange(t *testing.T) {
	cfg := validConfig()
	cfg.Game.MinPrice = 100_00
	cfg.Game.MaxPrice = 50_00
	assert.Error(t, Normalize(cfg))
}

func TestNormalizeRequiresAdminToken(t *testing.T) {
	cfg := validConfig()
	cfg.Admin.Listen = ":8080"
	assert.Error(t, Normalize(cfg))

	cfg.Admin.Token = "secret"
	assert.NoError(t, Normalize(cfg))
}
