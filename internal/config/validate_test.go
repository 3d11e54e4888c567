package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/t31hub/t31hub/internal/config"
)

func defaultConfig() config.Config {
	return config.Config{
		LogLevel: config.LogLevelInfo,
		Engine:   config.Engine{Lines: 1},
		T38:      config.T38{Enabled: true, Port: 10300},
		DTE:      config.DTE{Device: "/dev/ttyUSB0"},
		CallLog:  config.CallLog{Enabled: true, DatabasePath: "t31hub.db"},
		Metrics:  config.Metrics{Enabled: true, BindAddress: "127.0.0.1", Port: 9100},
		PProf:    config.PProf{Enabled: false},
		HTTP:     config.HTTP{Enabled: true, BindAddress: "127.0.0.1", Port: 8080},
	}
}

func TestValidateDefaultsOK(t *testing.T) {
	t.Parallel()
	assert.NoError(t, defaultConfig().Validate())
}

func TestValidateBadLogLevel(t *testing.T) {
	t.Parallel()
	c := defaultConfig()
	c.LogLevel = "verbose"
	assert.ErrorIs(t, c.Validate(), config.ErrInvalidLogLevel)
}

func TestValidateBadEngineLines(t *testing.T) {
	t.Parallel()
	c := defaultConfig()
	c.Engine.Lines = 0
	assert.ErrorIs(t, c.Validate(), config.ErrInvalidEngineLines)
}

func TestValidateBadT38Port(t *testing.T) {
	t.Parallel()
	c := defaultConfig()
	c.T38.Port = 0
	assert.ErrorIs(t, c.Validate(), config.ErrInvalidT38Port)
}

func TestValidateT38DisabledSkipsPortCheck(t *testing.T) {
	t.Parallel()
	c := defaultConfig()
	c.T38.Enabled = false
	c.T38.Port = 0
	assert.NoError(t, c.Validate())
}

func TestValidateBadDTEDevice(t *testing.T) {
	t.Parallel()
	c := defaultConfig()
	c.DTE.Device = ""
	assert.ErrorIs(t, c.Validate(), config.ErrInvalidDTEDevice)
}

func TestValidateRedisDisabledSkipsChecks(t *testing.T) {
	t.Parallel()
	c := defaultConfig()
	c.Redis = config.Redis{Enabled: false}
	assert.NoError(t, c.Validate())
}

func TestValidateRedisEnabledRequiresHost(t *testing.T) {
	t.Parallel()
	c := defaultConfig()
	c.Redis = config.Redis{Enabled: true, Port: 6379}
	assert.ErrorIs(t, c.Validate(), config.ErrInvalidRedisHost)
}
