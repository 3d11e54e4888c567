package dteio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/t31hub/t31hub/internal/config"
)

func TestOpenSerialPortReturnsErrorOnMissingDevice(t *testing.T) {
	cfg := config.DTE{Device: "/dev/does-not-exist-t31hub-test", BaudRate: 115200}
	_, err := OpenSerialPort(cfg)
	assert.Error(t, err, "expected an error opening a nonexistent serial device")
}
