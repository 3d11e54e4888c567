package dteio

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"

	"github.com/t31hub/t31hub/internal/config"
)

// OpenSerialPort opens the real serial device named in cfg, grounded on the
// rf95modem-go pattern of a tarm/serial.Config paired with a one-second read
// timeout. The read loop itself does not watch a context; Line.Run ends it
// on cancellation by closing the port.
func OpenSerialPort(cfg config.DTE) (io.ReadWriteCloser, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.BaudRate,
		ReadTimeout: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open dte serial port %s: %w", cfg.Device, err)
	}
	return port, nil
}
