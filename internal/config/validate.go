package config

import "errors"

var (
	// ErrInvalidLogLevel indicates that the provided log level is not valid.
	ErrInvalidLogLevel = errors.New("invalid log level provided")
	// ErrInvalidEngineLines indicates that the number of engine lines is not positive.
	ErrInvalidEngineLines = errors.New("engine.lines must be positive")
	// ErrInvalidT38Port indicates that the T.38 UDP port is out of range.
	ErrInvalidT38Port = errors.New("invalid t38 port provided")
	// ErrInvalidDTEDevice indicates the DTE device path is empty.
	ErrInvalidDTEDevice = errors.New("dte.device must not be empty")
	// ErrInvalidRedisHost indicates that the provided Redis host is not valid.
	ErrInvalidRedisHost = errors.New("invalid Redis host provided")
	// ErrInvalidRedisPort indicates that the provided Redis port is not valid.
	ErrInvalidRedisPort = errors.New("invalid Redis port provided")
	// ErrInvalidCallLogPath indicates the call log database path is empty.
	ErrInvalidCallLogPath = errors.New("call_log.database_path must not be empty when call_log is enabled")
	// ErrInvalidMetricsBindAddress indicates that the provided metrics server bind address is not valid.
	ErrInvalidMetricsBindAddress = errors.New("invalid metrics server bind address provided")
	// ErrInvalidMetricsPort indicates that the provided metrics server port is not valid.
	ErrInvalidMetricsPort = errors.New("invalid metrics server port provided")
	// ErrInvalidPProfBindAddress indicates that the provided pprof server bind address is not valid.
	ErrInvalidPProfBindAddress = errors.New("invalid pprof server bind address provided")
	// ErrInvalidPProfPort indicates that the provided pprof server port is not valid.
	ErrInvalidPProfPort = errors.New("invalid pprof server port provided")
	// ErrInvalidHTTPBindAddress indicates that the provided admin HTTP bind address is not valid.
	ErrInvalidHTTPBindAddress = errors.New("invalid http bind address provided")
	// ErrInvalidHTTPPort indicates that the provided admin HTTP port is not valid.
	ErrInvalidHTTPPort = errors.New("invalid http port provided")
	// ErrMissingT38Peers indicates fewer peer addresses were configured than engine lines.
	ErrMissingT38Peers = errors.New("t38.peers must have one entry per engine.lines")
)

// Validate validates the top-level configuration by chaining every
// section's own Validate.
func (c Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ErrInvalidLogLevel
	}

	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.T38.Validate(); err != nil {
		return err
	}
	if c.T38.Enabled && len(c.T38.Peers) < c.Engine.Lines {
		return ErrMissingT38Peers
	}
	if err := c.DTE.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.CallLog.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate validates the Engine configuration.
func (e Engine) Validate() error {
	if e.Lines <= 0 {
		return ErrInvalidEngineLines
	}
	return nil
}

// Validate validates the T38 configuration.
func (t T38) Validate() error {
	if !t.Enabled {
		return nil
	}
	if t.Port <= 0 || t.Port > 65535 {
		return ErrInvalidT38Port
	}
	return nil
}

// Validate validates the DTE configuration.
func (d DTE) Validate() error {
	if d.Device == "" {
		return ErrInvalidDTEDevice
	}
	return nil
}

// Validate validates the Redis configuration.
func (r Redis) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Host == "" {
		return ErrInvalidRedisHost
	}
	if r.Port <= 0 || r.Port > 65535 {
		return ErrInvalidRedisPort
	}
	return nil
}

// Validate validates the CallLog configuration.
func (c CallLog) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.DatabasePath == "" {
		return ErrInvalidCallLogPath
	}
	return nil
}

// Validate validates the Metrics configuration.
func (m Metrics) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.BindAddress == "" {
		return ErrInvalidMetricsBindAddress
	}
	if m.Port <= 0 || m.Port > 65535 {
		return ErrInvalidMetricsPort
	}
	return nil
}

// Validate validates the PProf configuration.
func (p PProf) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.BindAddress == "" {
		return ErrInvalidPProfBindAddress
	}
	if p.Port <= 0 || p.Port > 65535 {
		return ErrInvalidPProfPort
	}
	return nil
}

// Validate validates the HTTP configuration.
func (h HTTP) Validate() error {
	if !h.Enabled {
		return nil
	}
	if h.BindAddress == "" {
		return ErrInvalidHTTPBindAddress
	}
	if h.Port <= 0 || h.Port > 65535 {
		return ErrInvalidHTTPPort
	}
	return nil
}
