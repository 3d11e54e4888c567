// Package config defines the nested application configuration, loaded via
// configulator and spf13/cobra flags/env the same way the teacher's
// internal/cmd wires cfg.LogLevel, cfg.Metrics.OTLPEndpoint and friends.
package config

import "time"

// Config is the top-level application configuration.
type Config struct {
	LogLevel LogLevel `yaml:"log_level" name:"log-level" description:"Minimum level of log messages to output" default:"info"`

	Engine  Engine  `yaml:"engine" name:"engine" description:"T.31 engine tuning"`
	T38     T38     `yaml:"t38" name:"t38" description:"T.38 UDP gateway transport"`
	DTE     DTE     `yaml:"dte" name:"dte" description:"Serial DTE transport"`
	Redis   Redis   `yaml:"redis" name:"redis" description:"Optional Redis-backed KV store"`
	CallLog CallLog `yaml:"call_log" name:"call-log" description:"Call history persistence"`
	Metrics Metrics `yaml:"metrics" name:"metrics" description:"Prometheus metrics and tracing"`
	PProf   PProf   `yaml:"pprof" name:"pprof" description:"pprof profiling server"`
	HTTP    HTTP    `yaml:"http" name:"http" description:"Admin HTTP API"`
}

// Engine controls tuning knobs of the T.31 core itself.
type Engine struct {
	Lines               int           `yaml:"lines" name:"lines" description:"Number of concurrent engine instances (one per DTE line)" default:"1"`
	AdaptiveReceive     bool          `yaml:"adaptive_receive" name:"adaptive-receive" description:"Fall back to V.21 +FRH:3/CONNECT instead of +FCERROR when a fast modem fails to train" default:"true"`
	DTEInactivityTimeout time.Duration `yaml:"dte_inactivity_timeout" name:"dte-inactivity-timeout" description:"Deadline for DTE activity during HDLC/stuffed TX" default:"5s"`
	DefaultDTETimeout   time.Duration `yaml:"default_dte_timeout" name:"default-dte-timeout" description:"Default inactivity timeout applied at init" default:"5s"`
}

// T38 configures the paced/unpaced UDP T.38 gateway transport. Since call
// setup/SIP signaling is out of scope, each line's far-end gateway address
// is configured directly rather than learned from a registration handshake.
type T38 struct {
	Enabled       bool     `yaml:"enabled" name:"enabled" description:"Enable the T.38 UDP gateway path" default:"true"`
	Bind          string   `yaml:"bind" name:"bind" description:"Address to bind the T.38 UDP socket" default:"0.0.0.0"`
	Port          int      `yaml:"port" name:"port" description:"UDP port for T.38 IFP packets" default:"10300"`
	WithoutPacing bool     `yaml:"without_pacing" name:"without-pacing" description:"Use unpaced/TCP-style streaming instead of the 30ms-paced UDP schedule" default:"false"`
	Peers         []string `yaml:"peers" name:"peers" description:"Far-end host:port for each line's T.38 gateway, by line index"`
}

// DTE configures the serial/loopback transport feeding the AT interpreter.
type DTE struct {
	Device   string `yaml:"device" name:"device" description:"Serial device path for the DTE line" default:"/dev/ttyUSB0"`
	BaudRate int    `yaml:"baud_rate" name:"baud-rate" description:"Serial baud rate" default:"115200"`
}

// Redis optionally backs the KV store with Redis instead of an in-memory map.
type Redis struct {
	Enabled bool   `yaml:"enabled" name:"enabled" description:"Use Redis for the KV store" default:"false"`
	Host    string `yaml:"host" name:"host" description:"Redis host" default:"localhost"`
	Port    int    `yaml:"port" name:"port" description:"Redis port" default:"6379"`
	Password string `yaml:"password" name:"password" description:"Redis password"`
}

// CallLog configures gorm-backed call history persistence.
type CallLog struct {
	Enabled        bool   `yaml:"enabled" name:"enabled" description:"Persist call history" default:"true"`
	DatabasePath   string `yaml:"database_path" name:"database-path" description:"sqlite database file" default:"t31hub.db"`
}

// Metrics configures Prometheus metrics and OTLP tracing.
type Metrics struct {
	Enabled      bool   `yaml:"enabled" name:"enabled" description:"Serve Prometheus metrics" default:"true"`
	BindAddress  string `yaml:"bind_address" name:"bind-address" description:"Metrics server bind address" default:"127.0.0.1"`
	Port         int    `yaml:"port" name:"port" description:"Metrics server port" default:"9100"`
	OTLPEndpoint string `yaml:"otlp_endpoint" name:"otlp-endpoint" description:"OTLP/gRPC endpoint for trace export; empty disables tracing"`
}

// PProf configures the optional profiling HTTP server.
type PProf struct {
	Enabled     bool   `yaml:"enabled" name:"enabled" description:"Serve pprof profiles" default:"false"`
	BindAddress string `yaml:"bind_address" name:"bind-address" description:"pprof server bind address" default:"127.0.0.1"`
	Port        int    `yaml:"port" name:"port" description:"pprof server port" default:"6060"`
}

// HTTP configures the admin/monitoring HTTP API and websocket status feed.
type HTTP struct {
	Enabled     bool   `yaml:"enabled" name:"enabled" description:"Serve the admin HTTP API" default:"true"`
	BindAddress string `yaml:"bind_address" name:"bind-address" description:"Admin HTTP API bind address" default:"127.0.0.1"`
	Port        int    `yaml:"port" name:"port" description:"Admin HTTP API port" default:"8080"`
}
