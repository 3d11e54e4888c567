package httpapi

import (
	"encoding/json"
	"log/slog"

	"github.com/t31hub/t31hub/internal/engine"
	"github.com/t31hub/t31hub/internal/fsconst"
	"github.com/t31hub/t31hub/internal/pubsub"
)

// StatusSink implements engine.StatusSink by republishing every modem-role
// transition onto pubsub.LineStatusTopic, which is how the websocket feed
// in ws.go learns about state it does not itself own.
type StatusSink struct {
	ps  pubsub.PubSub
	log *slog.Logger
}

// NewStatusSink builds a StatusSink publishing through ps. Call
// engine.Engine.SetStatusSink with the result for every line whose
// transitions should reach the admin feed.
func NewStatusSink(ps pubsub.PubSub, log *slog.Logger) *StatusSink {
	if log == nil {
		log = slog.Default()
	}
	return &StatusSink{ps: ps, log: log}
}

type lineStatusEvent struct {
	Line  int    `json:"line"`
	Modem string `json:"modem"`
}

// ModemStatusChanged implements engine.StatusSink.
func (s *StatusSink) ModemStatusChanged(line int, modem fsconst.Modem) {
	payload, err := json.Marshal(lineStatusEvent{Line: line, Modem: modem.String()})
	if err != nil {
		s.log.Debug("failed to marshal line status event", "error", err)
		return
	}
	if err := s.ps.Publish(pubsub.LineStatusTopic, payload); err != nil {
		s.log.Debug("failed to publish line status event", "error", err)
	}
}

var _ engine.StatusSink = (*StatusSink)(nil)
