package calllog

import (
	"context"

	"github.com/t31hub/t31hub/internal/engine"
	"github.com/t31hub/t31hub/internal/fsconst"
)

// isImageCarrying reports whether modem is one of the fast-modem TX/RX
// roles that actually moves FAX image data, as opposed to tone/silence/V.21
// control roles.
func isImageCarrying(modem fsconst.Modem) bool {
	switch modem {
	case fsconst.ModemV17TX, fsconst.ModemV27terTX, fsconst.ModemV29TX,
		fsconst.ModemV17RX, fsconst.ModemV27terRX, fsconst.ModemV29RX:
		return true
	default:
		return false
	}
}

func direction(modem fsconst.Modem) string {
	switch modem {
	case fsconst.ModemV17TX, fsconst.ModemV27terTX, fsconst.ModemV29TX:
		return "tx"
	default:
		return "rx"
	}
}

// TrackingSink implements engine.StatusSink by opening a Call row whenever
// a line's modem enters an image-carrying role and closing it when the
// line returns to a quiescent role, so call history captures spans the
// engine itself does not keep a record of past restart_modem.
type TrackingSink struct {
	tracker *Tracker
}

// NewTrackingSink builds a TrackingSink backed by tracker.
func NewTrackingSink(tracker *Tracker) *TrackingSink {
	return &TrackingSink{tracker: tracker}
}

// ModemStatusChanged implements engine.StatusSink.
func (s *TrackingSink) ModemStatusChanged(line int, modem fsconst.Modem) {
	ctx := context.Background()
	if isImageCarrying(modem) {
		if !s.tracker.InFlight(line) {
			s.tracker.StartCall(ctx, line, direction(modem), modem, 0, false, 0)
		}
		return
	}
	if s.tracker.InFlight(line) {
		s.tracker.EndCall(ctx, line, "complete", 0, 0)
	}
}

var _ engine.StatusSink = (*TrackingSink)(nil)
