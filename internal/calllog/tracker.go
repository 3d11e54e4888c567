package calllog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/t31hub/t31hub/internal/fsconst"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

// Tracker records one Call row per engine restart_modem cycle that actually
// moves a modem into an image-carrying role, and finalizes it when the
// engine returns to a quiescent/silence role.
//
// Grounded on CallTracker's in-flight-map-plus-DB-row shape; this core has
// no external call-signaling concept, so a "call" here means one
// TX/RX span of a single fast-modem (V.17/V.27ter/V.29) role.
type Tracker struct {
	db                 *gorm.DB
	inFlightMutex      sync.RWMutex
	inFlight           map[int]*Call
}

// NewTracker creates a new Tracker backed by db.
func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{
		db:       db,
		inFlight: make(map[int]*Call),
	}
}

// StartCall begins tracking a call on the given line.
func (t *Tracker) StartCall(ctx context.Context, line int, direction string, modem fsconst.Modem, bitRate int, shortTrain bool, startSample int64) {
	_, span := otel.Tracer("t31hub").Start(ctx, "Tracker.StartCall")
	defer span.End()

	call := &Call{
		Line:        line,
		Direction:   direction,
		Modem:       modem.String(),
		BitRate:     bitRate,
		ShortTrain:  shortTrain,
		StartedAt:   time.Now(),
		StartSample: startSample,
	}
	if err := t.db.Create(call).Error; err != nil {
		slog.Error("failed to create call log row", "error", err, "line", line)
		return
	}

	t.inFlightMutex.Lock()
	t.inFlight[line] = call
	t.inFlightMutex.Unlock()
}

// EndCall finalizes the in-flight call for a line, if any.
func (t *Tracker) EndCall(ctx context.Context, line int, resultCode string, bytesMoved int64, endSample int64) {
	_, span := otel.Tracer("t31hub").Start(ctx, "Tracker.EndCall")
	defer span.End()

	t.inFlightMutex.Lock()
	call, ok := t.inFlight[line]
	if ok {
		delete(t.inFlight, line)
	}
	t.inFlightMutex.Unlock()

	if !ok {
		return
	}

	call.ResultCode = resultCode
	call.BytesMoved = bytesMoved
	call.EndedAt = time.Now()
	call.EndSample = endSample

	if err := t.db.Save(call).Error; err != nil {
		slog.Error("failed to finalize call log row", "error", err, "line", line)
	}
}

// InFlight reports whether a line currently has a call being tracked.
func (t *Tracker) InFlight(line int) bool {
	t.inFlightMutex.RLock()
	defer t.inFlightMutex.RUnlock()
	_, ok := t.inFlight[line]
	return ok
}

// SweepStale closes out any in-flight row whose call started more than
// maxAge ago without an EndCall ever arriving, e.g. after a process crash
// mid-call. Intended to run from a scheduled maintenance job rather than
// from the engine's own goroutine.
func (t *Tracker) SweepStale(ctx context.Context, maxAge time.Duration) int {
	_, span := otel.Tracer("t31hub").Start(ctx, "Tracker.SweepStale")
	defer span.End()

	cutoff := time.Now().Add(-maxAge)

	t.inFlightMutex.Lock()
	var stale []*Call
	for line, call := range t.inFlight {
		if call.StartedAt.Before(cutoff) {
			stale = append(stale, call)
			delete(t.inFlight, line)
		}
	}
	t.inFlightMutex.Unlock()

	for _, call := range stale {
		call.ResultCode = "timeout"
		call.EndedAt = time.Now()
		if err := t.db.Save(call).Error; err != nil {
			slog.Error("failed to finalize stale call log row", "error", err, "line", call.Line)
		}
	}
	return len(stale)
}
