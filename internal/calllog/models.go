// Package calllog persists one row per FAX call: which line, which
// direction, the final negotiated bit-rate, the byte count transferred,
// the terminal result code, and the sample-clock span of the call.
//
// Grounded on the teacher's internal/dmr/calltracker package: an in-flight
// map guarded by a mutex, backed by a gorm row created at call start and
// finalized at call end.
package calllog

import (
	"time"

	"gorm.io/gorm"
)

// Call is one row of call history.
type Call struct {
	gorm.Model

	Line        int    `gorm:"index"`
	Direction   string // "tx" or "rx"
	Modem       string
	BitRate     int
	ShortTrain  bool
	BytesMoved  int64
	ResultCode  string
	StartedAt   time.Time
	EndedAt     time.Time
	StartSample int64
	EndSample   int64
}
