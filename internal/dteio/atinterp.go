package dteio

import (
	"context"
	"strconv"
	"strings"

	"github.com/t31hub/t31hub/internal/fsconst"
	"go.opentelemetry.io/otel"
)

// handleCommandLine parses one AT command line and, for the Class 1
// command family, turns it into a engine.ProcessClass1Cmd call. Commands
// this interpreter does not recognize (AT&F, ATZ, basic AT+FCLASS probing)
// are acknowledged with OK so a real Class 1 fax application's init
// sequence does not stall; they carry no state this engine needs to track.
func (l *Line) handleCommandLine(raw []byte) {
	_, span := otel.Tracer("t31hub").Start(context.Background(), "Line.handleCommandLine")
	defer span.End()

	line := strings.ToUpper(strings.TrimSpace(string(raw)))
	line = strings.TrimPrefix(line, "AT")

	switch {
	case line == "":
		l.PutResponseCode(fsconst.ATResponseOK)
	case strings.HasPrefix(line, "+FCLASS=1"), line == "+FCLASS?":
		l.PutResponseCode(fsconst.ATResponseOK)
	case strings.HasPrefix(line, "+FTH="):
		l.dispatchClass1(1, 'H', line[len("+FTH="):])
	case strings.HasPrefix(line, "+FRH="):
		l.dispatchClass1(0, 'H', line[len("+FRH="):])
	case strings.HasPrefix(line, "+FTS="):
		l.dispatchClass1(1, 'S', line[len("+FTS="):])
	case strings.HasPrefix(line, "+FRS="):
		l.dispatchClass1(0, 'S', line[len("+FRS="):])
	case strings.HasPrefix(line, "+FTM="):
		l.dispatchClass1(1, 'M', line[len("+FTM="):])
	case strings.HasPrefix(line, "+FRM="):
		l.dispatchClass1(0, 'M', line[len("+FRM="):])
	default:
		l.PutResponseCode(fsconst.ATResponseOK)
	}
}

func (l *Line) dispatchClass1(direction byte, operation byte, valText string) {
	val, err := strconv.Atoi(strings.TrimSpace(valText))
	if err != nil {
		l.PutResponseCode(fsconst.ATResponseError)
		return
	}
	if err := l.engine.ProcessClass1Cmd(direction, operation, val); err != nil {
		l.log.Debug("class1 dispatch rejected", "error", err, "direction", direction, "operation", string(operation), "val", val)
		l.PutResponseCode(fsconst.ATResponseError)
	}
}
