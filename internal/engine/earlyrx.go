package engine

import "github.com/t31hub/t31hub/internal/fsconst"

// cngRx wraps the V.21 FSK+HDLC receiver with the CNG/NoCNG answer-tone
// timeout: if no signal has been recognised by the time the caller's
// S-register answer timeout elapses, it reports NO CARRIER and drops the
// line idle instead of waiting forever, the shape of cng_rx/v8_cng_rx.
type cngRx struct {
	e   *Engine
	v21 SampleSink
}

// cngAnswerTimeoutSamples is the S7-register answer timeout (60s at 8kHz);
// it is fixed and cannot be overridden per call.
const cngAnswerTimeoutSamples = 60 * fsconst.SampleRate

func (c *cngRx) FeedSamples(amp []int16) {
	e := c.e
	if !e.rxSignalPresent && e.callSamples > cngAnswerTimeoutSamples {
		e.atResponder.PutResponseCode(fsconst.ATResponseNoCarrier)
		e.atResponder.SetRxMode(fsconst.DTEModeOffHookCommand)
		_ = e.modemCtl.ModemControl(fsconst.ModemControlHangup, 0)
		return
	}
	if c.v21 != nil {
		c.v21.FeedSamples(amp)
	}
}

// silenceDetector implements the SILENCE modem role's receiver: it counts
// consecutive samples at or below the power threshold and reports OK once
// silence_awaited worth of them have elapsed, the shape of silence_rx. A
// sample exactly at the threshold counts as silence.
type silenceDetector struct {
	e *Engine
}

func (s silenceDetector) FeedSamples(amp []int16) {
	e := s.e
	for _, sample := range amp {
		power := e.powerMeter.Update(sample)
		if power <= e.silenceThresholdPower {
			e.silenceHeard++
		} else {
			e.silenceHeard = 0
		}
	}
	if e.silenceAwaited > 0 && e.silenceHeard >= e.silenceAwaited {
		e.silenceAwaited = 0
		e.atResponder.PutResponseCode(fsconst.ATResponseOK)
		e.atResponder.SetRxMode(fsconst.DTEModeOffHookCommand)
	}
}

// earlyRx feeds incoming samples to both the target fast-modem demodulator
// and the V.21 receiver until one of them commits, matching the "early
// receive" behaviour of a Class 1 modem: a fax answer tone can turn out to
// be either a fast-modem preamble or a V.21 flag sequence, and the decoder
// must listen for both until carrier detection disambiguates which.
type earlyRx struct {
	engine   *Engine
	fast     SampleSink
	v21      SampleSink
	target   fsconst.Modem
	resolved bool
}

func (r *earlyRx) FeedSamples(amp []int16) {
	if r.fast != nil {
		r.fast.FeedSamples(amp)
	}
	if !r.resolved && r.v21 != nil {
		r.v21.FeedSamples(amp)
	}
}

// resolveFast is called by the engine's BitSink callback once the
// fast-modem path reports successful training, so the V.21 path stops
// competing for the same bits. When the V.21 path wins instead, the
// FrameSink callbacks clear fast so only V.21 is fed.
func (r *earlyRx) resolveFast() {
	r.resolved = true
}
