package fsconst

// TrainingTime holds the four training-duration columns (milliseconds) for
// one T.38 indicator: plain, with TEP, with HDLC preamble flags, and with
// both. The scheduler picks a column with (useTEP, needsPreambleFlags).
type TrainingTime struct {
	WithoutTEP            int
	WithTEP               int
	WithoutTEPWithFlags   int
	WithTEPWithFlags      int
}

// Duration selects the correct column for the given TEP/preamble settings.
func (t TrainingTime) Duration(useTEP, needsPreambleFlags bool) int {
	switch {
	case useTEP && needsPreambleFlags:
		return t.WithTEPWithFlags
	case !useTEP && needsPreambleFlags:
		return t.WithoutTEPWithFlags
	case useTEP && !needsPreambleFlags:
		return t.WithTEP
	default:
		return t.WithoutTEP
	}
}

// TrainingTimes is indexed by Indicator. The V.21 preamble is nominally 1s
// +-15%; for the others the TEP columns add 215-225ms and the preamble-flag
// columns add 200ms to the plain training time. Values in
// milliseconds, straight from the modem's training-time reference table.
var TrainingTimes = map[Indicator]TrainingTime{
	IndNoSignal:               {0, 0, 0, 0},
	IndCNG:                    {0, 0, 0, 0},
	IndCED:                    {0, 0, 0, 0},
	IndV21Preamble:            {0, 0, 1000, 1000},
	IndV27ter2400Training:     {943, 1158, 1143, 1358},
	IndV27ter4800Training:     {708, 923, 908, 1123},
	IndV29_7200Training:       {234, 454, 434, 654},
	IndV29_9600Training:       {234, 454, 434, 654},
	IndV17_7200ShortTraining:  {142, 367, 342, 567},
	IndV17_7200LongTraining:   {1393, 1618, 1593, 1818},
	IndV17_9600ShortTraining:  {142, 367, 342, 567},
	IndV17_9600LongTraining:   {1393, 1618, 1593, 1818},
	IndV17_12000ShortTraining: {142, 367, 342, 567},
	IndV17_12000LongTraining:  {1393, 1618, 1593, 1818},
	IndV17_14400ShortTraining: {142, 367, 342, 567},
	IndV17_14400LongTraining:  {1393, 1618, 1593, 1818},
	IndV8ANSam:                {0, 0, 0, 0},
	IndV8Signal:               {0, 0, 0, 0},
	IndV34CNTone:              {0, 0, 0, 0},
	IndV34PrTone:              {0, 0, 0, 0},
	IndV34CCTone:              {0, 0, 0, 0},
	IndV34PrEDTData:           {0, 0, 0, 0},
	IndV34CCEDTData:           {0, 0, 0, 0},
}
