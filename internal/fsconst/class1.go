package fsconst

// Class1Entry describes the (modem, bit-rate, short-train) tuple a numeric
// AT Class 1 code selects.
type Class1Entry struct {
	Modem      Modem
	BitRate    int
	ShortTrain bool
}

// Class1Table maps the numeric codes from AT+FTM/AT+FRM to the modem
// parameters process_class1_cmd installs. TX vs RX is decided by the
// caller's direction, not by this table.
var Class1Table = map[int]Class1Entry{
	24: {ModemV27terTX, 2400, false},
	48: {ModemV27terTX, 4800, false},
	72: {ModemV29TX, 7200, false},
	96: {ModemV29TX, 9600, false},
	73: {ModemV17TX, 7200, false},
	74: {ModemV17TX, 7200, true},
	97: {ModemV17TX, 9600, false},
	98: {ModemV17TX, 9600, true},
	121: {ModemV17TX, 12000, false},
	122: {ModemV17TX, 12000, true},
	145: {ModemV17TX, 14400, false},
	146: {ModemV17TX, 14400, true},
}

// ModemFor rebases a Class1Entry's TX modem constant onto the RX variant
// when the caller is receiving rather than sending.
func (e Class1Entry) ModemFor(transmit bool) Modem {
	if transmit {
		return e.Modem
	}
	switch e.Modem {
	case ModemV27terTX:
		return ModemV27terRX
	case ModemV29TX:
		return ModemV29RX
	case ModemV17TX:
		return ModemV17RX
	default:
		return e.Modem
	}
}

// v17IndicatorTable is the full 8-entry short/long training indicator
// selection table for V.17, keyed by bit rate then by short_train. The
// distilled Class 1 dispatcher table only lists the AT codes; the T.38
// indicator each resolves to is supplemented here from the original
// modem-restart switch.
var v17IndicatorTable = map[int][2]Indicator{
	7200:  {IndV17_7200LongTraining, IndV17_7200ShortTraining},
	9600:  {IndV17_9600LongTraining, IndV17_9600ShortTraining},
	12000: {IndV17_12000LongTraining, IndV17_12000ShortTraining},
	14400: {IndV17_14400LongTraining, IndV17_14400ShortTraining},
}

// V17Indicator picks the correct training indicator for a V.17 bit rate and
// training length.
func V17Indicator(bitRate int, shortTrain bool) Indicator {
	pair, ok := v17IndicatorTable[bitRate]
	if !ok {
		return IndV17_9600LongTraining
	}
	if shortTrain {
		return pair[1]
	}
	return pair[0]
}

// V27terIndicator picks the training indicator for a V.27ter bit rate.
func V27terIndicator(bitRate int) Indicator {
	if bitRate == 2400 {
		return IndV27ter2400Training
	}
	return IndV27ter4800Training
}

// V29Indicator picks the training indicator for a V.29 bit rate.
func V29Indicator(bitRate int) Indicator {
	if bitRate == 7200 {
		return IndV29_7200Training
	}
	return IndV29_9600Training
}

// DataTypeFor maps a modem/bit-rate pair to its T.38 data-field DataType.
func DataTypeFor(m Modem, bitRate int) DataType {
	switch m {
	case ModemV21TX, ModemV21RX:
		return DataTypeV21
	case ModemV27terTX, ModemV27terRX:
		if bitRate == 2400 {
			return DataTypeV27ter2400
		}
		return DataTypeV27ter4800
	case ModemV29TX, ModemV29RX:
		if bitRate == 7200 {
			return DataTypeV29_7200
		}
		return DataTypeV29_9600
	case ModemV17TX, ModemV17RX:
		switch bitRate {
		case 7200:
			return DataTypeV17_7200
		case 9600:
			return DataTypeV17_9600
		case 12000:
			return DataTypeV17_12000
		case 14400:
			return DataTypeV17_14400
		}
	}
	return DataTypeNone
}

// OctetsPerDataPacket returns the paced T.38 chunk size for a given bit
// rate; unpaced (TCP) transports instead clamp to MaxOctetsPerUnpacedChunk.
func OctetsPerDataPacket(bitRate int) int {
	switch {
	case bitRate <= 0:
		return 3
	case bitRate <= 2400:
		return 3
	case bitRate <= 4800:
		return 6
	case bitRate <= 7200:
		return 9
	case bitRate <= 9600:
		return 12
	case bitRate <= 12000:
		return 15
	default:
		return 18
	}
}
