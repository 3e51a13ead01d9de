package incentive

import (
	"bikelog/lib/restyutil"
	"bikelog/lib/telemetry"
)

var tracer = telemetry.Tracer("bikelog.lib.platforms.incentive")
var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
