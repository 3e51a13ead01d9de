package trip

import (
	"bikelog/lib/telemetry"
)

var tracer = telemetry.Tracer("bikelog.internal.trip")
var meter = telemetry.Meter("bikelog.internal.trip")
var outcomeCounter, _ = meter.Int64Counter("trip_outcomes")
