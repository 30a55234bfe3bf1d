package sim

import "log"

// A TimeConverter converts between a period and core simulation ticks. The
// factor is the number of core ticks that one period covers. Converters are
// shared: a Clock references the converter that defines its period but does
// not own it.
type TimeConverter struct {
	factor SimTime
}

// NewTimeConverter creates a converter for a period of the given number of
// core ticks.
func NewTimeConverter(factor SimTime) *TimeConverter {
	if factor == 0 {
		log.Panic("time converter factor cannot be 0")
	}

	return &TimeConverter{factor: factor}
}

// Factor returns the number of core ticks per period.
func (tc *TimeConverter) Factor() SimTime {
	return tc.factor
}

// ConvertToCoreTime converts a time in periods to core ticks.
func (tc *TimeConverter) ConvertToCoreTime(t SimTime) SimTime {
	return t * tc.factor
}

// ConvertFromCoreTime converts a core tick count to whole periods.
func (tc *TimeConverter) ConvertFromCoreTime(t SimTime) SimTime {
	return t / tc.factor
}
