package capture

// ComputeEventTimeOffset returns the millisecond offset that converts a
// sensor callback's event.time into wall-clock milliseconds (spec.md
// §4.3): eventTimeOffset = systemTimeMillis − event.time/1_000_000.
//
// This single formula handles both supported clock conventions: for a
// wall-clock event.time (already ≈ systemTimeMillis in nanoseconds), the
// offset comes out ≈ 0; for a monotonic boot-clock event.time, the offset
// absorbs the difference between boot time and wall-clock epoch.
func ComputeEventTimeOffset(systemTimeMillis, eventTimeNanos int64) int64 {
	return systemTimeMillis - eventTimeNanos/1_000_000
}

// ToWallClockMillis applies a previously computed offset to a raw sensor
// event timestamp, yielding wall-clock milliseconds.
func ToWallClockMillis(eventTimeNanos, offsetMillis int64) int64 {
	return eventTimeNanos/1_000_000 + offsetMillis
}
