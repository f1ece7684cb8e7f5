package capture

// IsCachedFix reports whether a location fix's timestamp indicates it was
// served from a stale OS location cache rather than freshly acquired
// (spec.md §4.3). A genuinely fresh fix reads close to one of two
// candidate "now" anchors: the pipeline's startup time, or startup time
// shifted back by the known ~19.7-year GPS week-rollover bug
// (rolloverOffsetMs = 619_315_200_000) — a device affected by that bug
// reports a fix taken right now as if it occurred near the earlier
// anchor instead. Whichever anchor fixTimeMs actually sits closest to is
// treated as "now" for staleness purposes; the fix is cached if it
// predates that anchor (spec.md §8 scenario 6).
func IsCachedFix(fixTimeMs, startupTimeMs, rolloverOffsetMs int64) bool {
	rolloverAnchor := startupTimeMs - rolloverOffsetMs

	if absInt64(fixTimeMs-rolloverAnchor) < absInt64(fixTimeMs-startupTimeMs) {
		return fixTimeMs < rolloverAnchor
	}

	return fixTimeMs < startupTimeMs
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}
