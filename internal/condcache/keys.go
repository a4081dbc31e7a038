package condcache

import "time"

// Redis key layout. Every key lives under the alerts: prefix so a single
// SCAN pattern can inspect or flush the cache during operations work.
const (
	// lastSeenKey is a sorted set: member = meter id, score = unix seconds
	// of the last aggregate that listed the meter as active.
	lastSeenKey = "alerts:lastseen"

	// meterRegionKey is a hash mapping meter id to its region, maintained
	// alongside lastSeenKey so outage alerts can name the region.
	meterRegionKey = "alerts:meterregion"

	// overloadRetention bounds how far back overload window entries are
	// kept. Detection lookbacks are minutes; anything older is dead weight.
	overloadRetention = time.Hour
)

// dedupKey builds the burst-suppression marker key for an alert identity.
// Alerts without a region share the "global" segment.
func dedupKey(alertType, region, meterID string) string {
	if region == "" {
		region = "global"
	}
	key := "alerts:dedup:" + alertType + ":" + region
	if meterID != "" {
		key += ":" + meterID
	}
	return key
}

// activeKey builds the ongoing-condition marker key. Present means an
// unresolved alert already covers the condition.
func activeKey(region, alertType, meterID string) string {
	if region == "" {
		region = "global"
	}
	key := "alerts:active:" + region + ":" + alertType
	if meterID != "" {
		key += ":" + meterID
	}
	return key
}

// overloadKey builds the per-region overload window sorted-set key.
func overloadKey(region string) string {
	return "alerts:overload:" + region
}
