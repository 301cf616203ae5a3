// Package globe talks to the trace history archive.
//
// The archive stores one JSON document per aircraft and calendar day under
//
//	{base}/globe_history/YYYY/MM/DD/traces/{shard}/trace_full_{icao}.json
//
// where shard is the last two characters of the ICAO identifier. The
// endpoints file builds these URLs; Client fetches one document at a time
// with the header set the archive expects and reports every failure as a
// typed fetch error so callers can skip that day and keep going.
package globe
