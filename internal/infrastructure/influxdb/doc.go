// Package influxdb provides optional time-series telemetry for fodhald.
//
// When enabled, the daemon records fingerprint lifecycle events and
// brightness override cycles to InfluxDB v2 using the non-blocking,
// batched write API. Telemetry is strictly best-effort: write failures
// are reported through an error callback and never affect the
// controller's behaviour.
//
// Disabled by default; enable via config:
//
//	influxdb:
//	  enabled: true
//	  url: "http://localhost:8086"
//	  token: "..."       # or FODHALD_INFLUXDB_TOKEN
//	  org: "devices"
//	  bucket: "fod"
package influxdb
