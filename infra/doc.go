// Package infra contains technical adapters such as the zerolog logger,
// the Prometheus, InfluxDB and KPI sinks, MQTT telemetry and Sentry. These
// packages should depend only on the interfaces defined in the core
// packages.
package infra
