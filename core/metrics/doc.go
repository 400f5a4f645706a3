// Package metrics defines the sinks that observe a simulation run. Every
// sink records dispatch decisions; charger state and sensor population are
// optional capabilities detected through type assertions. Concrete sinks
// (Prometheus, InfluxDB) live in infra/metrics and register themselves with
// the factory in this package.
package metrics
