package metrics

import "github.com/kilianp07/wrsn/core/factory"

// Config lists the sinks to build. PrometheusAddr, when set, exposes
// /metrics on that address.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks"`
	PrometheusAddr string                 `json:"prometheus_addr"`
}
