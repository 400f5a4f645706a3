package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/wrsn/core/events"
	coremetrics "github.com/kilianp07/wrsn/core/metrics"
	"github.com/kilianp07/wrsn/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes simulation points to InfluxDB with blocking writes.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings InfluxDB first and returns a NopSink when
// the instance is not healthy, so a run never fails on observability.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDispatch writes a dispatch_decision point.
func (s *InfluxSink) RecordDispatch(ev events.DispatchEvent) error {
	d := ev.Decision
	p := write.NewPointWithMeasurement("dispatch_decision").
		AddTag("run_id", ev.RunID).
		AddTag("charger_id", ev.ChargerID).
		AddTag("accepted", strconv.FormatBool(d.Accepted)).
		AddField("sim_time", round3(ev.SimTime)).
		AddField("duration", round3(ev.Duration)).
		AddField("x", round3(d.Executed.X)).
		AddField("y", round3(d.Executed.Y)).
		AddField("charging_time", round3(d.Executed.ChargingTime)).
		AddField("estimate_total", round3(d.Estimate.Total)).
		AddField("estimate_budget", round3(d.Estimate.Budget)).
		AddField("energy_before", round3(ev.EnergyBefore)).
		AddField("energy_after", round3(ev.EnergyAfter)).
		AddField("depleted", ev.Depleted).
		SetTime(ev.Timestamp)
	return s.write(p)
}

// RecordChargerState writes a charger_state point.
func (s *InfluxSink) RecordChargerState(ev events.ChargerStateEvent) error {
	st := ev.State
	p := write.NewPointWithMeasurement("charger_state").
		AddTag("run_id", ev.RunID).
		AddTag("charger_id", st.ID).
		AddTag("status", st.Status.String()).
		AddField("sim_time", round3(ev.SimTime)).
		AddField("x", round3(st.X)).
		AddField("y", round3(st.Y)).
		AddField("energy", round3(st.Energy)).
		AddField("soc", round3(st.Energy/st.Capacity)).
		SetTime(ev.Timestamp)
	return s.write(p)
}

// RecordNetwork writes a network_state point.
func (s *InfluxSink) RecordNetwork(ev events.NetworkEvent) error {
	p := write.NewPointWithMeasurement("network_state").
		AddTag("run_id", ev.RunID).
		AddField("sim_time", round3(ev.SimTime)).
		AddField("alive", ev.Alive).
		AddField("total", ev.Total).
		SetTime(ev.Timestamp)
	return s.write(p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
