package metrics

import (
	"context"

	"github.com/kilianp07/wrsn/core/events"
	"github.com/kilianp07/wrsn/core/logger"
	coremetrics "github.com/kilianp07/wrsn/core/metrics"
	"github.com/kilianp07/wrsn/internal/eventbus"
)

// StartEventCollector feeds bus events into sink until ctx is done or the bus
// closes. The returned channel is closed when the collector has stopped.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[any], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log = logger.OrNop(log)
	sub := bus.SubscribeBuffered(1024)
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("metrics sink: %v", err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev any) error {
	switch e := ev.(type) {
	case events.DispatchEvent:
		return sink.RecordDispatch(e)
	case events.ChargerStateEvent:
		if r, ok := sink.(coremetrics.ChargerStateRecorder); ok {
			return r.RecordChargerState(e)
		}
	case events.NetworkEvent:
		if r, ok := sink.(coremetrics.NetworkRecorder); ok {
			return r.RecordNetwork(e)
		}
	}
	return nil
}
