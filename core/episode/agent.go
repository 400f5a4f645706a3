package episode

import (
	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/sim"
)

// agent drives one charger through repeated decision cycles. It is the
// process spawned on the environment.
type agent struct {
	r  *Runner
	mc *mc.MobileCharger

	cur         sim.Process
	start       float64
	before      float64
	wasDepleted bool
	// A depleted charger away from the base station cannot move again.
	stranded bool
}

func (a *agent) Step(now float64) (float64, bool) {
	for {
		if a.r.halted || a.stranded {
			return 0, true
		}
		if a.cur == nil {
			if err := a.begin(now); err != nil {
				a.r.fail(now, err)
				return 0, true
			}
		}
		wait, done := a.cur.Step(now)
		if !done {
			return wait, false
		}
		a.cur = nil
		a.r.complete(a, now)
		if now > a.start {
			continue
		}
		if a.mc.Status() == mc.Depleted && a.refillAtBase() {
			a.r.log.Infof("charger %s refilled at the base station at t=%.1f", a.mc.ID(), now)
		} else if a.mc.Status() == mc.Depleted {
			a.stranded = true
			a.r.summary.Stranded++
			a.r.log.Warnf("charger %s stranded at (%.1f, %.1f)", a.mc.ID(), a.mc.Location().X, a.mc.Location().Y)
			return 0, true
		}
		return a.r.opts.IdleWait, false
	}
}

func (a *agent) begin(now float64) error {
	a.start = now
	a.before = a.mc.Energy()
	a.wasDepleted = a.mc.Status() == mc.Depleted
	act := a.r.policy.Act(a.r.observe(now, a.mc))
	proc, err := a.mc.Operate(a.r.net, act)
	if err != nil {
		return err
	}
	a.cur = proc
	return nil
}

// refillAtBase recharges a depleted charger parked at the base station. An
// accepted action to the base never reaches the refill step, so without
// this the charger would idle there depleted.
func (a *agent) refillAtBase() bool {
	p := a.mc.Recharge(a.r.net)
	if _, err := sim.Drive(p); err != nil {
		return false
	}
	return p.Refilled
}
