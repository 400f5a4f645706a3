package scenarios

import (
	"context"
	"fmt"
	"math"

	"github.com/kilianp07/wrsn/core/episode"
	"github.com/kilianp07/wrsn/core/logger"
	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/core/policy"
)

// Run plays the scenario to the end.
func Run(ctx context.Context, sc *Scenario, log logger.Logger) (episode.Summary, error) {
	pol, err := sc.policy()
	if err != nil {
		return episode.Summary{}, err
	}
	r, err := episode.NewRunner(sc.Network,
		episode.Fleet{IDs: sc.Chargers, Spec: sc.Spec.ToModel()},
		pol,
		episode.Options{
			RunID:        sc.Name,
			Duration:     sc.Options.Duration,
			IdleWait:     sc.Options.IdleWait,
			MaxDecisions: sc.Options.MaxDecisions,
		}, log)
	if err != nil {
		return episode.Summary{}, err
	}
	return r.Run(ctx)
}

func (sc *Scenario) policy() (policy.Policy, error) {
	if len(sc.Actions) == 0 {
		return policy.New(sc.Policy)
	}
	next := map[string]int{}
	return policy.Func(func(o policy.Observation) mc.Action {
		i := next[o.Charger.ID]
		if i < len(sc.Actions) {
			next[o.Charger.ID] = i + 1
			return sc.Actions[i].ToModel()
		}
		return mc.Action{X: o.Base.X, Y: o.Base.Y}
	}), nil
}

// Verify compares a summary with the expectations and describes every
// mismatch.
func Verify(exp Expected, sum episode.Summary) []string {
	var out []string
	if exp.Reason != "" && exp.Reason != sum.Reason {
		out = append(out, fmt.Sprintf("reason: want %s, got %s", exp.Reason, sum.Reason))
	}
	if exp.EndTime != nil && math.Abs(*exp.EndTime-sum.EndTime) > 1e-6 {
		out = append(out, fmt.Sprintf("end_time: want %v, got %v", *exp.EndTime, sum.EndTime))
	}
	for _, c := range []struct {
		name string
		want *int
		got  int
	}{
		{"decisions", exp.Decisions, sum.Decisions},
		{"rejections", exp.Rejections, sum.Rejections},
		{"depletions", exp.Depletions, sum.Depletions},
		{"stranded", exp.Stranded, sum.Stranded},
	} {
		if c.want != nil && *c.want != c.got {
			out = append(out, fmt.Sprintf("%s: want %d, got %d", c.name, *c.want, c.got))
		}
	}
	if exp.MinAlive != nil && sum.Alive < *exp.MinAlive {
		out = append(out, fmt.Sprintf("alive: want at least %d, got %d", *exp.MinAlive, sum.Alive))
	}
	return out
}
