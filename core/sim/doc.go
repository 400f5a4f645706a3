// Package sim implements a small discrete-event environment driven by a
// single virtual clock.
//
// Activities are expressed as Process values: state machines whose Step
// method is called at the virtual time they asked to be resumed at. Step
// returns how long to wait before the next call, or reports completion.
// Nested activities are composed with Sequence, whose stages are built
// lazily when they start.
//
//	env := sim.NewEnvironment()
//	env.Spawn(sim.Timeout(2), func() { fmt.Println("woke at", env.Now()) })
//	if err := env.Run(ctx); err != nil { ... }
//
// Resumptions due at the same virtual time run in the order they were
// scheduled, so every process observes the same shared state within a slice.
package sim
