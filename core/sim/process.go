package sim

// Process is a cooperative activity advanced by an Environment.
type Process interface {
	// Step runs the work due at now. It returns the delay before the next
	// call, or done once the process has finished.
	Step(now float64) (wait float64, done bool)
}

// ProcessFunc adapts a function to the Process interface.
type ProcessFunc func(now float64) (float64, bool)

// Step calls f.
func (f ProcessFunc) Step(now float64) (float64, bool) { return f(now) }

type timeout struct {
	d       float64
	started bool
}

// Timeout returns a process that suspends for d units of virtual time.
func Timeout(d float64) Process {
	return &timeout{d: d}
}

func (t *timeout) Step(float64) (float64, bool) {
	if t.started {
		return 0, true
	}
	t.started = true
	return t.d, false
}

// Sequence runs stages one after the other. A stage is built by its factory
// only when the previous one has completed.
type Sequence struct {
	stages []func() Process
	next   int
	cur    Process
}

// NewSequence builds a sequence from stage factories.
func NewSequence(stages ...func() Process) *Sequence {
	return &Sequence{stages: stages}
}

// Then appends a stage and returns the sequence.
func (s *Sequence) Then(stage func() Process) *Sequence {
	s.stages = append(s.stages, stage)
	return s
}

// Do appends a stage that runs fn without consuming virtual time.
func (s *Sequence) Do(fn func()) *Sequence {
	return s.Then(func() Process {
		return ProcessFunc(func(float64) (float64, bool) {
			fn()
			return 0, true
		})
	})
}

// Step advances the current stage. A finished stage hands over to the next
// one within the same call, like a nested process returning to its parent.
func (s *Sequence) Step(now float64) (float64, bool) {
	for {
		if s.cur == nil {
			if s.next >= len(s.stages) {
				return 0, true
			}
			s.cur = s.stages[s.next]()
			s.next++
			if s.cur == nil {
				continue
			}
		}
		wait, done := s.cur.Step(now)
		if !done {
			return wait, false
		}
		s.cur = nil
	}
}
