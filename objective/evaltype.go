package objective

import "fmt"

// EvalType selects how an evaluation interacts with the objective's running
// power sum.
type EvalType uint8

const (
	// Calculate evaluates the patch alone and leaves the accumulator alone.
	Calculate EvalType = iota
	// Accumulate adds the patch to the running totals and reports them.
	Accumulate
	// Save remembers the patch contribution so a later Update can replace it.
	Save
	// Update swaps the saved contribution for the patch's current one and
	// reports the new totals.
	Update
)

var evalTypeNames = [...]string{
	Calculate:  "calculate",
	Accumulate: "accumulate",
	Save:       "save",
	Update:     "update",
}

func (e EvalType) String() string {
	if int(e) < len(evalTypeNames) {
		return evalTypeNames[e]
	}
	return fmt.Sprintf("EvalType(%d)", uint8(e))
}

// accumulator is a power sum over some number of samples.
type accumulator struct {
	powSum float64
	count  int
}

func (a accumulator) plus(b accumulator) accumulator {
	return accumulator{powSum: a.powSum + b.powSum, count: a.count + b.count}
}

func (a accumulator) minus(b accumulator) accumulator {
	return accumulator{powSum: a.powSum - b.powSum, count: a.count - b.count}
}

// mean is the objective value of the totals, 0 for an empty sum.
func (a accumulator) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.powSum / float64(a.count)
}

// accumState is the running state of one objective instance.
type accumState struct {
	global accumulator
	saved  accumulator
}

// transitions applies an EvalType to the state given the contribution of the
// patch just evaluated, and returns the totals the result is taken from.
var transitions = [...]func(s *accumState, local accumulator) accumulator{
	Calculate: func(_ *accumState, local accumulator) accumulator {
		return local
	},
	Accumulate: func(s *accumState, local accumulator) accumulator {
		s.global = s.global.plus(local)
		return s.global
	},
	Save: func(s *accumState, local accumulator) accumulator {
		s.saved = local
		return s.global
	},
	Update: func(s *accumState, local accumulator) accumulator {
		s.global = s.global.minus(s.saved).plus(local)
		s.saved = local
		return s.global
	},
}

func (s *accumState) apply(et EvalType, local accumulator) (accumulator, error) {
	if int(et) >= len(transitions) {
		return accumulator{}, fmt.Errorf("objective: unknown %s", et)
	}
	return transitions[et](s, local), nil
}
