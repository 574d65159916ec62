// Package engine simulates outbound call runs. It is pure computation:
// persistence and transport live in the surrounding campaign service.
package engine

import (
	"fmt"
	"math/rand"
)

// Outcome is the simulated result of one call.
type Outcome string

const (
	OutcomeCalled      Outcome = "called"
	OutcomeTransferred Outcome = "transferred"
	OutcomeNoAnswer    Outcome = "no_answer"
	OutcomeVoicemail   Outcome = "voicemail"
)

type weightedOutcome struct {
	outcome Outcome
	weight  int
}

// Outcome weights. The draw is a uniform pick in [0, totalWeight); the first
// cumulative bucket containing the draw wins, so the ratios hold exactly.
var outcomes = []weightedOutcome{
	{OutcomeCalled, 30},
	{OutcomeTransferred, 25},
	{OutcomeNoAnswer, 25},
	{OutcomeVoicemail, 20},
}

const totalWeight = 100

// Call durations are uniform in [minDuration, minDuration+durationSpread).
const (
	minDuration    = 10
	durationSpread = 120
)

// CallResult is one simulated call.
type CallResult struct {
	Outcome         Outcome
	Transferred     bool
	DurationSeconds int
	Notes           string
}

// Simulator draws call results from a seedable source so distribution tests
// are reproducible.
type Simulator struct {
	rng *rand.Rand
}

func New(src rand.Source) *Simulator {
	return &Simulator{rng: rand.New(src)}
}

// Draw simulates a single call.
func (s *Simulator) Draw() CallResult {
	outcome := s.pickOutcome()
	return CallResult{
		Outcome:         outcome,
		Transferred:     outcome == OutcomeTransferred,
		DurationSeconds: minDuration + s.rng.Intn(durationSpread),
		Notes:           notesFor(outcome),
	}
}

func (s *Simulator) pickOutcome() Outcome {
	draw := s.rng.Intn(totalWeight)
	cumulative := 0
	for _, candidate := range outcomes {
		cumulative += candidate.weight
		if draw < cumulative {
			return candidate.outcome
		}
	}
	// Unreachable: weights sum to totalWeight.
	return outcomes[len(outcomes)-1].outcome
}

func notesFor(outcome Outcome) string {
	switch outcome {
	case OutcomeCalled:
		return "Spoke with the lead; interested, follow-up scheduled."
	case OutcomeTransferred:
		return "Lead asked for an agent; call transferred to a human."
	case OutcomeNoAnswer:
		return "No answer after ringing out."
	case OutcomeVoicemail:
		return "Reached voicemail; left a callback message."
	default:
		return fmt.Sprintf("Call ended with outcome %s.", outcome)
	}
}
