package model

// Outcome is the result of one allocation attempt in one direction.
// Keep these values stable; they are written to output files.
type Outcome int

const (
	// OutcomeIneligible: price outside the direction's window, nothing attempted.
	OutcomeIneligible Outcome = 0
	// OutcomeMatched: transfer capacity and ramp capability both sufficient.
	OutcomeMatched Outcome = 1
	// OutcomeTransferShort: transfer capacity binding, ramp sufficient.
	OutcomeTransferShort Outcome = 2
	// OutcomeRampShort: ramp binding, transfer capacity sufficient.
	OutcomeRampShort Outcome = 3
	// OutcomeBothShort: both constraints binding.
	OutcomeBothShort Outcome = 4
)

func ClassifyOutcome(transferOK, rampOK bool) Outcome {
	switch {
	case transferOK && rampOK:
		return OutcomeMatched
	case !transferOK && rampOK:
		return OutcomeTransferShort
	case transferOK && !rampOK:
		return OutcomeRampShort
	default:
		return OutcomeBothShort
	}
}

// Binary collapses an outcome to the 0/1 match flag.
func (o Outcome) Binary() int {
	if o == OutcomeMatched {
		return 1
	}
	return 0
}

func (o Outcome) String() string {
	switch o {
	case OutcomeIneligible:
		return "ineligible"
	case OutcomeMatched:
		return "matched"
	case OutcomeTransferShort:
		return "transfer_short"
	case OutcomeRampShort:
		return "ramp_short"
	case OutcomeBothShort:
		return "both_short"
	default:
		return "unknown"
	}
}
