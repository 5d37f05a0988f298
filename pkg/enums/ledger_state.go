package enums

import "fmt"

// LedgerState tracks a checkout session through order finalization.
type LedgerState string

const (
	LedgerStateProcessing LedgerState = "processing"
	LedgerStateDone       LedgerState = "done"
)

var validLedgerStates = []LedgerState{
	LedgerStateProcessing,
	LedgerStateDone,
}

func (s LedgerState) String() string {
	return string(s)
}

func (s LedgerState) IsValid() bool {
	for _, candidate := range validLedgerStates {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseLedgerState(value string) (LedgerState, error) {
	for _, candidate := range validLedgerStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger state %q", value)
}
