package netmd

import "github.com/hansbonini/mdtools/pkg/common"

// OperatingState is the decoded operating status of a device
type OperatingState string

const (
	StateReady       OperatingState = "ready"
	StatePlaying     OperatingState = "playing"
	StatePaused      OperatingState = "paused"
	StateFastForward OperatingState = "fastForward"
	StateRewind      OperatingState = "rewind"
	StateReadingTOC  OperatingState = "readingTOC"
	StateNoDisc      OperatingState = "noDisc"
	StateDiscBlank   OperatingState = "discBlank"
	StateUnknown     OperatingState = "unknown"
)

var operatingStates = map[uint16]OperatingState{
	50687: StateReady,
	50037: StatePlaying,
	50045: StatePaused,
	49983: StateFastForward,
	49999: StateRewind,
	65315: StateReadingTOC,
	65296: StateNoDisc,
	65535: StateDiscBlank,
}

// DecodeOperatingStatus maps a raw status word to a state. A playing
// device without a disc reports ready.
func DecodeOperatingStatus(word uint16, discPresent bool) OperatingState {
	state, ok := operatingStates[word]
	if !ok {
		common.LogDebug(common.WarnUnknownOperatingState, word)
		return StateUnknown
	}
	if state == StatePlaying && !discPresent {
		return StateReady
	}
	return state
}

// DiscPresentInStatus reports whether the status block and decoded state
// both indicate an inserted disc.
func DiscPresentInStatus(status []byte, state OperatingState) bool {
	if len(status) > 4 && status[4] == 0x80 {
		return false
	}
	return state != StateReadingTOC && state != StateNoDisc
}
