package state

import "strings"

// PinLength is the fixed keypad entry length.
const PinLength = 4

// PinPad accumulates keypad digits for an unlock attempt. Press ignores
// input once four digits are held; the caller reads Value at that point
// and either unlocks or calls Clear to start over.
type PinPad struct {
	digits strings.Builder
}

// Press appends one digit. Non-digit runes and presses beyond the fourth
// are ignored.
func (p *PinPad) Press(r rune) {
	if r < '0' || r > '9' {
		return
	}
	if p.digits.Len() >= PinLength {
		return
	}
	p.digits.WriteRune(r)
}

// Clear resets the entry.
func (p *PinPad) Clear() {
	p.digits.Reset()
}

// Count reports how many digits are held, for masked rendering.
func (p *PinPad) Count() int {
	return p.digits.Len()
}

// Full reports whether a complete attempt is held.
func (p *PinPad) Full() bool {
	return p.digits.Len() == PinLength
}

// Value returns the accumulated digits.
func (p *PinPad) Value() string {
	return p.digits.String()
}

// PinSetupPhase identifies which entry the setup flow is waiting for.
type PinSetupPhase int

const (
	PinSetupCreate PinSetupPhase = iota
	PinSetupConfirm
)

// PinSetup drives the two-phase create/confirm flow for choosing a new
// pin. A confirmation mismatch resets to the create phase with a notice
// and no pin is produced.
type PinSetup struct {
	phase    PinSetupPhase
	first    string
	mismatch bool
}

// Phase reports the current entry phase.
func (s *PinSetup) Phase() PinSetupPhase {
	return s.phase
}

// Mismatched reports whether the last confirmation failed, so the UI can
// show a notice. The flag clears on the next submission.
func (s *PinSetup) Mismatched() bool {
	return s.mismatch
}

// Submit feeds one complete four-digit entry into the flow. It returns
// the chosen pin and done=true when the confirmation matches; otherwise
// done is false and the flow either advances to confirm or resets.
func (s *PinSetup) Submit(entry string) (pin string, done bool) {
	s.mismatch = false
	if len(entry) != PinLength {
		return "", false
	}

	switch s.phase {
	case PinSetupCreate:
		s.first = entry
		s.phase = PinSetupConfirm
		return "", false
	case PinSetupConfirm:
		if entry != s.first {
			s.reset()
			s.mismatch = true
			return "", false
		}
		pin = s.first
		s.reset()
		return pin, true
	}
	return "", false
}

// Reset abandons the flow, e.g. when the user leaves the settings page.
func (s *PinSetup) Reset() {
	s.reset()
	s.mismatch = false
}

func (s *PinSetup) reset() {
	s.phase = PinSetupCreate
	s.first = ""
}
