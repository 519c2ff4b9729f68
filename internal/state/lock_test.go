package state

import "testing"

func TestPinPadPress(t *testing.T) {
	var pad PinPad

	for _, r := range "12" {
		pad.Press(r)
	}
	if pad.Count() != 2 {
		t.Errorf("Count() = %d, want 2", pad.Count())
	}
	if pad.Full() {
		t.Error("Full() = true with 2 digits")
	}

	pad.Press('x') // ignored
	pad.Press('3')
	pad.Press('4')
	if !pad.Full() {
		t.Fatal("Full() = false with 4 digits")
	}
	if pad.Value() != "1234" {
		t.Errorf("Value() = %q, want 1234", pad.Value())
	}

	pad.Press('5') // ignored past the fourth digit
	if pad.Value() != "1234" {
		t.Errorf("Value() = %q after overflow press, want 1234", pad.Value())
	}

	pad.Clear()
	if pad.Count() != 0 || pad.Value() != "" {
		t.Errorf("Clear() left %q", pad.Value())
	}
}

func TestPinSetupConfirmMatch(t *testing.T) {
	var setup PinSetup

	pin, done := setup.Submit("1234")
	if done {
		t.Fatal("done after first entry")
	}
	if setup.Phase() != PinSetupConfirm {
		t.Fatalf("Phase() = %v, want confirm", setup.Phase())
	}

	pin, done = setup.Submit("1234")
	if !done || pin != "1234" {
		t.Fatalf("Submit(confirm) = (%q, %v), want (1234, true)", pin, done)
	}
	if setup.Phase() != PinSetupCreate {
		t.Error("flow did not reset after completion")
	}
}

func TestPinSetupConfirmMismatchResets(t *testing.T) {
	var setup PinSetup

	setup.Submit("1234")
	pin, done := setup.Submit("9999")
	if done || pin != "" {
		t.Fatalf("Submit(mismatch) = (%q, %v), want no pin", pin, done)
	}
	if setup.Phase() != PinSetupCreate {
		t.Error("mismatch did not reset to create phase")
	}
	if !setup.Mismatched() {
		t.Error("Mismatched() = false after mismatch")
	}

	// The notice clears on the next submission and the flow restarts.
	setup.Submit("4321")
	if setup.Mismatched() {
		t.Error("Mismatched() still set after restarting")
	}
	pin, done = setup.Submit("4321")
	if !done || pin != "4321" {
		t.Errorf("retry = (%q, %v), want (4321, true)", pin, done)
	}
}

func TestPinSetupRejectsShortEntries(t *testing.T) {
	var setup PinSetup

	if _, done := setup.Submit("12"); done {
		t.Error("short entry completed the flow")
	}
	if setup.Phase() != PinSetupCreate {
		t.Error("short entry advanced the phase")
	}
}
