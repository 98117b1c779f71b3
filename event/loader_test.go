package event

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEventFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.event")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadEventByteAndValueSubDispatch drives LoadEvent through real
// directive text exercising the "byte"/"value" sub-dispatch keywords and
// the "mode"/"press" slot directives together.
func TestLoadEventByteAndValueSubDispatch(t *testing.T) {
	path := writeEventFile(t, ""+
		":byte id 1 ;\n"+
		":byte value 2 3 ;\n"+
		":value down 1024\n"+
		":mode base\n"+
		":press * 65\n",
	)

	ev, err := LoadEvent(path, 7, Rules{})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Identifier != 7 {
		t.Fatalf("got identifier %d, want 7", ev.Identifier)
	}
	if len(ev.Rules.BytesID) != 1 || ev.Rules.BytesID[0] != 1 {
		t.Fatalf("got BytesID %v, want [1]", ev.Rules.BytesID)
	}
	if len(ev.Rules.BytesValue) != 2 || ev.Rules.BytesValue[0] != 2 || ev.Rules.BytesValue[1] != 3 {
		t.Fatalf("got BytesValue %v, want [2 3]", ev.Rules.BytesValue)
	}
	if ev.Rules.ValueDown == nil || *ev.Rules.ValueDown != 1024 {
		t.Fatalf("got ValueDown %v, want 1024", ev.Rules.ValueDown)
	}
	if ev.BaseMode == nil {
		t.Fatal("expected a base mode to have been pushed")
	}
	if a := ev.BaseMode.Translation[1]; a.Kind != KindPress || a.Arg != 65 {
		t.Fatalf("got slot 1 = %+v, want Press(65)", a)
	}
}

// TestLoadEventInheritsParentRules covers the rule-template inheritance
// decision: a parent Rules snapshot seeds the event and is refined, not
// replaced, by the event file's own directives.
func TestLoadEventInheritsParentRules(t *testing.T) {
	path := writeEventFile(t, ""+
		":byte value 2 3 ;\n"+
		":value up 0\n"+
		":mode base\n"+
		":toggle * 2\n",
	)

	parent := Rules{BytesID: []int{0}, ValueDown: u64(99)}
	ev, err := LoadEvent(path, 1, parent)
	if err != nil {
		t.Fatal(err)
	}
	if len(ev.Rules.BytesID) != 1 || ev.Rules.BytesID[0] != 0 {
		t.Fatalf("inherited BytesID not preserved: got %v", ev.Rules.BytesID)
	}
	if ev.Rules.ValueDown == nil || *ev.Rules.ValueDown != 99 {
		t.Fatalf("inherited ValueDown not preserved: got %v", ev.Rules.ValueDown)
	}
	if ev.Rules.ValueUp == nil || *ev.Rules.ValueUp != 0 {
		t.Fatalf("own ValueUp not applied: got %v", ev.Rules.ValueUp)
	}
}

// TestLoadEventRejectsByteEvent covers the "no byte rule called" case:
// per-event files never declare their own bytes_event, so "byte event"
// must fail the same way an unrecognized selector would.
func TestLoadEventRejectsByteEvent(t *testing.T) {
	path := writeEventFile(t, ":byte event 0 ;\n")
	if _, err := LoadEvent(path, 1, Rules{}); err == nil {
		t.Fatal("expected fatal error: 'byte event' is not valid inside an event file")
	}
}

// TestLoadEventRejectsUnknownByteSelector covers the default case of the
// "byte" sub-dispatch.
func TestLoadEventRejectsUnknownByteSelector(t *testing.T) {
	path := writeEventFile(t, ":byte bogus 0 ;\n")
	if _, err := LoadEvent(path, 1, Rules{}); err == nil {
		t.Fatal("expected fatal error for unrecognized byte selector")
	}
}

// TestLoadEventRejectsUnknownValueSelector covers the default case of the
// "value" sub-dispatch.
func TestLoadEventRejectsUnknownValueSelector(t *testing.T) {
	path := writeEventFile(t, ":value sideways 0\n")
	if _, err := LoadEvent(path, 1, Rules{}); err == nil {
		t.Fatal("expected fatal error for unrecognized value selector")
	}
}

// TestLoadEventRequiresBytesID covers the missing required 'byte id' rule.
func TestLoadEventRequiresBytesID(t *testing.T) {
	path := writeEventFile(t, ":byte value 2 3 ;\n")
	if _, err := LoadEvent(path, 1, Rules{}); err == nil {
		t.Fatal("expected fatal error: event has no bytes_id rule")
	}
}

// TestLoadEventSlotBeforeModeIsFatal covers a slot directive ("press") that
// fires before any "mode" directive has established a current mode.
func TestLoadEventSlotBeforeModeIsFatal(t *testing.T) {
	path := writeEventFile(t, ""+
		":byte id 1 ;\n"+
		":press * 65\n",
	)
	if _, err := LoadEvent(path, 1, Rules{}); err == nil {
		t.Fatal("expected fatal error: slot directive before any mode")
	}
}
