package mode

import "testing"

func TestEnterIsNoopWhenAlreadyActive(t *testing.T) {
	r := New()
	image := r.Register("image", Unset)
	library := r.Register("library", image)

	entered := 0
	r.Entered.Subscribe(func(ID) { entered++ })

	if err := r.Enter(library); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if err := r.Enter(library); err != nil {
		t.Fatalf("Enter again: %v", err)
	}
	if entered != 1 {
		t.Fatalf("entered = %d, want 1 (second Enter should be a no-op)", entered)
	}
}

func TestToggleRoundTrip(t *testing.T) {
	r := New()
	image := r.Register("image", Unset)
	library := r.Register("library", image)
	r.Enter(image)

	visible := false
	r.Visible = func(id ID) bool { return id == library && visible }

	if err := r.Toggle(library); err != nil {
		t.Fatalf("Toggle enter: %v", err)
	}
	if r.Active() != library {
		t.Fatalf("Active() = %d, want library", r.Active())
	}
	visible = true

	if err := r.Toggle(library); err != nil {
		t.Fatalf("Toggle leave: %v", err)
	}
	if r.Active() != image {
		t.Fatalf("Active() = %d, want image after leaving library", r.Active())
	}
}

func TestLastNeverEqualsSelf(t *testing.T) {
	r := New()
	image := r.Register("image", Unset)
	library := r.Register("library", image)
	command := r.Register("command", library)

	r.Enter(image)
	r.Enter(library)
	r.Enter(command)
	r.Enter(library)
	r.Enter(command)

	last, err := r.Last(command)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if last == command {
		t.Fatalf("last(command) == command, want != self")
	}
}

func TestLeaveResetsLastToFallback(t *testing.T) {
	r := New()
	image := r.Register("image", Unset)
	library := r.Register("library", image)

	r.Enter(image)
	r.Enter(library)
	if err := r.Leave(library); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if r.Active() != image {
		t.Fatalf("Active() = %d, want image", r.Active())
	}

	last, _ := r.Last(library)
	if last != image {
		t.Fatalf("last(library) = %d, want fallback image", last)
	}
}

func TestEnterUnknownMode(t *testing.T) {
	r := New()
	r.Register("image", Unset)

	err := r.Enter(ID(99))
	if err == nil {
		t.Fatal("expected error entering unknown mode")
	}
	var unknown *UnknownModeError
	if !asUnknownModeError(err, &unknown) {
		t.Fatalf("got %v, want *UnknownModeError", err)
	}
}

func asUnknownModeError(err error, target **UnknownModeError) bool {
	e, ok := err.(*UnknownModeError)
	if ok {
		*target = e
	}
	return ok
}

func TestNeverLastExcludesCommandAndManipulateFromMainModes(t *testing.T) {
	r := New()
	library := r.Register("library", Unset)
	manipulate := r.Register("manipulate", library)
	command := r.Register("command", library)
	r.MarkNeverLast(command)
	r.MarkNeverLast(manipulate)
	r.MarkAcceptsAnyLast(command)

	r.Enter(library)
	if err := r.Enter(manipulate); err != nil {
		t.Fatalf("Enter(manipulate): %v", err)
	}
	if err := r.Enter(library); err != nil {
		t.Fatalf("Enter(library): %v", err)
	}

	last, err := r.Last(library)
	if err != nil {
		t.Fatalf("Last(library): %v", err)
	}
	if last == manipulate {
		t.Fatalf("last(library) = manipulate, want library's last-mode policy to reject manipulate")
	}

	if err := r.Leave(library); err != nil {
		t.Fatalf("Leave(library): %v", err)
	}
	if r.Active() == manipulate {
		t.Fatal("Leave(library) re-entered manipulate instead of falling back")
	}
}

func TestAcceptsAnyLastLetsCommandRecordManipulate(t *testing.T) {
	r := New()
	library := r.Register("library", Unset)
	manipulate := r.Register("manipulate", library)
	command := r.Register("command", library)
	r.MarkNeverLast(command)
	r.MarkNeverLast(manipulate)
	r.MarkAcceptsAnyLast(command)

	r.Enter(library)
	r.Enter(manipulate)
	if err := r.Enter(command); err != nil {
		t.Fatalf("Enter(command): %v", err)
	}

	last, err := r.Last(command)
	if err != nil {
		t.Fatalf("Last(command): %v", err)
	}
	if last != manipulate {
		t.Fatalf("last(command) = %d, want manipulate (command accepts any last)", last)
	}

	if err := r.Leave(command); err != nil {
		t.Fatalf("Leave(command): %v", err)
	}
	if r.Active() != manipulate {
		t.Fatalf("Active() = %d, want manipulate after leaving command", r.Active())
	}
}

func TestGlobalsMembership(t *testing.T) {
	r := New()
	image := r.Register("image", Unset)
	library := r.Register("library", image)
	command := r.Register("command", library)

	r.MarkGlobal(image)
	r.MarkGlobal(library)

	if !r.IsGlobal(image) || !r.IsGlobal(library) {
		t.Fatal("image and library should be global members")
	}
	if r.IsGlobal(command) {
		t.Fatal("command should not be a global member")
	}
	if len(r.Globals()) != 2 {
		t.Fatalf("Globals() len = %d, want 2", len(r.Globals()))
	}
}
