package borrowecs

import (
	"reflect"
	"strings"
	"testing"
)

func TestReadQuery(t *testing.T) {
	e := NewEntity()
	Insert(e, Position{X: 4})

	out, b, ok := Fetch(e, Read[Position]{})
	if !ok {
		t.Fatal("read query failed")
	}
	if out.Get().X != 4 {
		t.Errorf("expected x 4, got %v", out.Get().X)
	}
	if st, _ := StateOf[Position](e); st.Shared() != 1 {
		t.Errorf("expected shared(1), got %s", st)
	}
	b.Release()
	if st, _ := StateOf[Position](e); !st.IsFree() {
		t.Errorf("expected free, got %s", st)
	}
	expectPanic(t, "Read.Get after release", func() { out.Get() })
}

func TestWriteQuery(t *testing.T) {
	e := NewEntity()
	Insert(e, Position{})

	ok := Visit(e, Write[Position]{}, func(p Write[Position]) {
		if st, _ := StateOf[Position](e); !st.IsExclusive() {
			t.Errorf("expected exclusive during visit, got %s", st)
		}
		p.Get().X = 3
		p.Set(Position{X: p.Get().X, Y: 1})
	})
	if !ok {
		t.Fatal("write query failed")
	}
	if pos, _ := Get[Position](e); pos.X != 3 || pos.Y != 1 {
		t.Errorf("expected {3 1}, got %+v", pos)
	}
}

func TestQueryAbsentComponent(t *testing.T) {
	e := NewEntity()
	if _, _, ok := Fetch(e, Read[Position]{}); ok {
		t.Error("read of absent component succeeded")
	}
	if _, _, ok := Fetch(e, Write[Position]{}); ok {
		t.Error("write of absent component succeeded")
	}
	if Visit(e, Read[Position]{}, func(Read[Position]) { t.Error("visited absent component") }) {
		t.Error("Visit reported success")
	}
}

func TestVisitReleasesOnPanic(t *testing.T) {
	e := NewEntity()
	Insert(e, Position{})
	expectPanic(t, "Visit", func() {
		Visit(e, Write[Position]{}, func(Write[Position]) { panic("boom") })
	})
	if e.Borrowed() {
		t.Error("Visit leaked a borrow after panic")
	}
}

func TestOptionalQuery(t *testing.T) {
	e := NewEntity()
	out, b, ok := Fetch(e, Optional[Health]{})
	if !ok {
		t.Fatal("optional query failed on absent component")
	}
	if _, present := out.Get(); present {
		t.Error("absent optional reported present")
	}
	if len(b) != 0 {
		t.Errorf("absent optional took %d borrows", len(b))
	}

	Insert(e, Health{HP: 2})
	out, b, ok = Fetch(e, Optional[Health]{})
	if !ok {
		t.Fatal("optional query failed on present component")
	}
	if h, present := out.Get(); !present || h.HP != 2 {
		t.Errorf("expected HP 2, got %+v present=%v", h, present)
	}
	b.Release()

	w, _ := GetCell[Health](e).TryExclusive()
	if _, _, ok := Fetch(e, Optional[Health]{}); ok {
		t.Error("optional succeeded on an exclusively borrowed component")
	}
	w.Release()
}

func TestPresenceQueries(t *testing.T) {
	e := NewEntity()
	Insert(e, Tag{})

	if !Matches(e, With[Tag]{}) {
		t.Error("With did not match")
	}
	if Matches(e, Without[Tag]{}) {
		t.Error("Without matched")
	}
	if !Matches(e, Without[Health]{}) {
		t.Error("Without[Health] did not match")
	}

	w, _ := GetCell[Tag](e).TryExclusive()
	if !Matches(e, With[Tag]{}) {
		t.Error("With must not depend on borrow state")
	}
	w.Release()
}

func TestEntityIDQuery(t *testing.T) {
	w := NewWorld(4)
	id := w.Spawn()
	e, _ := w.Entity(id)
	got, b, ok := Fetch(e, EntityID{})
	if !ok || got != id {
		t.Errorf("expected %v, got %v ok=%v", id, got, ok)
	}
	if len(b) != 0 {
		t.Error("entity query took a borrow")
	}
}

func TestMatchesLeavesNoBorrow(t *testing.T) {
	e := NewEntity()
	Insert(e, Position{})
	if !Matches(e, Write[Position]{}) {
		t.Fatal("expected match")
	}
	if e.Borrowed() {
		t.Error("Matches leaked a borrow")
	}
}

func TestGetDirectWithoutBorrowPanics(t *testing.T) {
	e := NewEntity()
	Insert(e, Position{})
	Insert(e, Health{})

	expectPanic(t, "Read", func() { Read[Position]{}.getDirect(e) })
	expectPanic(t, "Write", func() { Write[Position]{}.getDirect(e) })
	expectPanic(t, "Optional", func() { Optional[Health]{}.getDirect(e) })

	r, _ := GetCell[Position](e).TryShared()
	expectPanic(t, "Write under shared", func() { Write[Position]{}.getDirect(e) })
	r.Release()
}

func TestAccesses(t *testing.T) {
	q := Join4(Read[Position]{}, Write[Velocity]{}, Optional[Health]{}, Without[Tag]{})
	got := Accesses(q)
	want := []string{"&borrowecs.Position", "&mut borrowecs.Velocity", "?&borrowecs.Health", "!borrowecs.Tag"}
	if len(got) != len(want) {
		t.Fatalf("expected %d accesses, got %d", len(want), len(got))
	}
	for i, a := range got {
		if a.String() != want[i] {
			t.Errorf("access %d: expected %q, got %q", i, want[i], a.String())
		}
	}
	if s := (Access{Type: reflect.TypeFor[Tag](), Mode: ModeNone}).String(); !strings.HasPrefix(s, "has ") {
		t.Errorf("expected presence notation, got %q", s)
	}
}

func TestConflicts(t *testing.T) {
	if c := Conflicts(Join2(Read[Position]{}, Read[Position]{})); len(c) != 0 {
		t.Errorf("shared twice is not a conflict, got %v", c)
	}
	c := Conflicts(Join3(Write[Position]{}, Read[Velocity]{}, Read[Position]{}))
	if len(c) != 1 || c[0] != reflect.TypeFor[Position]() {
		t.Errorf("expected Position conflict, got %v", c)
	}
	if c := Conflicts(Join2(Write[Position]{}, With[Position]{})); len(c) != 0 {
		t.Errorf("presence check is not a conflict, got %v", c)
	}
}
