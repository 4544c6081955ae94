package borrowecs

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWorldSpawnAndRemove(t *testing.T) {
	w := NewWorld(2)
	a := w.Spawn()
	b := w.Spawn()
	if a.ID != 0 || b.ID != 1 {
		t.Errorf("expected ids 0 and 1, got %d and %d", a.ID, b.ID)
	}
	if w.Len() != 2 {
		t.Errorf("expected 2 entities, got %d", w.Len())
	}

	c := w.Spawn()
	if c.ID != 2 {
		t.Errorf("expected id 2 after expansion, got %d", c.ID)
	}
	if !w.RemoveEntity(b) {
		t.Fatal("remove failed")
	}
	if w.IsValid(b) {
		t.Error("removed entity still valid")
	}
	if w.RemoveEntity(b) {
		t.Error("second remove reported success")
	}

	d := w.Spawn()
	if d.ID != b.ID {
		t.Errorf("expected recycled id %d, got %d", b.ID, d.ID)
	}
	if d.Version == b.Version {
		t.Error("recycled id kept its version")
	}
	if _, ok := w.Entity(b); ok {
		t.Error("stale handle resolved after recycling")
	}
	if w.Len() != 3 {
		t.Errorf("expected 3 entities, got %d", w.Len())
	}
}

func TestWorldIsValidOutOfRange(t *testing.T) {
	w := NewWorld(1)
	if w.IsValid(EntityID{ID: 100, Version: 1}) {
		t.Error("out of range id reported valid")
	}
	if w.IsValid(EntityID{}) {
		t.Error("zero handle reported valid")
	}
}

func TestWorldZeroCapacity(t *testing.T) {
	w := NewWorld(0)
	for range 5 {
		w.Spawn()
	}
	if w.Len() != 5 {
		t.Errorf("expected 5 entities, got %d", w.Len())
	}
}

func TestRemoveBorrowedEntityPanics(t *testing.T) {
	w := NewWorld(4)
	id := NewBuilder[Position](w).NewEntity(Position{})
	e, _ := w.Entity(id)
	r, _ := GetCell[Position](e).TryShared()

	expectPanic(t, "RemoveEntity", func() { w.RemoveEntity(id) })
	if !w.IsValid(id) {
		t.Error("entity removed despite the panic")
	}
	r.Release()
	if !w.RemoveEntity(id) {
		t.Error("remove failed after release")
	}
}

func TestRemoveBorrowedEntityDeferred(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RemovalPolicy = RemovalDefer
	w, err := NewWorldWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	id := NewBuilder[Position](w).NewEntity(Position{})
	e, _ := w.Entity(id)
	r, _ := GetCell[Position](e).TryShared()

	if w.RemoveEntity(id) {
		t.Fatal("borrowed entity removed immediately")
	}
	w.RemoveEntity(id)
	if w.Pending() != 1 {
		t.Errorf("expected 1 pending removal, got %d", w.Pending())
	}
	if n := w.Flush(); n != 0 {
		t.Errorf("flush applied %d while still borrowed", n)
	}
	if !w.IsValid(id) {
		t.Fatal("entity removed while borrowed")
	}

	r.Release()
	if n := w.Flush(); n != 1 {
		t.Errorf("expected 1 applied, got %d", n)
	}
	if w.IsValid(id) || w.Pending() != 0 {
		t.Error("deferred removal not applied")
	}
}

func TestDeferredRemovalDuringFlush(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RemovalPolicy = RemovalDefer
	w, err := NewWorldWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	builder := NewBuilder[Position](w)
	a := builder.NewEntity(Position{})
	b := builder.NewEntity(Position{})
	ea, _ := w.Entity(a)
	eb, _ := w.Entity(b)

	ra, _ := GetCell[Position](ea).TryShared()
	w.RemoveEntity(a)
	ra.Release()

	rb, _ := GetCell[Position](eb).TryShared()
	Subscribe(w.Events(), func(e EntityRemoved) {
		if e.Entity == a {
			w.RemoveEntity(b)
		}
	})

	if n := w.Flush(); n != 1 {
		t.Fatalf("expected 1 applied, got %d", n)
	}
	if w.Pending() != 1 {
		t.Fatalf("removal deferred during Flush was lost, pending=%d", w.Pending())
	}
	rb.Release()
	w.Flush()
	if w.IsValid(b) {
		t.Error("entity deferred during Flush was never removed")
	}
}

func TestVersionWrapSkipsZero(t *testing.T) {
	w := NewWorld(2)
	w.entities.nextEntityVer = math.MaxUint32
	a := w.Spawn()
	b := w.Spawn()
	if a.Version != math.MaxUint32 {
		t.Errorf("expected version %d, got %d", uint32(math.MaxUint32), a.Version)
	}
	if b.Version == 0 {
		t.Fatal("wrapped version reused the dead marker")
	}
	if !w.IsValid(a) || !w.IsValid(b) {
		t.Error("live entities reported invalid after version wrap")
	}
}

func TestClearEntities(t *testing.T) {
	w := NewWorld(8)
	NewBuilder[Position](w).NewEntities(5, Position{})
	w.ClearEntities()
	if w.Len() != 0 {
		t.Errorf("expected empty world, got %d", w.Len())
	}
	if id := w.Spawn(); !w.IsValid(id) {
		t.Error("world unusable after clear")
	}
}

func TestWorldLogging(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "json"
	w, err := NewWorldWithConfig(cfg, WithLogOutput(&buf))
	if err != nil {
		t.Fatal(err)
	}
	w.RemoveEntity(w.Spawn())

	out := buf.String()
	if !strings.Contains(out, `"world":"`+w.ID().String()+`"`) {
		t.Errorf("log lines not tagged with world id: %s", out)
	}
	if !strings.Contains(out, "entity removed") {
		t.Errorf("expected removal log line, got %s", out)
	}
}

func TestWorldWithLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.ErrorLevel)
	w, err := NewWorldWithConfig(DefaultConfig(), WithLogger(l))
	if err != nil {
		t.Fatal(err)
	}
	id := NewBuilder[Health](w).NewEntity(Health{})
	e, _ := w.Entity(id)
	r, _ := GetCell[Health](e).TryShared()
	expectPanic(t, "RemoveEntity", func() { w.RemoveEntity(id) })
	r.Release()

	if !strings.Contains(buf.String(), "components are borrowed") {
		t.Errorf("expected contract violation to be logged, got %q", buf.String())
	}
}

func TestNewWorldWithInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RemovalPolicy = "later"
	if _, err := NewWorldWithConfig(cfg); err == nil {
		t.Error("expected error for unknown removal policy")
	}
}

func TestWorldString(t *testing.T) {
	w := NewWorld(1)
	w.Spawn()
	if !strings.HasSuffix(w.String(), "1 entities)") {
		t.Errorf("unexpected String: %s", w.String())
	}
}
