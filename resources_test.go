package borrowecs

import (
	"testing"
)

func TestResources(t *testing.T) {
	type gameTime struct{ Tick int }
	type settings struct{ Volume float32 }

	t.Run("Add and Read", func(t *testing.T) {
		r := &Resources{}
		AddResource(r, gameTime{Tick: 7})
		ref, ok := ReadResource[gameTime](r)
		if !ok {
			t.Fatal("expected resource")
		}
		defer ref.Release()
		if ref.Get().Tick != 7 {
			t.Errorf("expected tick 7, got %d", ref.Get().Tick)
		}
	})

	t.Run("Has", func(t *testing.T) {
		r := &Resources{}
		AddResource(r, gameTime{})
		if !HasResource[gameTime](r) {
			t.Error("expected true")
		}
		if HasResource[settings](r) {
			t.Error("expected false")
		}
	})

	t.Run("Add same type panics", func(t *testing.T) {
		r := &Resources{}
		AddResource(r, gameTime{})
		expectPanic(t, "AddResource", func() { AddResource(r, gameTime{}) })
	})

	t.Run("Write excludes readers", func(t *testing.T) {
		r := &Resources{}
		AddResource(r, gameTime{})
		w, ok := WriteResource[gameTime](r)
		if !ok {
			t.Fatal("write borrow failed")
		}
		if _, ok := ReadResource[gameTime](r); ok {
			t.Error("read succeeded during write")
		}
		w.Get().Tick++
		w.Release()
		ref, ok := ReadResource[gameTime](r)
		if !ok || ref.Get().Tick != 1 {
			t.Errorf("expected tick 1 after write")
		}
		if _, ok := WriteResource[gameTime](r); ok {
			t.Error("write succeeded during read")
		}
		ref.Release()
	})

	t.Run("Missing", func(t *testing.T) {
		r := &Resources{}
		if _, ok := ReadResource[settings](r); ok {
			t.Error("read of missing resource succeeded")
		}
		if _, ok := WriteResource[settings](r); ok {
			t.Error("write of missing resource succeeded")
		}
		if _, ok := RemoveResource[settings](r); ok {
			t.Error("remove of missing resource succeeded")
		}
	})

	t.Run("Set", func(t *testing.T) {
		r := &Resources{}
		SetResource(r, settings{Volume: 0.5})
		SetResource(r, settings{Volume: 1})
		ref, _ := ReadResource[settings](r)
		if ref.Get().Volume != 1 {
			t.Errorf("expected volume 1, got %v", ref.Get().Volume)
		}
		expectPanic(t, "SetResource while borrowed", func() { SetResource(r, settings{}) })
		ref.Release()
	})

	t.Run("Remove", func(t *testing.T) {
		r := &Resources{}
		AddResource(r, gameTime{Tick: 3})
		ref, _ := ReadResource[gameTime](r)
		expectPanic(t, "RemoveResource while borrowed", func() { RemoveResource[gameTime](r) })
		ref.Release()
		v, ok := RemoveResource[gameTime](r)
		if !ok || v.Tick != 3 {
			t.Errorf("expected removed tick 3, got %+v ok=%v", v, ok)
		}
		if r.Len() != 0 {
			t.Errorf("expected 0 resources, got %d", r.Len())
		}
	})

	t.Run("Clear", func(t *testing.T) {
		r := &Resources{}
		AddResource(r, gameTime{})
		AddResource(r, settings{})
		w, _ := WriteResource[settings](r)
		expectPanic(t, "Clear while borrowed", func() { r.Clear() })
		w.Release()
		r.Clear()
		if r.Len() != 0 {
			t.Errorf("expected 0 resources, got %d", r.Len())
		}
	})
}

func BenchmarkReadResource(b *testing.B) {
	type gameTime struct{ Tick int }
	r := &Resources{}
	AddResource(r, gameTime{})
	b.ReportAllocs()
	for b.Loop() {
		ref, _ := ReadResource[gameTime](r)
		_ = ref.Get()
		ref.Release()
	}
}
