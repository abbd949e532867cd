package variable

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/gomdao/gomdao/internal/array"
)

func newTestSet(t *testing.T) *Set {
	t.Helper()
	s := NewSet()
	for _, v := range []struct {
		name  string
		shape array.Shape
	}{
		{"a", array.Shape{2}},
		{"b", array.Shape{}},
		{"c", array.Shape{2, 2}},
	} {
		if err := s.Add(v.name, v.shape); err != nil {
			t.Fatalf("Add(%q): %v", v.name, err)
		}
	}
	return s
}

func TestSetLayout(t *testing.T) {
	s := newTestSet(t)
	if s.Len() != 3 {
		t.Fatalf("Len = %d", s.Len())
	}
	if s.TotalSize() != 7 {
		t.Errorf("TotalSize = %d, want 7", s.TotalSize())
	}
	wantOff := []int{0, 2, 3}
	for i, w := range wantOff {
		if got := s.Offset(i); got != w {
			t.Errorf("Offset(%d) = %d, want %d", i, got, w)
		}
	}
	if i, ok := s.Index("c"); !ok || i != 2 {
		t.Errorf("Index(c) = %d, %v", i, ok)
	}
}

func TestSetDuplicate(t *testing.T) {
	s := newTestSet(t)
	err := s.Add("a", array.Shape{1})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate Add error = %v", err)
	}
}

func TestSetInvalidShape(t *testing.T) {
	s := NewSet()
	if err := s.Add("bad", array.Shape{-1}); err == nil {
		t.Error("invalid shape accepted")
	}
}

func TestVectorViewsAlias(t *testing.T) {
	v := NewVector(newTestSet(t))

	a, err := v.View("a")
	if err != nil {
		t.Fatalf("View(a): %v", err)
	}
	a.Set(5, 1)
	if v.Data()[1] != 5 {
		t.Error("view write not visible in flat buffer")
	}

	v.Data()[3] = 7
	c, _ := v.View("c")
	if c.At(0, 0) != 7 {
		t.Error("flat write not visible through view")
	}

	if _, err := v.View("nope"); !errors.Is(err, ErrUnknown) {
		t.Errorf("View(nope) error = %v", err)
	}
}

func TestVectorCopyAndZero(t *testing.T) {
	s := newTestSet(t)
	v := NewVector(s)
	src := []float64{1, 2, 3, 4, 5, 6, 7}
	v.CopyFrom(src)

	w := NewVector(s)
	w.CopyVec(v)
	if w.Data()[6] != 7 {
		t.Errorf("CopyVec data = %v", w.Data())
	}

	w.Zero()
	for i, x := range w.Data() {
		if x != 0 {
			t.Fatalf("Zero left data[%d] = %v", i, x)
		}
	}
	// Zeroing the copy must not touch the source.
	if v.Data()[0] != 1 {
		t.Error("CopyVec aliased source")
	}
}

func TestVectorFingerprint(t *testing.T) {
	s := newTestSet(t)
	v := NewVector(s)
	w := NewVector(s)
	if v.Fingerprint() != w.Fingerprint() {
		t.Error("equal vectors fingerprint differently")
	}

	before := v.Fingerprint()
	v.Data()[4] = 1e-300
	if v.Fingerprint() == before {
		t.Error("fingerprint ignored a value change")
	}
	v.Data()[4] = 0
	if v.Fingerprint() != before {
		t.Error("fingerprint not restored with the value")
	}
}

func TestDiscretes(t *testing.T) {
	d := NewDiscretes()
	if err := d.Add("order", 3); err != nil {
		t.Fatal(err)
	}
	if err := d.Add("mode", "fast"); err != nil {
		t.Fatal(err)
	}
	if err := d.Add("order", 4); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate Add error = %v", err)
	}

	before := d.Fingerprint()
	if err := d.Set("order", 4); err != nil {
		t.Fatal(err)
	}
	if d.Fingerprint() == before {
		t.Error("fingerprint ignored a discrete change")
	}
	if err := d.Set("order", 3); err != nil {
		t.Fatal(err)
	}
	if d.Fingerprint() != before {
		t.Error("fingerprint not restored with the value")
	}

	if err := d.Set("missing", 1); !errors.Is(err, ErrUnknown) {
		t.Errorf("Set(missing) error = %v", err)
	}
	if v, ok := d.Get("mode"); !ok || v.(string) != "fast" {
		t.Errorf("Get(mode) = %v, %v", v, ok)
	}
}
