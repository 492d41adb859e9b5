package diag

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := fmt.Errorf("import: %w", Format("open package", cause))

	if !IsFormat(err) {
		t.Fatal("expected wrapped FormatError to be detected")
	}
	if IsIO(err) {
		t.Error("did not expect IOError")
	}
	if !errors.Is(err, cause) {
		t.Error("expected FormatError to unwrap to its cause")
	}

	ioErr := IO("write package", cause)
	if !IsIO(ioErr) {
		t.Error("expected IOError to be detected")
	}
	want := "io error during write package: zip: not a valid zip file"
	if ioErr.Error() != want {
		t.Errorf("expected %q, got %q", want, ioErr.Error())
	}
}

func TestNilSinkDiscards(t *testing.T) {
	var s Sink
	// Must not panic.
	s.Emit("importer", "picture", errors.New("boom"))
}

func TestCollectorAndTee(t *testing.T) {
	var a, b Collector
	s := Tee(a.Sink(), nil, b.Sink())
	s.Emit("markup", "style", errors.New("bad declaration"))
	s.Emit("importer", "picture rId3", nil)

	if len(a.Warnings()) != 2 || len(b.Warnings()) != 2 {
		t.Fatalf("expected 2 warnings in each collector, got %d and %d", len(a.Warnings()), len(b.Warnings()))
	}
	got := a.Strings()
	if got[0] != "markup: style: bad declaration" {
		t.Errorf("unexpected warning text %q", got[0])
	}
	if got[1] != "importer: picture rId3" {
		t.Errorf("unexpected warning text %q", got[1])
	}
}
