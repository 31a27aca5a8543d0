package compiler

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/chazu/worse/vm"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"7", "7"},
		{"'A", "65"},
		{"+", "+"},
		{"3   + .", "3 + ."},
		{"1 ! @ . .", "1 ! @ . ."},
		{"# pair\n4000000000\t@ .", "4000000000 @ ."},
		{"! 2 + . * . .", "! 2 + . * . ."},
	}
	for _, tt := range tests {
		h := vm.NewHeap()
		term, err := Parse(h, tt.src)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.src, err)
		}
		if got := Format(h, term); got != tt.want {
			t.Errorf("Format(Parse(%q)) = %q, want %q", tt.src, got, tt.want)
		}
		h.Release(term)
	}
}

func TestFormatMarkers(t *testing.T) {
	h := vm.NewHeap()
	term := h.Bind(vm.MarkInit, vm.MarkInc)
	if got, want := Format(h, term), "{mark-inc} {mark-init} ."; got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	srcs := []string{
		"1 ! @ . . 1 ! @ . . ! @ . . @ . .",
		"~ ~ . * . - .",
		"4000000000 3000000000 + . .",
		Quote([]byte("round trip")),
		Quote(bytes.Repeat([]byte{0, 'x', 255}, 2000)),
	}
	for _, src := range srcs {
		h := vm.NewHeap()
		first, err := Parse(h, src)
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		second, err := Parse(h, Format(h, first))
		if err != nil {
			t.Fatalf("Parse(Format()) error = %v", err)
		}
		if !h.Equal(first, second) {
			t.Errorf("Parse(Format(t)) differs from t for %.40q", src)
		}
		h.Release(first)
		h.Release(second)
		if h.Live() != 0 {
			t.Errorf("Live() = %d, want 0", h.Live())
		}
	}
}

func TestQuote(t *testing.T) {
	tests := [][]byte{
		nil,
		[]byte("Hello, world!\n"),
		[]byte("it's a #tag"),
		{0, 1, ' ', 0x7f, 0x80, 0xff},
	}
	for _, data := range tests {
		h := vm.NewHeap()
		src := Quote(data)
		term, err := Parse(h, src)
		if err != nil {
			t.Fatalf("Parse(Quote(%q)) error = %v", data, err)
		}
		want := vm.EncodeBytes(h, data)
		if !h.Equal(term, want) {
			t.Errorf("Parse(Quote(%q)) differs from EncodeBytes", data)
		}
		h.Release(want)

		got, err := io.ReadAll(vm.NewStream(h, term, nil))
		if err != nil {
			t.Errorf("running Quote(%q): %v", data, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Quote(%q) program emits %q", data, got)
		}
		if h.Live() != 0 {
			t.Errorf("Live() = %d, want 0", h.Live())
		}
	}
}

func TestByteLiteral(t *testing.T) {
	tests := []struct {
		c    byte
		want string
	}{
		{'a', "'a"},
		{'\'', "''"},
		{'#', "'#"},
		{' ', "32"},
		{'\n', "10"},
		{0x7f, "127"},
		{0xe9, "233"},
	}
	for _, tt := range tests {
		if got := byteLiteral(tt.c); got != tt.want {
			t.Errorf("byteLiteral(%q) = %q, want %q", tt.c, got, tt.want)
		}
		if !strings.HasSuffix(Quote([]byte{tt.c}), "@ . .\n") {
			t.Errorf("Quote(%q) does not end with a cell", tt.c)
		}
	}
}
