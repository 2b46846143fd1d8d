package gpuwave

import (
	"errors"
	"testing"
)

func TestGrid(t *testing.T) {
	g := Grid{Width: 4, Height: 3}
	if g.Capacity() != 12 {
		t.Errorf("Capacity = %d, want 12", g.Capacity())
	}
	for k := range g.Capacity() {
		x, y := g.Coord(k)
		if g.Index(x, y) != k {
			t.Errorf("Index(Coord(%d)) = %d", k, g.Index(x, y))
		}
	}
	if g.String() != "4x3" {
		t.Errorf("String = %q", g.String())
	}
	if DefaultGrid.Capacity() != 262144 {
		t.Errorf("DefaultGrid capacity = %d, want 262144", DefaultGrid.Capacity())
	}
}

func TestParseGrid(t *testing.T) {
	g, err := ParseGrid("512x256")
	if err != nil || g != (Grid{Width: 512, Height: 256}) {
		t.Errorf("ParseGrid = %v, %v", g, err)
	}
	for _, bad := range []string{"", "512", "0x4", "4x-1", "axb", "4x3abc", "4x3x9", " 4x3", "4x"} {
		if _, err := ParseGrid(bad); !errors.Is(err, ErrInvalidGrid) {
			t.Errorf("ParseGrid(%q) err = %v, want ErrInvalidGrid", bad, err)
		}
	}
}

func TestScheduleBlockCount(t *testing.T) {
	tests := []struct {
		total, capacity int
		blocks, last    int
	}{
		{48000, 4, 12000, 4},
		{10, 4, 3, 2},
		{8, 4, 2, 4},
		{1, 4, 1, 1},
		{8640000, 262144, 33, 8640000 - 32*262144},
	}
	for _, tt := range tests {
		s, err := NewSchedule(tt.total, tt.capacity, 48000)
		if err != nil {
			t.Fatalf("NewSchedule(%d, %d): %v", tt.total, tt.capacity, err)
		}
		if got := s.BlockCount(); got != tt.blocks {
			t.Errorf("BlockCount(%d/%d) = %d, want %d", tt.total, tt.capacity, got, tt.blocks)
		}
		if got := s.Block(s.BlockCount() - 1).Count; got != tt.last {
			t.Errorf("last block count (%d/%d) = %d, want %d", tt.total, tt.capacity, got, tt.last)
		}
	}
}

func TestScheduleBlocks(t *testing.T) {
	s, err := NewSchedule(10, 4, 8)
	if err != nil {
		t.Fatal(err)
	}
	want := []Block{
		{Index: 0, Start: 0, Count: 4, Offset: 0},
		{Index: 1, Start: 4, Count: 4, Offset: 0.5},
		{Index: 2, Start: 8, Count: 2, Offset: 1},
	}
	var got []Block
	for b := range s.Blocks() {
		got = append(got, b)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d blocks, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("block %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestScheduleEmpty(t *testing.T) {
	s, err := NewSchedule(0, 4, 48000)
	if err != nil {
		t.Fatal(err)
	}
	for range s.Blocks() {
		t.Fatal("empty schedule yielded a block")
	}
}

func TestNewScheduleErrors(t *testing.T) {
	if _, err := NewSchedule(10, 0, 48000); !errors.Is(err, ErrInvalidGrid) {
		t.Errorf("capacity 0: err = %v, want ErrInvalidGrid", err)
	}
	if _, err := NewSchedule(10, 4, 0); !errors.Is(err, ErrInvalidSampleRate) {
		t.Errorf("rate 0: err = %v, want ErrInvalidSampleRate", err)
	}
	if _, err := NewSchedule(-1, 4, 48000); err == nil {
		t.Error("negative total: expected error")
	}
}
