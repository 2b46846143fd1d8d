package gpuwave

import (
	"fmt"
	"iter"
)

// Block is one dispatch: up to Capacity invocations sharing a time offset.
type Block struct {
	// Index is the block number, starting at 0.
	Index int

	// Start is the absolute sample index of invocation 0 (Index*Capacity).
	Start int

	// Count is the number of valid samples in the block. Only the last
	// block may have Count < Capacity; the invocations past Count are
	// still computed and must be discarded.
	Count int

	// Offset is the time of invocation 0 in seconds (Start/SampleRate).
	Offset float64
}

// Schedule partitions a render into fixed-capacity blocks.
type Schedule struct {
	Total      int
	Capacity   int
	SampleRate int
}

// NewSchedule returns the schedule for total samples at sampleRate on a
// grid with the given capacity.
func NewSchedule(total, capacity, sampleRate int) (Schedule, error) {
	if capacity < 1 {
		return Schedule{}, fmt.Errorf("%w: capacity %d", ErrInvalidGrid, capacity)
	}
	if sampleRate <= 0 {
		return Schedule{}, ErrInvalidSampleRate
	}
	if total < 0 {
		return Schedule{}, fmt.Errorf("gpuwave: negative sample count %d", total)
	}
	return Schedule{Total: total, Capacity: capacity, SampleRate: sampleRate}, nil
}

// BlockCount returns ceil(Total/Capacity).
func (s Schedule) BlockCount() int {
	return (s.Total + s.Capacity - 1) / s.Capacity
}

// Block returns block i. The offset depends only on i, never on the
// results of earlier blocks.
func (s Schedule) Block(i int) Block {
	start := i * s.Capacity
	count := s.Total - start
	if count > s.Capacity {
		count = s.Capacity
	}
	if count < 0 {
		count = 0
	}
	return Block{
		Index:  i,
		Start:  start,
		Count:  count,
		Offset: float64(start) / float64(s.SampleRate),
	}
}

// Blocks yields every block in ascending index order.
func (s Schedule) Blocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		n := s.BlockCount()
		for i := 0; i < n; i++ {
			if !yield(s.Block(i)) {
				return
			}
		}
	}
}
