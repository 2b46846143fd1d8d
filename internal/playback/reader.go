// Package playback streams rendered buffers to audio devices.
package playback

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/gogpu/gpuwave"
)

// Channels is the number of interleaved channels a Reader produces.
const Channels = 2

// BytesPerFrame is the size of one stereo float32 frame.
const BytesPerFrame = Channels * 4

// Reader yields a buffer once as interleaved little-endian float32 frames,
// the layout oto's FormatFloat32LE expects. Playback does not loop.
type Reader struct {
	buf    *gpuwave.Buffer
	offset int // next frame
}

// NewReader returns a reader positioned at the first frame of buf.
func NewReader(buf *gpuwave.Buffer) *Reader {
	return &Reader{buf: buf}
}

// Read fills p with whole frames. It returns io.EOF once every frame has
// been read, and io.ErrShortBuffer if p is non-empty but cannot hold one
// frame.
func (r *Reader) Read(p []byte) (int, error) {
	left := r.buf.Len() - r.offset
	if left <= 0 {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) < BytesPerFrame {
		return 0, io.ErrShortBuffer
	}
	frames := min(len(p)/BytesPerFrame, left)
	for i := range frames {
		k := r.offset + i
		binary.LittleEndian.PutUint32(p[i*BytesPerFrame:], math.Float32bits(r.buf.Left[k]))
		binary.LittleEndian.PutUint32(p[i*BytesPerFrame+4:], math.Float32bits(r.buf.Right[k]))
	}
	r.offset += frames
	return frames * BytesPerFrame, nil
}

// Remaining returns the number of frames not yet read.
func (r *Reader) Remaining() int {
	return r.buf.Len() - r.offset
}
