package gpuwave

import (
	"fmt"
	"math"
	"strconv"
)

// Stereo is one left/right sample pair.
type Stereo struct {
	L, R float32
}

// Sound is a procedural sound: a pure mapping from absolute time in seconds
// to a stereo sample in [-1, 1].
//
// Implementations must not keep hidden state. Eval is called concurrently,
// in any order, from every invocation of a dispatch.
type Sound interface {
	Eval(t float64) Stereo
}

// SoundFunc adapts an ordinary function to the Sound interface.
type SoundFunc func(t float64) Stereo

// Eval calls f(t).
func (f SoundFunc) Eval(t float64) Stereo { return f(t) }

// ShaderSound is a Sound that can also be expressed as WGSL, so GPU surfaces
// can build it into a compute kernel.
//
// WGSL returns a module fragment that defines
//
//	fn main_sound(time: f32) -> vec2<f32>
//
// along with any helpers it needs. The fragment must not declare bindings or
// entry points; surfaces append those per readback strategy.
type ShaderSound interface {
	Sound
	WGSL() string
}

// BeatSound is the reference sound: a single sine oscillator whose pitch
// steps between two frequencies on a four-beat bar, shaped by an exponential
// per-beat decay. Both channels carry the same signal.
type BeatSound struct {
	// BPM is the tempo in beats per minute.
	BPM float64

	// HighHz is the frequency of the first beat of every bar.
	HighHz float64

	// LowHz is the frequency of the remaining three beats.
	LowHz float64

	// Decay is the envelope rate k in e^(-k*fract(beat)).
	Decay float64
}

var _ ShaderSound = BeatSound{}

// DefaultBeat returns the reference beat: 120 BPM, 880/440 Hz, decay 6.
func DefaultBeat() BeatSound {
	return BeatSound{BPM: 120, HighHz: 880, LowHz: 440, Decay: 6}
}

// Eval evaluates the beat at time t.
func (b BeatSound) Eval(t float64) Stereo {
	beat := t * b.BPM / 60
	freq := b.LowHz
	if math.Mod(beat, 4) < 1 {
		freq = b.HighHz
	}
	amp := math.Exp(-b.Decay * (beat - math.Floor(beat)))
	v := float32(math.Sin(2*math.Pi*freq*t) * amp)
	return Stereo{L: v, R: v}
}

// WGSL returns the beat as a main_sound WGSL fragment with its parameters
// baked in as constants.
func (b BeatSound) WGSL() string {
	return fmt.Sprintf(beatWGSL, wgslFloat(b.BPM), wgslFloat(b.HighHz), wgslFloat(b.LowHz), wgslFloat(b.Decay))
}

const beatWGSL = `const BPM: f32 = %s;
const HIGH_HZ: f32 = %s;
const LOW_HZ: f32 = %s;
const DECAY: f32 = %s;
const TAU: f32 = 6.28318530718;

fn time_to_beat(time: f32) -> f32 {
    return time / 60.0 * BPM;
}

fn sine(freq: f32, time: f32) -> f32 {
    return sin(freq * TAU * time);
}

fn main_sound(time: f32) -> vec2<f32> {
    let beat = time_to_beat(time);
    let bar_pos = beat - 4.0 * floor(beat / 4.0);
    var freq = LOW_HZ;
    if (bar_pos < 1.0) {
        freq = HIGH_HZ;
    }
    let amp = exp(-DECAY * fract(beat));
    return vec2<f32>(sine(freq, time) * amp);
}
`

// wgslFloat formats v as a WGSL abstract float literal (always with a
// decimal point, so the constant is never typed as an integer).
func wgslFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}
