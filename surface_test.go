package gpuwave

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
)

// mockSurface is a software surface that records lifecycle calls.
type mockSurface struct {
	*SoftwareSurface
	name    string
	initErr error
	inits   int
	closed  bool
	logger  *slog.Logger
}

func newMockSurface(name string) *mockSurface {
	return &mockSurface{SoftwareSurface: NewSoftwareSurface(WithWorkers(2)), name: name}
}

func (m *mockSurface) Name() string { return m.name }

func (m *mockSurface) Init() error {
	m.inits++
	if m.initErr != nil {
		return m.initErr
	}
	return m.SoftwareSurface.Init()
}

func (m *mockSurface) Close() {
	m.closed = true
	m.SoftwareSurface.Close()
}

func (m *mockSurface) SetLogger(l *slog.Logger) { m.logger = l }

func resetSurface(t *testing.T) {
	t.Helper()
	UnregisterSurface()
	t.Cleanup(UnregisterSurface)
}

func TestRegisterSurface(t *testing.T) {
	resetSurface(t)

	s := newMockSurface("first")
	if err := RegisterSurface(s); err != nil {
		t.Fatalf("RegisterSurface() = %v", err)
	}
	if s.inits != 1 {
		t.Errorf("Init called %d times, want 1", s.inits)
	}
	if RegisteredSurface() != s {
		t.Error("RegisteredSurface() did not return the registered surface")
	}
}

func TestRegisterSurfaceReplacesAndClosesOld(t *testing.T) {
	resetSurface(t)

	first := newMockSurface("first")
	second := newMockSurface("second")
	if err := RegisterSurface(first); err != nil {
		t.Fatal(err)
	}
	if err := RegisterSurface(second); err != nil {
		t.Fatal(err)
	}
	if !first.closed {
		t.Error("previous surface was not closed")
	}
	if second.closed {
		t.Error("new surface was closed")
	}
	if RegisteredSurface() != second {
		t.Error("RegisteredSurface() did not return the replacement")
	}
}

func TestRegisterSurfaceInitFailure(t *testing.T) {
	resetSurface(t)

	s := newMockSurface("broken")
	s.initErr = ErrBackendUnavailable
	if err := RegisterSurface(s); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("RegisterSurface() = %v, want ErrBackendUnavailable", err)
	}
	if RegisteredSurface() != nil {
		t.Error("surface registered despite Init failure")
	}
}

func TestRegisterSurfaceNil(t *testing.T) {
	if err := RegisterSurface(nil); err == nil {
		t.Error("RegisterSurface(nil) should fail")
	}
}

func TestUnregisterSurface(t *testing.T) {
	resetSurface(t)

	s := newMockSurface("gone")
	if err := RegisterSurface(s); err != nil {
		t.Fatal(err)
	}
	UnregisterSurface()
	if !s.closed {
		t.Error("UnregisterSurface did not close the surface")
	}
	if RegisteredSurface() != nil {
		t.Error("surface still registered")
	}
}

func TestRendererUsesRegisteredSurface(t *testing.T) {
	resetSurface(t)

	s := newMockSurface("registered")
	if err := RegisterSurface(s); err != nil {
		t.Fatal(err)
	}
	r := NewRenderer()
	defer r.Close()
	if r.Surface() != s {
		t.Errorf("Surface() = %v, want registered surface", r.Surface().Name())
	}

	explicit := NewSoftwareSurface()
	defer explicit.Close()
	r2 := NewRenderer(WithSurface(explicit))
	defer r2.Close()
	if r2.Surface() != explicit {
		t.Error("WithSurface did not take precedence over the registered surface")
	}
}

func TestRegisterSurfaceDuringRender(t *testing.T) {
	resetSurface(t)

	old := newMockSurface("old")
	if err := RegisterSurface(old); err != nil {
		t.Fatal(err)
	}

	beat := DefaultBeat()
	started := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once
	gated := SoundFunc(func(at float64) Stereo {
		once.Do(func() {
			close(started)
			<-proceed
		})
		return beat.Eval(at)
	})

	req := RenderRequest{SampleRate: 8000, Duration: 1}
	type result struct {
		buf *Buffer
		err error
	}
	done := make(chan result, 1)
	go func() {
		r := NewRenderer(WithGrid(testGrid), WithSound(gated))
		defer r.Close()
		buf, err := r.Render(context.Background(), req)
		done <- result{buf, err}
	}()

	<-started
	registered := make(chan error, 1)
	go func() { registered <- RegisterSurface(newMockSurface("new")) }()
	close(proceed)

	if err := <-registered; err != nil {
		t.Fatalf("RegisterSurface: %v", err)
	}
	if !old.closed {
		t.Error("replaced surface was not closed")
	}
	res := <-done
	if res.err != nil {
		t.Fatalf("Render across replacement: %v", res.err)
	}

	want := renderWith(t, req.SampleRate, req.Duration)
	for i := range want.Left {
		if res.buf.Left[i] != want.Left[i] || res.buf.Right[i] != want.Right[i] {
			t.Fatalf("sample %d = (%v, %v), want (%v, %v)",
				i, res.buf.Left[i], res.buf.Right[i], want.Left[i], want.Right[i])
		}
	}
}
