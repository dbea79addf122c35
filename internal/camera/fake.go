package camera

import "context"

// FakeSource is a test double that returns scripted frames.
type FakeSource struct {
	// Frames are returned in order; once exhausted the last one repeats.
	Frames [][]byte

	// Errors, when non-nil at the current position, fail that capture
	// instead of consuming a frame.
	Errors []error

	// CaptureError, if set, is returned by every Capture.
	CaptureError error

	// Captures counts Capture calls.
	Captures int

	// Resets counts Reset calls.
	Resets int

	// Closed tracks if Close was called.
	Closed bool

	index  int
	errIdx int
}

// NewFakeSource creates a FakeSource with the given frames.
func NewFakeSource(frames ...[]byte) *FakeSource {
	return &FakeSource{Frames: frames}
}

func (f *FakeSource) Capture(ctx context.Context) ([]byte, error) {
	f.Captures++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.CaptureError != nil {
		return nil, f.CaptureError
	}
	if f.errIdx < len(f.Errors) {
		err := f.Errors[f.errIdx]
		f.errIdx++
		if err != nil {
			return nil, err
		}
	}
	if len(f.Frames) == 0 {
		return nil, ErrNoFrame
	}
	frame := f.Frames[f.index]
	if f.index < len(f.Frames)-1 {
		f.index++
	}
	return frame, nil
}

func (f *FakeSource) Reset(_ context.Context) error {
	f.Resets++
	return nil
}

func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}

// FailingSource always fails with err (ErrNoFrame when nil).
func FailingSource(err error) *FakeSource {
	if err == nil {
		err = ErrNoFrame
	}
	return &FakeSource{CaptureError: err}
}
