package codecreader

import (
	"bytes"

	soxr "github.com/zaf/resample"
)

// resampler adapts zaf/resample's io.Writer-based soxr binding to a simple
// "push bytes in, get resampled bytes back" call, kept alive across the
// whole read instead of being built fresh per call.
type resampler struct {
	out *bytes.Buffer
	rs  *soxr.Resampler
}

func newResampler(fromRate, toRate, channels int) (*resampler, error) {
	r := &resampler{out: &bytes.Buffer{}}
	if fromRate == toRate {
		return r, nil
	}
	rs, err := soxr.New(r.out, float64(fromRate), float64(toRate), channels, soxr.I16, soxr.HighQ)
	if err != nil {
		return nil, err
	}
	r.rs = rs
	return r, nil
}

// Convert resamples in and returns the resulting bytes. When no resampling
// is needed (matching rates) it returns in unchanged.
func (r *resampler) Convert(in []byte) ([]byte, error) {
	if r.rs == nil {
		return in, nil
	}
	r.out.Reset()
	if _, err := r.rs.Write(in); err != nil {
		return nil, err
	}
	return append([]byte(nil), r.out.Bytes()...), nil
}

// Close releases the underlying soxr resampler, if any.
func (r *resampler) Close() error {
	if r.rs == nil {
		return nil
	}
	return r.rs.Close()
}
