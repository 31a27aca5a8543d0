package vm

import (
	"errors"
	"io"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("worse.stream")

// maxEmptyReads bounds consecutive zero-byte reads from the input, following
// the bufio convention.
const maxEmptyReads = 100

// ---------------------------------------------------------------------------
// Stream: a program driven as a pull-based byte transducer
// ---------------------------------------------------------------------------

// Stream runs a program as a list of cells (see Cons) and yields the bytes
// it emits. Input bytes are requested from in only when the program asks
// for them, one byte at a time.
//
// Stream implements io.Reader, io.ByteReader and io.Closer. End of output
// and every error are sticky.
type Stream struct {
	heap *Heap
	in   io.Reader

	// list is the remaining program; 0 once the stream has finished.
	list Term
	// waiting is set when list is the tail of a read cell whose input byte
	// has not been fetched yet.
	waiting bool

	inEOF   bool
	scratch [1]byte
	err     error

	produced uint64
	consumed uint64
}

// NewStream starts running program, which it takes ownership of. Input is
// read from in; a nil in behaves as an empty input.
func NewStream(h *Heap, program Term, in io.Reader) *Stream {
	s := &Stream{heap: h, in: in, list: program}
	if in == nil {
		s.inEOF = true
	}
	return s
}

// Heap returns the heap the stream's program lives in.
func (s *Stream) Heap() *Heap {
	return s.heap
}

// Produced returns the number of bytes emitted so far.
func (s *Stream) Produced() uint64 {
	return s.produced
}

// Consumed returns the number of input bytes handed to the program so far.
func (s *Stream) Consumed() uint64 {
	return s.consumed
}

// ReadByte runs the program until it emits its next byte, reading input as
// needed. It returns io.EOF once the program ends.
func (s *Stream) ReadByte() (byte, error) {
	return s.next(true)
}

// Read fills p with emitted bytes. Once at least one byte has been produced
// Read returns instead of waiting on input, so output is never held back by
// an input request.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, s.err
	}
	n := 0
	for n < len(p) {
		b, err := s.next(n == 0)
		if err == errWouldBlock {
			break
		}
		if err != nil {
			if n > 0 {
				// Reported on the next call.
				return n, nil
			}
			return 0, err
		}
		p[n] = b
		n++
	}
	return n, nil
}

// Close releases the remaining program. Further reads report
// ErrStreamClosed unless the stream already ended or failed.
func (s *Stream) Close() error {
	s.finish(ErrStreamClosed)
	return nil
}

// errWouldBlock stops Read before an input request.
var errWouldBlock = errors.New("vm: input needed")

// next advances to the next emitted byte. When block is false it returns
// errWouldBlock instead of reading input.
func (s *Stream) next(block bool) (byte, error) {
	if s.err != nil {
		return 0, s.err
	}
	h := s.heap
	for {
		if s.waiting {
			if !block {
				return 0, errWouldBlock
			}
			x, err := s.input()
			if err != nil {
				log.Errorf("input failed after %d bytes: %s", s.consumed, err)
				s.finish(err)
				return 0, err
			}
			s.waiting = false
			s.list = h.Apply(h.Apply(s.list, Zero), x)
		}

		s.list = h.Normalize(s.list)
		v := h.Decode(h.Apply(h.Dup(s.list), Const))
		switch v.Kind {
		case VerdictByte:
			s.list = h.Apply(s.list, Zero)
			s.produced++
			return v.Byte, nil
		case VerdictEnd:
		default:
			return 0, s.fail("head", v)
		}

		s.list = h.Normalize(h.Apply(s.list, Zero))
		v = h.Decode(h.Apply(h.Dup(s.list), Const))
		switch {
		case v.Kind == VerdictEnd:
			log.Debugf("end of output after %d bytes", s.produced)
			s.finish(io.EOF)
			return 0, io.EOF
		case v.Kind == VerdictByte && v.Byte == 0:
			log.Debug("input requested")
			s.waiting = true
		default:
			return 0, s.fail("tail", v)
		}
	}
}

// input fetches one byte from the input source as a numeral, or const at end
// of input.
func (s *Stream) input() (Term, error) {
	if s.inEOF {
		return Const, nil
	}
	for empty := 0; ; {
		n, err := s.in.Read(s.scratch[:])
		if n > 0 {
			s.consumed++
			return Number(uint32(s.scratch[0])), nil
		}
		switch {
		case err == nil:
			empty++
			if empty >= maxEmptyReads {
				return 0, &InputError{Err: io.ErrNoProgress}
			}
		case errors.Is(err, io.EOF):
			log.Debug("end of input")
			s.inEOF = true
			return Const, nil
		case interrupted(err):
			log.Debug("input read interrupted, retrying")
		default:
			return 0, &InputError{Err: err}
		}
	}
}

func (s *Stream) fail(probe string, v Verdict) error {
	err := &DecodeError{Probe: probe, Verdict: v}
	log.Errorf("output decode failed after %d bytes: %s", s.produced, err)
	s.finish(err)
	return err
}

// finish releases the remaining program and makes err sticky.
func (s *Stream) finish(err error) {
	if s.err != nil {
		return
	}
	s.heap.Release(s.list)
	s.list = 0
	s.waiting = false
	s.err = err
}
