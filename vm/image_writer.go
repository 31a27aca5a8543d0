package vm

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// ---------------------------------------------------------------------------
// Image Format Constants
// ---------------------------------------------------------------------------

// ImageMagic is the magic number identifying a term image file.
var ImageMagic = [4]byte{'W', 'I', 'M', 'G'}

// ImageVersion is the current term image format version.
const ImageVersion uint32 = 1

// ImageHeaderSize is magic(4) + version(4) + flags(4) + nodeCount(4).
const ImageHeaderSize = 16

// Image flags
const (
	ImageFlagNone       uint32 = 0
	ImageFlagCompressed uint32 = 1 << 0 // body is zstd-compressed
)

// ImageOptions controls how WriteImage lays out the body.
type ImageOptions struct {
	Compress bool
}

// imageBody is the CBOR payload of an image. Nodes lists every heap node
// reachable from the root, children before parents. A reference is either
// an inline term word or (i+1)<<2 for the i-th node, which is told apart by
// the heap tag in the low bits.
type imageBody struct {
	Nodes [][2]uint64 `cbor:"1,keyasint"`
	Root  uint64      `cbor:"2,keyasint"`
}

var imageEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	imageEncMode = em
}

// ---------------------------------------------------------------------------
// WriteImage: serializes a program term
// ---------------------------------------------------------------------------

// WriteImage writes t as a term image. t is borrowed. Shared subterms are
// written once, so the image is proportional to the term graph rather than
// its unfolded tree.
func WriteImage(w io.Writer, h *Heap, t Term, opts ImageOptions) error {
	if !t.IsValid() {
		return fmt.Errorf("vm: write image: invalid term")
	}
	body := flatten(h, t)
	data, err := imageEncMode.Marshal(body)
	if err != nil {
		return fmt.Errorf("vm: write image: %w", err)
	}

	flags := ImageFlagNone
	if opts.Compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("vm: write image: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		enc.Close()
		flags |= ImageFlagCompressed
	}

	var hdr [ImageHeaderSize]byte
	copy(hdr[0:4], ImageMagic[:])
	binary.LittleEndian.PutUint32(hdr[4:8], ImageVersion)
	binary.LittleEndian.PutUint32(hdr[8:12], flags)
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(len(body.Nodes)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("vm: write image header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("vm: write image body: %w", err)
	}
	return nil
}

// flatten numbers the heap nodes reachable from root in post-order.
func flatten(h *Heap, root Term) *imageBody {
	body := &imageBody{}
	index := make(map[Term]uint64)
	ref := func(t Term) uint64 {
		if t.IsHeap() {
			return index[t]
		}
		return uint64(t)
	}

	type frame struct {
		t        Term
		expanded bool
	}
	work := []frame{{t: root}}
	for len(work) > 0 {
		top := len(work) - 1
		f := work[top]
		if !f.t.IsHeap() {
			work = work[:top]
			continue
		}
		if _, done := index[f.t]; done {
			work = work[:top]
			continue
		}
		fn, arg, _ := h.Split(f.t)
		if !f.expanded {
			work[top].expanded = true
			work = append(work, frame{t: arg}, frame{t: fn})
			continue
		}
		work = work[:top]
		body.Nodes = append(body.Nodes, [2]uint64{ref(fn), ref(arg)})
		index[f.t] = uint64(len(body.Nodes)) << handleIndexShift
	}
	body.Root = ref(root)
	return body
}
