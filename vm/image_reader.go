package vm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// maxImageBody caps the decompressed body size.
const maxImageBody = 1 << 30

// ---------------------------------------------------------------------------
// ImageHeader: Parsed header information
// ---------------------------------------------------------------------------

// ImageHeader contains the parsed header of a term image.
type ImageHeader struct {
	Version   uint32
	Flags     uint32
	NodeCount uint32
}

// Compressed reports whether the body is zstd-compressed.
func (hdr ImageHeader) Compressed() bool {
	return hdr.Flags&ImageFlagCompressed != 0
}

// IsImage reports whether data starts with the term image magic number.
func IsImage(data []byte) bool {
	return len(data) >= len(ImageMagic) && bytes.Equal(data[:len(ImageMagic)], ImageMagic[:])
}

// ParseImageHeader decodes the fixed-size header at the start of data.
func ParseImageHeader(data []byte) (ImageHeader, error) {
	if len(data) < ImageHeaderSize || !IsImage(data) {
		return ImageHeader{}, ErrInvalidImage
	}
	hdr := ImageHeader{
		Version:   binary.LittleEndian.Uint32(data[4:8]),
		Flags:     binary.LittleEndian.Uint32(data[8:12]),
		NodeCount: binary.LittleEndian.Uint32(data[12:16]),
	}
	if hdr.Version != ImageVersion {
		return hdr, fmt.Errorf("%w: got %d, want %d", ErrImageVersion, hdr.Version, ImageVersion)
	}
	if hdr.Flags&^ImageFlagCompressed != 0 {
		return hdr, fmt.Errorf("%w: unknown flags %#x", ErrCorruptImage, hdr.Flags)
	}
	return hdr, nil
}

// ---------------------------------------------------------------------------
// ReadImage: rebuilds a program term
// ---------------------------------------------------------------------------

// ReadImage reads a term image written by WriteImage and rebuilds the term
// in h. The caller owns the returned term. On error nothing is left
// allocated in h.
func ReadImage(r io.Reader, h *Heap) (Term, error) {
	var raw [ImageHeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	hdr, err := ParseImageHeader(raw[:])
	if err != nil {
		return 0, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("vm: read image body: %w", err)
	}
	if hdr.Compressed() {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxImageBody))
		if err != nil {
			return 0, fmt.Errorf("vm: read image body: %w", err)
		}
		data, err = dec.DecodeAll(data, nil)
		dec.Close()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrCorruptImage, err)
		}
	}

	var body imageBody
	if err := cbor.Unmarshal(data, &body); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}
	if uint64(len(body.Nodes)) != uint64(hdr.NodeCount) {
		return 0, fmt.Errorf("%w: header lists %d nodes, body has %d", ErrCorruptImage, hdr.NodeCount, len(body.Nodes))
	}
	return rebuild(h, &body)
}

// rebuild binds the node table in order. Each node may only refer to nodes
// before it, so the table is acyclic by construction.
func rebuild(h *Heap, body *imageBody) (Term, error) {
	terms := make([]Term, 0, len(body.Nodes))
	defer func() {
		for _, t := range terms {
			h.Release(t)
		}
	}()

	resolve := func(ref uint64) (Term, error) {
		if ref&tagMask == tagHeap {
			i := ref >> handleIndexShift
			if i == 0 || i > uint64(len(terms)) {
				return 0, fmt.Errorf("%w: node reference %d out of range", ErrCorruptImage, i)
			}
			return h.Dup(terms[i-1]), nil
		}
		t := Term(ref)
		if !validInline(t) {
			return 0, fmt.Errorf("%w: invalid term word %#x", ErrCorruptImage, ref)
		}
		return t, nil
	}

	for _, n := range body.Nodes {
		fn, err := resolve(n[0])
		if err != nil {
			return 0, err
		}
		arg, err := resolve(n[1])
		if err != nil {
			h.Release(fn)
			return 0, err
		}
		terms = append(terms, h.Bind(fn, arg))
	}
	return resolve(body.Root)
}

// validInline reports whether t is an inline term in canonical encoding
// built only from source-level primitives.
func validInline(t Term) bool {
	switch t.Kind() {
	case KindPrimitive:
		return t < MarkInc
	case KindNumber:
		return uint64(t)>>payloadShift <= 0xffffffff
	case KindApp:
		fn, arg, ok := t.inlineSplit()
		if !ok || !validInline(fn) || !validInline(arg) {
			return false
		}
		c, ok := pack(fn, arg)
		return ok && c == t
	}
	return false
}
