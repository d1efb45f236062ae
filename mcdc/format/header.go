package format

// Container layout:
//
//	[Header][payload...]
//
// All header fields are little-endian. The header is a fixed 32 bytes in
// version 1; payload_bytes counts everything after header_bytes.
const (
	// Magic is the container signature at offset 0.
	Magic = "MCDC"

	// Version is the only container version this package understands.
	Version = 1

	// HeaderBytes is the fixed on-disk header size for version 1.
	HeaderBytes = 32

	// PayloadBytesOffset is the byte offset of the payload_bytes field,
	// patched after the payload has been written.
	PayloadBytesOffset = 28
)

// Header flag bits.
const (
	// FlagLevelShift is set when the encoder applied a level shift;
	// the decoder inverts the shift iff this bit is set.
	FlagLevelShift = 0x01
)

// Header describes an MCDC container.
type Header struct {
	Version       uint16
	HeaderBytes   uint16
	Width         uint32
	Height        uint32
	Channels      uint16
	BitsAllocated uint16
	BitsStored    uint16
	IsSigned      uint8 // describes the original input, not the payload domain
	Flags         uint8
	BlockSize     uint16
	Quality       uint16
	PayloadBytes  uint32
}

// WriteHeader serializes h field by field. PayloadBytes is typically zero
// here and patched later via Writer.PatchU32 at PayloadBytesOffset.
func WriteHeader(w *Writer, h Header) {
	w.WriteBytes([]byte(Magic))
	w.WriteU16(h.Version)
	w.WriteU16(h.HeaderBytes)
	w.WriteU32(h.Width)
	w.WriteU32(h.Height)
	w.WriteU16(h.Channels)
	w.WriteU16(h.BitsAllocated)
	w.WriteU16(h.BitsStored)
	w.WriteU8(h.IsSigned)
	w.WriteU8(h.Flags)
	w.WriteU16(h.BlockSize)
	w.WriteU16(h.Quality)
	w.WriteU32(h.PayloadBytes)
}

// ReadHeader parses and validates a header from the start of data.
// data may extend past the header; callers check payload bounds separately.
func ReadHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < HeaderBytes {
		return h, ErrTruncatedHeader
	}
	if string(data[0:4]) != Magic {
		return h, ErrBadMagic
	}
	r := NewReader(data[4:HeaderBytes])

	// Reads below cannot fail: the slice is exactly 28 bytes.
	h.Version, _ = r.ReadU16()
	h.HeaderBytes, _ = r.ReadU16()
	h.Width, _ = r.ReadU32()
	h.Height, _ = r.ReadU32()
	h.Channels, _ = r.ReadU16()
	h.BitsAllocated, _ = r.ReadU16()
	h.BitsStored, _ = r.ReadU16()
	h.IsSigned, _ = r.ReadU8()
	h.Flags, _ = r.ReadU8()
	h.BlockSize, _ = r.ReadU16()
	h.Quality, _ = r.ReadU16()
	h.PayloadBytes, _ = r.ReadU32()

	if h.Version != Version {
		return h, ErrBadVersion
	}
	if h.HeaderBytes < HeaderBytes {
		return h, ErrBadHeaderBytes
	}
	if len(data) < int(h.HeaderBytes) {
		return h, ErrTruncatedHeader
	}
	if h.Channels != 1 {
		return h, ErrInvalidChannels
	}
	if h.BitsAllocated != 8 && h.BitsAllocated != 16 {
		return h, ErrInvalidBitsAlloc
	}
	if h.BitsStored < 1 || h.BitsStored > 16 {
		return h, ErrInvalidBitsStored
	}
	if h.BlockSize != 8 && h.BlockSize != 16 {
		return h, ErrInvalidBlockSize
	}
	if h.Quality < 1 || h.Quality > 100 {
		return h, ErrInvalidQuality
	}
	return h, nil
}
