// Package imageio loads and saves the medical image formats the drivers
// accept: PGM P5 files and uncompressed grayscale DICOM.
package imageio

import (
	"bufio"
	"fmt"
	"os"

	"github.com/cocosip/go-mcdc/mcdc/pixel"
)

// LoadPGM reads a binary PGM (P5) file. maxval up to 255 loads as 8-bit,
// larger maxval as 16-bit big-endian. '#' comments in the header are
// tolerated.
func LoadPGM(path string) (*pixel.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	magic, err := readPGMToken(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if magic != "P5" {
		return nil, fmt.Errorf("%s: only PGM P5 is supported", path)
	}

	var w, h, maxv int
	for _, dst := range []*int{&w, &h, &maxv} {
		tok, err := readPGMToken(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, err := fmt.Sscanf(tok, "%d", dst); err != nil {
			return nil, fmt.Errorf("%s: invalid PGM header", path)
		}
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%s: invalid PGM size", path)
	}
	if maxv <= 0 || maxv > 65535 {
		return nil, fmt.Errorf("%s: invalid PGM maxval", path)
	}

	im := &pixel.Image{
		Width:    w,
		Height:   h,
		Channels: 1,
		Signed:   false,
		Pixels:   make([]int32, w*h),
	}
	if maxv <= 255 {
		im.BitsAllocated = 8
	} else {
		im.BitsAllocated = 16
	}
	im.BitsStored = im.BitsAllocated

	if im.BitsAllocated == 8 {
		buf := make([]byte, w*h)
		if _, err := readFull(r, buf); err != nil {
			return nil, fmt.Errorf("%s: PGM payload too short", path)
		}
		for i, b := range buf {
			im.Pixels[i] = int32(b)
		}
	} else {
		// 16-bit PGM samples are big-endian
		buf := make([]byte, w*h*2)
		if _, err := readFull(r, buf); err != nil {
			return nil, fmt.Errorf("%s: PGM payload too short", path)
		}
		for i := 0; i < w*h; i++ {
			im.Pixels[i] = int32(buf[i*2])<<8 | int32(buf[i*2+1])
		}
	}
	return im, nil
}

// readPGMToken returns the next whitespace-delimited header token, skipping
// '#' comments through end of line.
func readPGMToken(r *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if len(tok) > 0 {
				return string(tok), nil
			}
			return "", err
		}
		switch {
		case b == '#' && len(tok) == 0:
			if _, err := r.ReadString('\n'); err != nil {
				return "", err
			}
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// SavePGM writes the image as a binary PGM (P5) at its stored bit depth:
// one byte per sample when bits_stored <= 8, otherwise 16-bit big-endian.
// maxval is 2^bits_stored - 1 and samples are clamped into [0, maxval].
func SavePGM(path string, im *pixel.Image) error {
	if im.Channels != 1 {
		return fmt.Errorf("%s: only grayscale is supported for PGM output", path)
	}
	if im.Width <= 0 || im.Height <= 0 {
		return fmt.Errorf("%s: invalid image size", path)
	}
	if len(im.Pixels) != im.Width*im.Height {
		return fmt.Errorf("%s: pixel buffer size mismatch", path)
	}

	maxv := 1<<im.BitsStored - 1

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "P5\n%d %d\n%d\n", im.Width, im.Height, maxv)

	if im.BitsStored <= 8 {
		for _, v := range im.Pixels {
			if v < 0 {
				v = 0
			}
			if v > int32(maxv) {
				v = int32(maxv)
			}
			w.WriteByte(byte(v))
		}
	} else {
		for _, v := range im.Pixels {
			if v < 0 {
				v = 0
			}
			if v > int32(maxv) {
				v = int32(maxv)
			}
			u := uint16(v)
			w.WriteByte(byte(u >> 8))
			w.WriteByte(byte(u))
		}
	}
	return w.Flush()
}
