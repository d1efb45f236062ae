package imageio

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cocosip/go-dicom/pkg/dicom/parser"
	"github.com/cocosip/go-dicom/pkg/dicom/tag"
	"github.com/cocosip/go-dicom/pkg/imaging"

	"github.com/cocosip/go-mcdc/mcdc/pixel"
)

// LoadDICOM reads a single uncompressed grayscale DICOM file into the
// codec's image value. Encapsulated transfer syntaxes, multi-frame objects
// and photometric interpretations other than MONOCHROME2 are rejected.
func LoadDICOM(path string) (*pixel.Image, error) {
	res, err := parser.ParseFile(path, parser.WithReadOption(parser.ReadAll))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	ds := res.Dataset

	if pi, ok := ds.GetString(tag.PhotometricInterpretation); ok {
		if strings.TrimSpace(pi) != "MONOCHROME2" {
			return nil, fmt.Errorf("%s: unsupported PhotometricInterpretation %q", path, strings.TrimSpace(pi))
		}
	}

	pd, err := imaging.CreatePixelData(ds)
	if err != nil {
		return nil, fmt.Errorf("pixel data %s: %w", path, err)
	}
	if pd.IsEncapsulated() {
		return nil, fmt.Errorf("%s: compressed/encapsulated DICOM is not supported, convert to uncompressed first", path)
	}
	if pd.FrameCount() != 1 {
		return nil, fmt.Errorf("%s: only single-frame DICOM is supported (frames=%d)", path, pd.FrameCount())
	}

	info := pd.Info
	if info.SamplesPerPixel != 1 {
		return nil, fmt.Errorf("%s: only SamplesPerPixel=1 (grayscale) is supported", path)
	}
	if info.BitsAllocated != 8 && info.BitsAllocated != 16 {
		return nil, fmt.Errorf("%s: only BitsAllocated=8 or 16 is supported", path)
	}
	if info.BitsStored < 1 || int(info.BitsStored) > int(info.BitsAllocated) {
		return nil, fmt.Errorf("%s: invalid BitsStored", path)
	}

	frame, err := pd.GetFrame(0)
	if err != nil {
		return nil, fmt.Errorf("frame %s: %w", path, err)
	}

	im := &pixel.Image{
		Width:         int(info.Width),
		Height:        int(info.Height),
		Channels:      1,
		BitsStored:    int(info.BitsStored),
		BitsAllocated: int(info.BitsAllocated),
		Signed:        info.PixelRepresentation == 1,
	}
	n := im.Width * im.Height
	im.Pixels = make([]int32, n)

	if im.BitsAllocated == 8 {
		if len(frame) < n {
			return nil, fmt.Errorf("%s: pixel data too short", path)
		}
		for i := 0; i < n; i++ {
			im.Pixels[i] = int32(frame[i])
		}
		return im, nil
	}

	if len(frame) < n*2 {
		return nil, fmt.Errorf("%s: pixel data too short", path)
	}
	for i := 0; i < n; i++ {
		raw := binary.LittleEndian.Uint16(frame[i*2 : i*2+2])
		if im.Signed {
			// preserve the two's-complement bit pattern
			im.Pixels[i] = int32(int16(raw))
		} else {
			im.Pixels[i] = int32(raw)
		}
	}
	return im, nil
}

// LoadDICOMSeries treats dir as a DICOM series folder: its regular files
// are ordered by InstanceNumber and the first readable slice wins.
func LoadDICOMSeries(dir string) (*pixel.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type item struct {
		path string
		inst int
	}
	items := make([]item, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		p := filepath.Join(dir, ent.Name())
		items = append(items, item{path: p, inst: instanceNumber(p)})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no files in folder: %s", dir)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].inst < items[j].inst })

	for _, it := range items {
		im, err := LoadDICOM(it.path)
		if err == nil {
			return im, nil
		}
		// skip non-dicom or broken files
	}
	return nil, fmt.Errorf("no readable DICOM found in folder: %s", dir)
}

// instanceNumber reads the InstanceNumber attribute, 0 when absent or
// unreadable.
func instanceNumber(path string) int {
	res, err := parser.ParseFile(path, parser.WithReadOption(parser.ReadAll))
	if err != nil {
		return 0
	}
	s, ok := res.Dataset.GetString(tag.InstanceNumber)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
