package imageio

import (
	"fmt"
	"os"
	"strings"

	"github.com/cocosip/go-mcdc/mcdc/pixel"
)

// LoadMedical loads a reference image from path: a DICOM series directory,
// a .pgm file, or a DICOM file (medical datasets commonly carry no
// extension).
func LoadMedical(path string) (*pixel.Image, error) {
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		return LoadDICOMSeries(path)
	}

	if strings.HasSuffix(strings.ToLower(path), ".pgm") {
		return LoadPGM(path)
	}

	im, err := LoadDICOM(path)
	if err != nil {
		return nil, fmt.Errorf("load failed (not supported PGM/DICOM): %w", err)
	}
	return im, nil
}
