// Command encode compresses a medical image (DICOM or PGM) into an MCDC
// container.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cocosip/go-mcdc/imageio"
	"github.com/cocosip/go-mcdc/mcdc"
)

func main() {
	var in, out string
	var quality int
	flag.StringVar(&in, "in", "", "input image (DICOM file, DICOM series directory, or PGM)")
	flag.StringVar(&out, "out", "", "output MCDC container path")
	flag.IntVar(&quality, "quality", 0, "quality 1..100")
	flag.Parse()

	if in == "" || out == "" || quality < 1 || quality > 100 {
		fmt.Println("Usage: encode --in <input> --out <output.mcdc> --quality <1..100>")
		os.Exit(1)
	}

	im, err := imageio.LoadMedical(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(2)
	}
	data, err := mcdc.Encode(im, quality)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(2)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(2)
	}

	rawSize := im.Width * im.Height * (im.BitsAllocated / 8)
	fmt.Printf("raw input size: %d bytes\n", rawSize)
	fmt.Printf("Wrote: %s (%d bytes)\n", out, len(data))
}
