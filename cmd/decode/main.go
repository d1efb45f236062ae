// Command decode expands an MCDC container into a PGM image.
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
	flag.StringVar(&in, "in", "", "input MCDC container path")
	flag.StringVar(&out, "out", "", "output PGM path")
	flag.Parse()

	if in == "" || out == "" {
		fmt.Fprintln(os.Stderr, "Usage: decode --in <input.mcdc> --out <output.pgm>")
		os.Exit(1)
	}

	data, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(2)
	}
	im, err := mcdc.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(2)
	}
	if err := imageio.SavePGM(out, im); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(2)
	}
	fmt.Printf("Wrote: %s\n", out)
}
