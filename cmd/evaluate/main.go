// Command evaluate runs the encode/decode loop over a set of qualities and
// reports rate and distortion figures: a CSV of metrics plus reference,
// reconstruction and error-map PGMs.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cocosip/go-mcdc/imageio"
	"github.com/cocosip/go-mcdc/mcdc"
	"github.com/cocosip/go-mcdc/mcdc/pixel"
	"github.com/cocosip/go-mcdc/metrics"
)

const usage = "Usage: evaluate --ref <image> --quality q1 q2 q3 --tmp_dir <dir> --out <metrics.csv> --fig_dir <dir>"

type cliArgs struct {
	ref       string
	qualities []int
	tmpDir    string
	outCSV    string
	figDir    string
}

// parseArgs hand-parses os.Args style flags; --quality consumes values
// until the next -- option.
func parseArgs(args []string) (cliArgs, error) {
	var c cliArgs
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--ref" && i+1 < len(args):
			i++
			c.ref = args[i]
		case a == "--tmp_dir" && i+1 < len(args):
			i++
			c.tmpDir = args[i]
		case a == "--out" && i+1 < len(args):
			i++
			c.outCSV = args[i]
		case a == "--fig_dir" && i+1 < len(args):
			i++
			c.figDir = args[i]
		case a == "--quality":
			for i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
				i++
				q, err := strconv.Atoi(args[i])
				if err != nil {
					return c, fmt.Errorf("quality must be integer")
				}
				c.qualities = append(c.qualities, q)
			}
		}
	}
	if c.ref == "" || c.tmpDir == "" || c.outCSV == "" || c.figDir == "" {
		return c, fmt.Errorf("%s", usage)
	}
	if len(c.qualities) < 3 {
		return c, fmt.Errorf("need at least 3 quality values")
	}
	c.qualities = c.qualities[:3]
	return c, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
}

func run(args []string) error {
	cli, err := parseArgs(args)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cli.tmpDir, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(cli.figDir, 0755); err != nil {
		return err
	}

	ref, err := imageio.LoadMedical(cli.ref)
	if err != nil {
		return err
	}
	if ref.BitsStored < 1 || ref.BitsStored > 16 {
		return fmt.Errorf("ref bits_stored out of range")
	}
	maxv := uint32(1)<<ref.BitsStored - 1
	rawBytes := uint64(ref.Width) * uint64(ref.Height) * uint64(ref.Channels) * uint64(ref.BitsAllocated/8)
	stem := strings.TrimSuffix(filepath.Base(cli.ref), filepath.Ext(cli.ref))

	// reference image at its original bit depth
	if err := imageio.SavePGM(filepath.Join(cli.figDir, stem+"_ref.pgm"), ref); err != nil {
		return err
	}

	csv, err := os.Create(cli.outCSV)
	if err != nil {
		return err
	}
	defer csv.Close()
	fmt.Fprintln(csv, "quality,block_size,compressed_bytes,bpp,raw_bytes,compression_ratio,rmse,psnr")

	for _, q := range cli.qualities {
		if q < 1 || q > 100 {
			return fmt.Errorf("quality out of range 1..100")
		}

		data, err := mcdc.Encode(ref, q)
		if err != nil {
			return err
		}
		mcdcPath := filepath.Join(cli.tmpDir, fmt.Sprintf("%s_q%d.mcdc", stem, q))
		if err := os.WriteFile(mcdcPath, data, 0644); err != nil {
			return err
		}
		compressedBytes := uint64(len(data))

		bpp := 8 * float64(compressedBytes) / (float64(ref.Width) * float64(ref.Height))
		cr := 0.0
		if compressedBytes > 0 {
			cr = float64(rawBytes) / float64(compressedBytes)
		}

		rec, err := mcdc.Decode(data)
		if err != nil {
			return err
		}
		if rec.Width != ref.Width || rec.Height != ref.Height || rec.Channels != ref.Channels {
			return fmt.Errorf("decoded dimensions mismatch")
		}
		if rec.BitsStored != ref.BitsStored {
			return fmt.Errorf("decoded bits_stored mismatch")
		}
		if rec.Signed != ref.Signed {
			return fmt.Errorf("decoded is_signed mismatch")
		}

		refU := metrics.MapToUnsigned(ref, maxv)
		recU := metrics.MapToUnsigned(rec, maxv)
		rmse, psnr, err := metrics.RMSEPSNR(refU, recU, maxv)
		if err != nil {
			return err
		}

		reconPath := filepath.Join(cli.figDir, fmt.Sprintf("%s_q%d_recon.pgm", stem, q))
		if err := imageio.SavePGM(reconPath, rec); err != nil {
			return err
		}

		absErr, err := metrics.AbsError(refU, recU)
		if err != nil {
			return err
		}
		err8 := metrics.ErrorMap8(absErr)
		errImg := &pixel.Image{
			Width:         ref.Width,
			Height:        ref.Height,
			Channels:      1,
			BitsAllocated: 8,
			BitsStored:    8,
			Signed:        false,
			Pixels:        make([]int32, len(err8)),
		}
		for i, v := range err8 {
			errImg.Pixels[i] = int32(v)
		}
		errPath := filepath.Join(cli.figDir, fmt.Sprintf("%s_q%d_err.pgm", stem, q))
		if err := imageio.SavePGM(errPath, errImg); err != nil {
			return err
		}

		fmt.Fprintf(csv, "%d,%d,%d,%g,%d,%g,%g,%g\n",
			q, 8, compressedBytes, bpp, rawBytes, cr, rmse, psnr)
	}

	fmt.Printf("Evaluation completed -> %s\n", cli.outCSV)
	return nil
}
