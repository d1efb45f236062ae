package mcdc

import (
	"github.com/cocosip/go-mcdc/codec"
	"github.com/cocosip/go-mcdc/mcdc/format"
	"github.com/cocosip/go-mcdc/mcdc/pixel"
)

// Codec implements the codec.Codec interface for the MCDC container
type Codec struct{}

// NewCodec creates a new MCDC codec
func NewCodec() *Codec {
	return &Codec{}
}

// Encode encodes pixel data into an MCDC container
func (c *Codec) Encode(params codec.EncodeParams) ([]byte, error) {
	// Extract quality from options
	quality := 85 // default quality
	if params.Options != nil {
		if opts, ok := params.Options.(*Options); ok {
			if err := opts.Validate(); err != nil {
				return nil, err
			}
			quality = opts.Quality
		}
	}

	im := &pixel.Image{
		Width:         params.Width,
		Height:        params.Height,
		Channels:      params.Channels,
		BitsStored:    params.BitsStored,
		BitsAllocated: params.BitsAllocated,
		Signed:        params.Signed,
		Pixels:        params.Pixels,
	}
	return Encode(im, quality)
}

// Decode decodes MCDC container bytes
func (c *Codec) Decode(data []byte) (*codec.DecodeResult, error) {
	im, err := Decode(data)
	if err != nil {
		return nil, err
	}

	return &codec.DecodeResult{
		Pixels:        im.Pixels,
		Width:         im.Width,
		Height:        im.Height,
		Channels:      im.Channels,
		BitsStored:    im.BitsStored,
		BitsAllocated: im.BitsAllocated,
		Signed:        im.Signed,
	}, nil
}

// Magic returns the container magic for MCDC
func (c *Codec) Magic() string {
	return format.Magic
}

// Name returns the human-readable name
func (c *Codec) Name() string {
	return "mcdc"
}

// Options contains encoding options for the MCDC codec
type Options struct {
	codec.BaseOptions
}

// Validate validates the options
func (o *Options) Validate() error {
	// Quality is validated in BaseOptions
	return o.BaseOptions.Validate()
}

// Register registers this codec with the global registry
func init() {
	codec.Register(NewCodec())
}
