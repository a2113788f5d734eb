// Command sixelencode converts a raster image into a SIXEL stream, mirroring
// img2sixel's option surface over the sixel package's Encoder.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/libsixel-go/sixel"
	"github.com/libsixel-go/sixel/internal/palettefile"
	"github.com/libsixel-go/sixel/pkg/csi"
)

// optFlag binds a single closed-enum or numeric option straight through to
// cfg.SetOpt, so the option table in options.go stays the one source of
// truth for validation (§4.5: "the option set is closed").
func optFlag(fs *flag.FlagSet, cfg *sixel.EncoderConfig, name, usage string) {
	fs.Func(name, usage, func(v string) error {
		return cfg.SetOpt(name, v)
	})
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "sixelencode:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("sixelencode", flag.ContinueOnError)
	cfg := sixel.DefaultEncoderConfig()

	outfile := fs.String("o", "", "output file (default: stdout)")
	mapfile := fs.String("m", "", "load a palette map file (ACT, PAL-JASC, PAL-RIFF, GPL); optional pal-jasc:/pal-riff:/gpl: scheme prefix")
	autoCells := fs.Bool("auto-cells", false, "resolve `c`-unit width/height against the attached terminal's queried cell size instead of 1x1")

	optFlag(fs, &cfg, "colors", "number of palette colors, 1..256, optional trailing ! forces exactly that many")
	optFlag(fs, &cfg, "quantize_model", "auto|heckbert|kmeans")
	optFlag(fs, &cfg, "final_merge", "auto|none|ward|hkmeans")
	optFlag(fs, &cfg, "lut_policy", "auto|5bit|6bit|none|certlut")
	optFlag(fs, &cfg, "diffusion", "auto|none|fs|atkinson|jajuni|stucki|burkes|sierra1|sierra2|sierra3|a_dither|x_dither|lso2")
	optFlag(fs, &cfg, "diffusion_scan", "auto|raster|serpentine")
	optFlag(fs, &cfg, "diffusion_carry", "auto|direct|carry")
	optFlag(fs, &cfg, "find_largest", "auto|norm|lum")
	optFlag(fs, &cfg, "select_color", "auto|center|average|histogram")
	optFlag(fs, &cfg, "encode_policy", "auto|fast|size")
	optFlag(fs, &cfg, "palette_type", "auto|hls|rgb")
	optFlag(fs, &cfg, "resampling", "nearest|gaussian|hanning|hamming|bilinear|welsh|bicubic|lanczos2|lanczos3|lanczos4")
	optFlag(fs, &cfg, "working_colorspace", "gamma|linear|oklab")
	optFlag(fs, &cfg, "output_colorspace", "gamma|linear|smpte-c")
	optFlag(fs, &cfg, "loop_control", "auto|force|disable")
	optFlag(fs, &cfg, "width", "WIDTH[%|c]")
	optFlag(fs, &cfg, "height", "HEIGHT[%|c]")
	optFlag(fs, &cfg, "crop", "WxH+X+Y")
	optFlag(fs, &cfg, "bgcolor", "#rgb|#rrggbb|#rrrgggbbb|#rrrrggggbbbb|rgb:r/g/b|color-name")
	optFlag(fs, &cfg, "gri_limit", "true|false")
	optFlag(fs, &cfg, "ormode", "true|false")
	optFlag(fs, &cfg, "macro_number", "int >= 0")
	optFlag(fs, &cfg, "use_macro", "true|false")
	optFlag(fs, &cfg, "penetrate", "true|false (GNU Screen DCS passthrough)")
	optFlag(fs, &cfg, "optimize_palette", "true|false (trim unused palette slots)")
	optFlag(fs, &cfg, "complexion_score", "int >= 0 (skin-tone weighting in dither distance)")
	optFlag(fs, &cfg, "clip_first", "true|false (force crop before scale, overriding the automatic §4.4 heuristic)")
	optFlag(fs, &cfg, "monochrome", "true|false")
	optFlag(fs, &cfg, "high_color", "true|false")
	optFlag(fs, &cfg, "invert", "true|false")
	optFlag(fs, &cfg, "ignore_delay", "true|false")
	optFlag(fs, &cfg, "static", "true|false")
	optFlag(fs, &cfg, "threads", "int >= 1")
	optFlag(fs, &cfg, "seed", "int64")

	fs.BoolFunc("7bit", "emit 7-bit escapes", func(string) error { return cfg.SetOpt("7bit", "") })
	fs.BoolFunc("8bit", "emit 8-bit C1 escapes", func(string) error { return cfg.SetOpt("8bit", "") })

	if err := fs.Parse(args); err != nil {
		return err
	}

	frame, err := loadFrame(fs.Arg(0))
	if err != nil {
		return err
	}

	if *mapfile != "" {
		if err := loadMapPalette(&cfg, *mapfile); err != nil {
			return err
		}
	}

	if *autoCells {
		if cell, ok := csi.QueryCellSize(); ok {
			w, h := sixel.ResolveGeometry(frame.Width, frame.Height, cfg.Width, cfg.Height, cell.Width, cell.Height)
			cfg.Width = sixel.GeometryValue{Unit: sixel.UnitPixels, Value: w}
			cfg.Height = sixel.GeometryValue{Unit: sixel.UnitPixels, Value: h}
		}
	}

	out := io.Writer(os.Stdout)
	if *outfile != "" && *outfile != "-" {
		f, err := os.Create(*outfile)
		if err != nil {
			return fmt.Errorf("create %s: %w", *outfile, err)
		}
		defer f.Close()
		out = f
	}

	enc := sixel.NewEncoder(cfg)
	return enc.Encode(frame, out)
}

// loadFrame decodes a raster image via the stdlib's registered decoders.
func loadFrame(path string) (*sixel.Frame, error) {
	var r io.Reader
	if path == "" || path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return frameFromImage(img), nil
}

func frameFromImage(img image.Image) *sixel.Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			o := (y*w + x) * 4
			pix[o] = byte(r >> 8)
			pix[o+1] = byte(g >> 8)
			pix[o+2] = byte(bl >> 8)
			pix[o+3] = byte(a >> 8)
		}
	}
	return &sixel.Frame{
		Width: w, Height: h,
		Format:           sixel.RGBA8888,
		Colorspace:       sixel.ColorspaceGamma,
		Pixels:           pix,
		TransparentIndex: -1,
	}
}

// loadMapPalette parses mapfile (`-m`/`--mapfile`) and installs it as
// cfg.MapPalette, so Encoder dithers straight onto it instead of running
// PaletteBuilder (§6 mapfile semantics per img2sixel.c: "transform image
// colors to match those found in" the given file).
func loadMapPalette(cfg *sixel.EncoderConfig, mapfile string) error {
	format, path, _ := palettefile.DetectFormat(mapfile)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read mapfile %s: %w", path, err)
	}
	pf, err := palettefile.Parse(data, format)
	if err != nil {
		return fmt.Errorf("parse mapfile %s: %w", path, err)
	}
	if len(pf.Colors) == 0 {
		return fmt.Errorf("mapfile %s has no colors", path)
	}
	p := sixel.NewPalette(len(pf.Colors))
	p.Colors = pf.Colors
	p.Active = len(pf.Colors)
	p.KeyIndex = -1
	cfg.MapPalette = p
	return nil
}
