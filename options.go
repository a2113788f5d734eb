package sixel

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/libsixel-go/sixel/internal/coretypes"
)

// enumEntry is one row of a closed option table (§4.5, §8 invariant 8).
type enumEntry struct {
	name  string
	value int
}

// matchEnum resolves s (case-sensitive) against table. An exact name match
// always wins outright. Otherwise every entry whose name has s as a prefix
// is collected; if they all agree on the same value the prefix uniquely
// identifies it, otherwise the match is ambiguous and every candidate name
// is reported.
func matchEnum(table []enumEntry, s string) (int, error) {
	for _, e := range table {
		if e.name == s {
			return e.value, nil
		}
	}
	var candidates []enumEntry
	for _, e := range table {
		if strings.HasPrefix(e.name, s) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return 0, newErr(BadArgument, "no option value matches %q", s)
	}
	value := candidates[0].value
	ambiguous := false
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.name)
		if c.value != value {
			ambiguous = true
		}
	}
	if ambiguous {
		sort.Strings(names)
		return 0, newErr(BadArgument, "%q is ambiguous between: %s", s, strings.Join(names, ", "))
	}
	return value, nil
}

// --- closed enums -----------------------------------------------------

type QuantizeModel = coretypes.QuantizeModel

const (
	QuantizeAuto     = coretypes.QuantizeAuto
	QuantizeHeckbert = coretypes.QuantizeHeckbert
	QuantizeKMeans   = coretypes.QuantizeKMeans
)

var quantizeModelTable = []enumEntry{
	{"auto", int(QuantizeAuto)},
	{"heckbert", int(QuantizeHeckbert)},
	{"kmeans", int(QuantizeKMeans)},
}

type FinalMergeMode = coretypes.FinalMergeMode

const (
	MergeAuto    = coretypes.MergeAuto
	MergeNone    = coretypes.MergeNone
	MergeWard    = coretypes.MergeWard
	MergeHKMeans = coretypes.MergeHKMeans
)

var finalMergeTable = []enumEntry{
	{"auto", int(MergeAuto)},
	{"none", int(MergeNone)},
	{"ward", int(MergeWard)},
	{"hkmeans", int(MergeHKMeans)},
}

// LUTPolicy selects the histogram bucketing strategy (§4.1). robinhood and
// hopscotch are accepted names that alias None — "open-addressed hash with
// no bucketing" — per §9.
type LUTPolicy = coretypes.LUTPolicy

const (
	LUTAuto    = coretypes.LUTAuto
	LUTFiveBit = coretypes.LUTFiveBit
	LUTSixBit  = coretypes.LUTSixBit
	LUTNone    = coretypes.LUTNone
	LUTCertLUT = coretypes.LUTCertLUT
)

var lutPolicyTable = []enumEntry{
	{"auto", int(LUTAuto)},
	{"5bit", int(LUTFiveBit)},
	{"6bit", int(LUTSixBit)},
	{"none", int(LUTNone)},
	{"certlut", int(LUTCertLUT)},
	{"robinhood", int(LUTNone)},
	{"hopscotch", int(LUTNone)},
}

type DiffusionMethod = coretypes.DiffusionMethod

const (
	DiffuseAuto     = coretypes.DiffuseAuto
	DiffuseNone     = coretypes.DiffuseNone
	DiffuseFS       = coretypes.DiffuseFS
	DiffuseAtkinson = coretypes.DiffuseAtkinson
	DiffuseJaJuNi   = coretypes.DiffuseJaJuNi
	DiffuseStucki   = coretypes.DiffuseStucki
	DiffuseBurkes   = coretypes.DiffuseBurkes
	DiffuseSierra1  = coretypes.DiffuseSierra1
	DiffuseSierra2  = coretypes.DiffuseSierra2
	DiffuseSierra3  = coretypes.DiffuseSierra3
	DiffuseADither  = coretypes.DiffuseADither
	DiffuseXDither  = coretypes.DiffuseXDither
	DiffuseLSO2     = coretypes.DiffuseLSO2
)

var diffusionTable = []enumEntry{
	{"auto", int(DiffuseAuto)},
	{"none", int(DiffuseNone)},
	{"fs", int(DiffuseFS)},
	{"atkinson", int(DiffuseAtkinson)},
	{"jajuni", int(DiffuseJaJuNi)},
	{"stucki", int(DiffuseStucki)},
	{"burkes", int(DiffuseBurkes)},
	{"sierra1", int(DiffuseSierra1)},
	{"sierra2", int(DiffuseSierra2)},
	{"sierra3", int(DiffuseSierra3)},
	{"a_dither", int(DiffuseADither)},
	{"x_dither", int(DiffuseXDither)},
	{"lso2", int(DiffuseLSO2)},
}

type ScanMethod = coretypes.ScanMethod

const (
	ScanAuto       = coretypes.ScanAuto
	ScanRaster     = coretypes.ScanRaster
	ScanSerpentine = coretypes.ScanSerpentine
)

var scanTable = []enumEntry{
	{"auto", int(ScanAuto)},
	{"raster", int(ScanRaster)},
	{"serpentine", int(ScanSerpentine)},
}

type CarryMethod = coretypes.CarryMethod

const (
	CarryAuto   = coretypes.CarryAuto
	CarryDirect = coretypes.CarryDirect
	CarryCarry  = coretypes.CarryCarry
)

var carryTable = []enumEntry{
	{"auto", int(CarryAuto)},
	{"direct", int(CarryDirect)},
	{"carry", int(CarryCarry)},
}

type FindLargest = coretypes.FindLargest

const (
	FindLargestAuto = coretypes.FindLargestAuto
	FindLargestNorm = coretypes.FindLargestNorm
	FindLargestLum  = coretypes.FindLargestLum
)

var findLargestTable = []enumEntry{
	{"auto", int(FindLargestAuto)},
	{"norm", int(FindLargestNorm)},
	{"lum", int(FindLargestLum)},
}

type SelectColor = coretypes.SelectColor

const (
	SelectAuto      = coretypes.SelectAuto
	SelectCenter    = coretypes.SelectCenter
	SelectAverage   = coretypes.SelectAverage
	SelectHistogram = coretypes.SelectHistogram
)

var selectColorTable = []enumEntry{
	{"auto", int(SelectAuto)},
	{"center", int(SelectCenter)},
	{"average", int(SelectAverage)},
	{"histogram", int(SelectHistogram)},
}

type EncodePolicy = coretypes.EncodePolicy

const (
	EncodeAuto = coretypes.EncodeAuto
	EncodeFast = coretypes.EncodeFast
	EncodeSize = coretypes.EncodeSize
)

var encodePolicyTable = []enumEntry{
	{"auto", int(EncodeAuto)},
	{"fast", int(EncodeFast)},
	{"size", int(EncodeSize)},
}

type PaletteType = coretypes.PaletteType

const (
	PaletteTypeAuto = coretypes.PaletteTypeAuto
	PaletteTypeHLS  = coretypes.PaletteTypeHLS
	PaletteTypeRGB  = coretypes.PaletteTypeRGB
)

var paletteTypeTable = []enumEntry{
	{"auto", int(PaletteTypeAuto)},
	{"hls", int(PaletteTypeHLS)},
	{"rgb", int(PaletteTypeRGB)},
}

type ResamplingFilter = coretypes.ResamplingFilter

const (
	ResampleNearest  = coretypes.ResampleNearest
	ResampleGaussian = coretypes.ResampleGaussian
	ResampleHanning  = coretypes.ResampleHanning
	ResampleHamming  = coretypes.ResampleHamming
	ResampleBilinear = coretypes.ResampleBilinear
	ResampleWelsh    = coretypes.ResampleWelsh
	ResampleBicubic  = coretypes.ResampleBicubic
	ResampleLanczos2 = coretypes.ResampleLanczos2
	ResampleLanczos3 = coretypes.ResampleLanczos3
	ResampleLanczos4 = coretypes.ResampleLanczos4
)

var resamplingTable = []enumEntry{
	{"nearest", int(ResampleNearest)},
	{"gaussian", int(ResampleGaussian)},
	{"hanning", int(ResampleHanning)},
	{"hamming", int(ResampleHamming)},
	{"bilinear", int(ResampleBilinear)},
	{"welsh", int(ResampleWelsh)},
	{"bicubic", int(ResampleBicubic)},
	{"lanczos2", int(ResampleLanczos2)},
	{"lanczos3", int(ResampleLanczos3)},
	{"lanczos4", int(ResampleLanczos4)},
}

var workingColorspaceTable = []enumEntry{
	{"gamma", int(ColorspaceGamma)},
	{"linear", int(ColorspaceLinear)},
	{"oklab", int(ColorspaceOklab)},
}

var outputColorspaceTable = []enumEntry{
	{"gamma", int(ColorspaceGamma)},
	{"linear", int(ColorspaceLinear)},
	{"smpte-c", int(ColorspaceSMPTEC)},
	{"smptec", int(ColorspaceSMPTEC)},
}

type LoopControl = coretypes.LoopControl

const (
	LoopAuto    = coretypes.LoopAuto
	LoopForce   = coretypes.LoopForce
	LoopDisable = coretypes.LoopDisable
)

var loopControlTable = []enumEntry{
	{"auto", int(LoopAuto)},
	{"force", int(LoopForce)},
	{"disable", int(LoopDisable)},
}

// --- geometry value -----------------------------------------------------

// GeometryUnit tags how a Width/Height numeric value should be interpreted.
type GeometryUnit int

const (
	UnitAuto GeometryUnit = iota // preserve aspect from the other axis
	UnitPixels
	UnitPercent
	UnitCells
)

// GeometryValue is one axis of a width/height option.
type GeometryValue struct {
	Unit  GeometryUnit
	Value int
}

func parseGeometryValue(s string) (GeometryValue, error) {
	if s == "" || s == "auto" {
		return GeometryValue{Unit: UnitAuto}, nil
	}
	unit := UnitPixels
	numPart := s
	switch {
	case strings.HasSuffix(s, "%"):
		unit = UnitPercent
		numPart = strings.TrimSuffix(s, "%")
	case strings.HasSuffix(s, "px"):
		unit = UnitPixels
		numPart = strings.TrimSuffix(s, "px")
	case strings.HasSuffix(s, "c"):
		unit = UnitCells
		numPart = strings.TrimSuffix(s, "c")
	}
	n, err := strconv.Atoi(numPart)
	if err != nil {
		return GeometryValue{}, newErr(BadArgument, "invalid geometry value %q", s)
	}
	return GeometryValue{Unit: unit, Value: n}, nil
}

// CropRect is a WxH+X+Y rectangle, clamped to frame bounds by Encoder (§4.4).
type CropRect struct {
	W, H, X, Y int
	Set        bool
}

func parseCropRect(s string) (CropRect, error) {
	// WxH+X+Y
	var r CropRect
	xi := strings.IndexAny(s, "+-")
	dims := s
	rest := ""
	if xi >= 0 {
		dims = s[:xi]
		rest = s[xi:]
	}
	wh := strings.SplitN(dims, "x", 2)
	if len(wh) != 2 {
		return r, newErr(BadArgument, "invalid crop spec %q", s)
	}
	w, err1 := strconv.Atoi(wh[0])
	h, err2 := strconv.Atoi(wh[1])
	if err1 != nil || err2 != nil {
		return r, newErr(BadArgument, "invalid crop spec %q", s)
	}
	x, y := 0, 0
	if rest != "" {
		// rest looks like +X+Y, +X-Y, -X+Y, -X-Y
		signs := []int{}
		nums := []string{}
		cur := strings.Builder{}
		for _, ch := range rest {
			if ch == '+' || ch == '-' {
				if cur.Len() > 0 {
					nums = append(nums, cur.String())
					cur.Reset()
				}
				if ch == '+' {
					signs = append(signs, 1)
				} else {
					signs = append(signs, -1)
				}
				continue
			}
			cur.WriteRune(ch)
		}
		if cur.Len() > 0 {
			nums = append(nums, cur.String())
		}
		if len(nums) != 2 || len(signs) != 2 {
			return r, newErr(BadArgument, "invalid crop spec %q", s)
		}
		xv, err1 := strconv.Atoi(nums[0])
		yv, err2 := strconv.Atoi(nums[1])
		if err1 != nil || err2 != nil {
			return r, newErr(BadArgument, "invalid crop spec %q", s)
		}
		x, y = signs[0]*xv, signs[1]*yv
	}
	r.W, r.H, r.X, r.Y, r.Set = w, h, x, y, true
	return r, nil
}

// --- EncoderConfig -------------------------------------------------------

// EncoderConfig is the enumerated settings struct of §3/§4.5. It is
// write-once per encode() call; mid-encode mutation is forbidden by the
// Encoder's state machine, not by this struct.
type EncoderConfig struct {
	// Pixel reduction
	Colors        int
	ForcePalette  bool
	QuantizeModel QuantizeModel
	FinalMerge    FinalMergeMode
	LUTPolicy     LUTPolicy

	// Dither
	Diffusion      DiffusionMethod
	DiffusionScan  ScanMethod
	DiffusionCarry CarryMethod
	OptimizePalette bool
	ComplexionScore int

	// Median cut
	FindLargest FindLargest
	SelectColor SelectColor

	// Output
	SevenBit      bool
	GRILimit      bool
	ORMode        bool
	EncodePolicy  EncodePolicy
	PaletteType   PaletteType
	MacroNumber   int
	UseMacro      bool
	Penetrate     bool // GNU Screen DCS passthrough

	// Geometry
	Width        GeometryValue
	Height       GeometryValue
	Crop         CropRect
	ClipFirst    bool
	Resampling   ResamplingFilter

	// Color
	WorkingColorspace Colorspace
	OutputColorspace  Colorspace
	BGColor           *[3]uint8
	Monochrome        bool
	HighColor         bool
	Invert            bool

	// MapPalette, when set, replaces PaletteBuilder's histogram/quantize
	// phases entirely: Encoder dithers straight onto these colors instead
	// of building a palette from the frame (`-m`/`--mapfile`, §6).
	MapPalette *Palette

	// Animation
	LoopControl LoopControl
	IgnoreDelay bool
	Static      bool

	// Concurrency
	Threads     int
	BandHeight  int
	BandOverlap int

	// Reproducibility
	Seed int64

	// Palette algorithm tunables (env-overridable, §6/§9)
	OversplitFactor           float64
	KMeansThreshold           float64
	KMeansIterMax             int
	MergeAdditionalLloydIter  int
	HKMeansIterMax            int
	HKMeansThreshold          float64
	LuminFactorR, LuminFactorG float64
}

// DefaultEncoderConfig returns the documented defaults, then applies the §6
// environment variables exactly once (§9 "Global environment reads").
func DefaultEncoderConfig() EncoderConfig {
	c := EncoderConfig{
		Colors:         256,
		QuantizeModel:  QuantizeAuto,
		FinalMerge:     MergeAuto,
		LUTPolicy:      LUTAuto,
		Diffusion:      DiffuseAuto,
		DiffusionScan:  ScanAuto,
		DiffusionCarry: CarryAuto,
		FindLargest:    FindLargestAuto,
		SelectColor:    SelectAuto,
		SevenBit:       true,
		EncodePolicy:   EncodeAuto,
		PaletteType:    PaletteTypeAuto,
		Resampling:     ResampleBilinear,
		WorkingColorspace: ColorspaceGamma,
		OutputColorspace:  ColorspaceGamma,
		LoopControl:    LoopAuto,
		Threads:        1,
		BandHeight:     64,
		BandOverlap:    4,
		Seed:           0,

		OversplitFactor:            1.81,
		KMeansThreshold:            0.125,
		KMeansIterMax:              20,
		MergeAdditionalLloydIter:   3,
		HKMeansIterMax:             20,
		HKMeansThreshold:           0.125,
		LuminFactorR:               0.299,
		LuminFactorG:               0.587,
	}
	c.Width = GeometryValue{Unit: UnitAuto}
	c.Height = GeometryValue{Unit: UnitAuto}
	c.applyEnvironment()
	return c
}

func (c *EncoderConfig) applyEnvironment() {
	if v := os.Getenv("SIXEL_BGCOLOR"); v != "" {
		if rgb, err := ParseColor(v); err == nil {
			c.BGColor = &rgb
		}
	}
	if v := os.Getenv("SIXEL_COLORS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Colors = n
		}
	}
	if v := os.Getenv("SIXEL_PALETTE_OVERSPLIT_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.OversplitFactor = f
		}
	}
	if v := os.Getenv("SIXEL_PALETTE_KMEANS_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.KMeansThreshold = f
		}
	}
	if v := os.Getenv("SIXEL_PALETTE_KMEANS_ITER_COUNT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.KMeansIterMax = n
		}
	}
	if v := os.Getenv("SIXEL_PALETTE_FINAL_MERGE_ADDITIONAL_LLOYD_ITER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MergeAdditionalLloydIter = n
		}
	}
	if v := os.Getenv("SIXEL_PALETTE_FINAL_MERGE_HKMEANS_ITER_COUNT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HKMeansIterMax = n
		}
	}
	if v := os.Getenv("SIXEL_PALETTE_FINAL_MERGE_HKMEANS_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.HKMeansThreshold = f
		}
	}
	if v := os.Getenv("SIXEL_PALETTE_LUMIN_FACTOR_R"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.LuminFactorR = f
		}
	}
	if v := os.Getenv("SIXEL_PALETTE_LUMIN_FACTOR_G"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.LuminFactorG = f
		}
	}
	if v := os.Getenv("SIXEL_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Threads = n
		}
	}
}

// SetOpt is the Options component's single validating entry point (§4.4,
// §4.5). flag is the option's canonical name (exact match only — only
// values are prefix-matched, see §8 invariant 8); value is the raw string.
func (c *EncoderConfig) SetOpt(flag, value string) error {
	switch flag {
	case "colors":
		v := strings.TrimSuffix(value, "!")
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 256 {
			return newErr(BadArgument, "colors must be 1..256, got %q", value)
		}
		c.Colors = n
		c.ForcePalette = strings.HasSuffix(value, "!")
	case "quantize_model":
		v, err := matchEnum(quantizeModelTable, value)
		if err != nil {
			return err
		}
		c.QuantizeModel = QuantizeModel(v)
	case "final_merge":
		v, err := matchEnum(finalMergeTable, value)
		if err != nil {
			return err
		}
		c.FinalMerge = FinalMergeMode(v)
	case "lut_policy":
		v, err := matchEnum(lutPolicyTable, value)
		if err != nil {
			return err
		}
		c.LUTPolicy = LUTPolicy(v)
	case "diffusion":
		v, err := matchEnum(diffusionTable, value)
		if err != nil {
			return err
		}
		c.Diffusion = DiffusionMethod(v)
	case "diffusion_scan":
		v, err := matchEnum(scanTable, value)
		if err != nil {
			return err
		}
		c.DiffusionScan = ScanMethod(v)
	case "diffusion_carry":
		v, err := matchEnum(carryTable, value)
		if err != nil {
			return err
		}
		c.DiffusionCarry = CarryMethod(v)
	case "find_largest":
		v, err := matchEnum(findLargestTable, value)
		if err != nil {
			return err
		}
		c.FindLargest = FindLargest(v)
	case "select_color":
		v, err := matchEnum(selectColorTable, value)
		if err != nil {
			return err
		}
		c.SelectColor = SelectColor(v)
	case "encode_policy":
		v, err := matchEnum(encodePolicyTable, value)
		if err != nil {
			return err
		}
		c.EncodePolicy = EncodePolicy(v)
	case "palette_type":
		v, err := matchEnum(paletteTypeTable, value)
		if err != nil {
			return err
		}
		c.PaletteType = PaletteType(v)
	case "resampling":
		v, err := matchEnum(resamplingTable, value)
		if err != nil {
			return err
		}
		c.Resampling = ResamplingFilter(v)
	case "working_colorspace":
		v, err := matchEnum(workingColorspaceTable, value)
		if err != nil {
			return err
		}
		c.WorkingColorspace = Colorspace(v)
	case "output_colorspace":
		v, err := matchEnum(outputColorspaceTable, value)
		if err != nil {
			return err
		}
		c.OutputColorspace = Colorspace(v)
	case "loop_control":
		v, err := matchEnum(loopControlTable, value)
		if err != nil {
			return err
		}
		c.LoopControl = LoopControl(v)
	case "width":
		v, err := parseGeometryValue(value)
		if err != nil {
			return err
		}
		c.Width = v
	case "height":
		v, err := parseGeometryValue(value)
		if err != nil {
			return err
		}
		c.Height = v
	case "crop":
		v, err := parseCropRect(value)
		if err != nil {
			return err
		}
		c.Crop = v
	case "bgcolor":
		rgb, err := ParseColor(value)
		if err != nil {
			return err
		}
		c.BGColor = &rgb
	case "7bit":
		c.SevenBit = true
	case "8bit":
		c.SevenBit = false
	case "gri_limit":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return newErr(BadArgument, "gri_limit must be a bool, got %q", value)
		}
		c.GRILimit = b
	case "ormode":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return newErr(BadArgument, "ormode must be a bool, got %q", value)
		}
		c.ORMode = b
	case "macro_number":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return newErr(BadArgument, "macro_number must be >= 0, got %q", value)
		}
		c.MacroNumber = n
	case "use_macro":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return newErr(BadArgument, "use_macro must be a bool, got %q", value)
		}
		c.UseMacro = b
	case "penetrate":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return newErr(BadArgument, "penetrate must be a bool, got %q", value)
		}
		c.Penetrate = b
	case "optimize_palette":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return newErr(BadArgument, "optimize_palette must be a bool, got %q", value)
		}
		c.OptimizePalette = b
	case "complexion_score":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return newErr(BadArgument, "complexion_score must be >= 0, got %q", value)
		}
		c.ComplexionScore = n
	case "clip_first":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return newErr(BadArgument, "clip_first must be a bool, got %q", value)
		}
		c.ClipFirst = b
	case "monochrome":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return newErr(BadArgument, "monochrome must be a bool, got %q", value)
		}
		c.Monochrome = b
	case "high_color":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return newErr(BadArgument, "high_color must be a bool, got %q", value)
		}
		c.HighColor = b
	case "invert":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return newErr(BadArgument, "invert must be a bool, got %q", value)
		}
		c.Invert = b
	case "ignore_delay":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return newErr(BadArgument, "ignore_delay must be a bool, got %q", value)
		}
		c.IgnoreDelay = b
	case "static":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return newErr(BadArgument, "static must be a bool, got %q", value)
		}
		c.Static = b
	case "threads":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return newErr(BadArgument, "threads must be >= 1, got %q", value)
		}
		c.Threads = n
	case "seed":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return newErr(BadArgument, "seed must be an integer, got %q", value)
		}
		c.Seed = n
	default:
		return newErr(BadArgument, "unknown option %q", flag)
	}
	return nil
}
