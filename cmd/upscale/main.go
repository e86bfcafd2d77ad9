// Command upscale runs a still image through an Anime4K processing chain on
// the GPU and writes the result as PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	anime4k "github.com/SegaraRai/anime4k-wgpu"
	"github.com/SegaraRai/anime4k-wgpu/engine"
	"github.com/SegaraRai/anime4k-wgpu/pipelines"
)

func main() {
	var (
		input   = flag.String("input", "", "input image (png, jpeg, gif, bmp, tiff, webp)")
		output  = flag.String("output", "out.png", "output file")
		preset  = flag.String("preset", "A", "preset: off, A, AA, B, BB, C, CA")
		tier    = flag.String("tier", "medium", "performance tier: light, medium, high, ultra, extreme")
		scale   = flag.Float64("scale", 2.0, "target scale factor")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		anime4k.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	p, err := parsePreset(*preset)
	if err != nil {
		log.Fatalf("Invalid preset: %v", err)
	}
	t, err := parseTier(*tier)
	if err != nil {
		log.Fatalf("Invalid tier: %v", err)
	}
	if *scale < 1.0 {
		log.Fatalf("Invalid scale %g: must be >= 1", *scale)
	}

	src, err := loadImage(*input)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *input, err)
	}
	bounds := src.Bounds()
	width := uint32(bounds.Dx())
	height := uint32(bounds.Dy())

	eng, err := engine.NewStandalone()
	if err != nil {
		log.Fatalf("Failed to initialize GPU: %v", err)
	}
	defer eng.Close()

	frame, err := eng.CreateFrameTexture(width, height)
	if err != nil {
		log.Fatalf("Failed to create frame texture: %v", err)
	}
	defer frame.Destroy()
	if err := frame.Write(imageToFloats(src)); err != nil {
		log.Fatalf("Failed to upload frame: %v", err)
	}

	stages := anime4k.ComposeStages(p, t, *scale)
	chain, err := pipelines.ResolveStages(stages)
	if err != nil {
		log.Fatalf("Failed to resolve stages: %v", err)
	}

	ex, err := eng.NewExecutor(chain, frame.Frame())
	if err != nil {
		log.Fatalf("Failed to bind pipelines: %v", err)
	}
	defer ex.Destroy()

	if err := ex.Render(); err != nil {
		log.Fatalf("Render failed: %v", err)
	}

	out := ex.Output()
	pixels, err := eng.ReadFrame(out)
	if err != nil {
		log.Fatalf("Failed to read result: %v", err)
	}
	result := floatsToImage(pixels, out.Width, out.Height)

	// The chain upscales in 2x steps and may overshoot a fractional target;
	// resample down to the exact requested size.
	targetW := int(math.Round(float64(width) * *scale))
	targetH := int(math.Round(float64(height) * *scale))
	if result.Bounds().Dx() != targetW || result.Bounds().Dy() != targetH {
		resized := image.NewNRGBA(image.Rect(0, 0, targetW, targetH))
		draw.CatmullRom.Scale(resized, resized.Bounds(), result, result.Bounds(), draw.Over, nil)
		result = resized
	}

	if err := savePNG(*output, result); err != nil {
		log.Fatalf("Failed to save %s: %v", *output, err)
	}
	log.Printf("%s: %dx%d -> %s: %dx%d (%s, %s tier, %d stages)\n",
		*input, width, height, *output, targetW, targetH, p, t, len(stages))
}

func parsePreset(s string) (anime4k.Preset, error) {
	switch strings.ToUpper(s) {
	case "OFF":
		return anime4k.PresetOff, nil
	case "A":
		return anime4k.PresetModeA, nil
	case "AA":
		return anime4k.PresetModeAA, nil
	case "B":
		return anime4k.PresetModeB, nil
	case "BB":
		return anime4k.PresetModeBB, nil
	case "C":
		return anime4k.PresetModeC, nil
	case "CA":
		return anime4k.PresetModeCA, nil
	default:
		return 0, fmt.Errorf("unknown preset %q", s)
	}
}

func parseTier(s string) (anime4k.PerformanceTier, error) {
	switch strings.ToLower(s) {
	case "light":
		return anime4k.TierLight, nil
	case "medium":
		return anime4k.TierMedium, nil
	case "high":
		return anime4k.TierHigh, nil
	case "ultra":
		return anime4k.TierUltra, nil
	case "extreme":
		return anime4k.TierExtreme, nil
	default:
		return 0, fmt.Errorf("unknown tier %q", s)
	}
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// imageToFloats converts an image to row-major RGBA floats in [0, 1].
func imageToFloats(img image.Image) []float32 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]float32, w*h*4)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			pixels[i] = float32(r) / 0xffff
			pixels[i+1] = float32(g) / 0xffff
			pixels[i+2] = float32(b) / 0xffff
			pixels[i+3] = float32(a) / 0xffff
			i += 4
		}
	}
	return pixels
}

// floatsToImage converts row-major RGBA floats back to an 8-bit image,
// clamping to [0, 1].
func floatsToImage(pixels []float32, width, height uint32) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	i := 0
	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: toByte(pixels[i]),
				G: toByte(pixels[i+1]),
				B: toByte(pixels[i+2]),
				A: toByte(pixels[i+3]),
			})
			i += 4
		}
	}
	return img
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
