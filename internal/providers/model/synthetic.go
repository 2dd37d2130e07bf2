package model

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"sceneforge/internal/domain"
)

// SyntheticModel is the model name reported by the offline backend.
const SyntheticModel = "synthetic-v1"

// SyntheticAdapter renders a deterministic striped PNG from the prompt and source bytes.
// It needs no network and backs local runs and tests.
type SyntheticAdapter struct {
	Width  int
	Height int
}

func NewSyntheticAdapter() *SyntheticAdapter {
	return &SyntheticAdapter{Width: 512, Height: 512}
}

func (a *SyntheticAdapter) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewUpstreamError("synthetic", domain.UpstreamNetwork, err)
	}
	seed := deterministicSeed(req.Prompt, req.Image)
	data, err := renderSyntheticImage(a.Width, a.Height, seed)
	if err != nil {
		return nil, domain.NewUpstreamError("synthetic", domain.UpstreamMalformed, err)
	}
	return &Result{
		Text:   "synthetic render " + seed,
		Images: []domain.GeneratedImage{{MimeType: "image/png", Data: data}},
		Model:  SyntheticModel,
	}, nil
}

func renderSyntheticImage(width, height int, seed string) ([]byte, error) {
	if width <= 0 {
		width = 512
	}
	if height <= 0 {
		height = 512
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorFromSeed(seed, 0)}, image.Point{}, draw.Src)

	accent := colorFromSeed(seed, 1)
	stripeHeight := max(16, height/12)
	for y := 0; y < height; y += stripeHeight * 2 {
		stripe := image.Rect(0, y, width, min(height, y+stripeHeight))
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	diagonal := colorFromSeed(seed, 2)
	for x := 0; x < width; x += max(16, width/32) {
		for y := 0; y < height && x+y < width; y++ {
			img.Set(x+y, y, diagonal)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func colorFromSeed(seed string, shift int) color.RGBA {
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{R: hexByte(segment[0:2]), G: hexByte(segment[2:4]), B: hexByte(segment[4:6]), A: 255}
}

func hexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func deterministicSeed(prompt string, image []byte) string {
	h := sha256.New()
	h.Write([]byte(prompt))
	h.Write([]byte{'|'})
	h.Write(image)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

var _ Adapter = (*SyntheticAdapter)(nil)
