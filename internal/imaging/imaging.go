// Package imaging renders the 1200x630 cover image for an article as vertical
// color bands derived from the hero message.
package imaging

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"autopress/internal/config"
	"autopress/internal/planner"
	"autopress/internal/store"
)

const (
	coverWidth  = 1200
	coverHeight = 630
	bandCount   = 5
)

// basePalette anchors the cover look; the title hash rotates and shades it so
// every article gets a distinct but on-brand cover.
var basePalette = [bandCount]color.RGBA{
	{R: 24, G: 92, B: 167, A: 255},
	{R: 5, G: 128, B: 176, A: 255},
	{R: 28, G: 52, B: 84, A: 255},
	{R: 92, G: 61, B: 147, A: 255},
	{R: 25, G: 102, B: 52, A: 255},
}

// Generator writes cover assets into the configured assets directory.
type Generator struct {
	assetsDir string
}

// New constructs a Generator for the configured assets directory.
func New(cfg *config.Config) *Generator {
	return &Generator{assetsDir: cfg.Paths.AssetsDir}
}

// GenerateCover renders the cover PNG and returns its asset record. The
// filename is derived from the hero message, so reprocessing a lead
// overwrites the previous cover instead of piling up files.
func (g *Generator) GenerateCover(lead *store.Lead, plan *planner.ContentPlan) (*store.ImageAsset, error) {
	if err := os.MkdirAll(g.assetsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create assets dir: %w", err)
	}

	seed := titleSeed(plan.HeroMessage)
	img := renderBands(seed)

	filename := fmt.Sprintf("cover-%08x.png", seed)
	path := filepath.Join(g.assetsDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cover file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return nil, fmt.Errorf("encode cover: %w", err)
	}

	hero := []rune(plan.HeroMessage)
	if len(hero) > 30 {
		hero = hero[:30]
	}
	return &store.ImageAsset{
		LeadID:  lead.ID,
		Kind:    "cover",
		Path:    filename,
		AltText: fmt.Sprintf("抽象旅行主题封面图，标题：%s", string(hero)),
		Width:   coverWidth,
		Height:  coverHeight,
	}, nil
}

// FullPath resolves an asset record's path inside the assets directory.
func (g *Generator) FullPath(asset *store.ImageAsset) string {
	return filepath.Join(g.assetsDir, asset.Path)
}

func titleSeed(title string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(title))
	return h.Sum32()
}

func renderBands(seed uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, coverWidth, coverHeight))
	bandWidth := coverWidth / bandCount
	for band := 0; band < bandCount; band++ {
		shade := shadeColor(basePalette[(band+int(seed)%bandCount)%bandCount], seed>>(uint(band)%8))
		x0 := band * bandWidth
		x1 := x0 + bandWidth
		if band == bandCount-1 {
			x1 = coverWidth
		}
		for x := x0; x < x1; x++ {
			for y := 0; y < coverHeight; y++ {
				img.SetRGBA(x, y, shade)
			}
		}
	}
	return img
}

func shadeColor(base color.RGBA, seed uint32) color.RGBA {
	adjust := func(channel uint8, delta uint32) uint8 {
		value := int(channel) + int(delta%48) - 24
		if value < 0 {
			value = 0
		}
		if value > 255 {
			value = 255
		}
		return uint8(value)
	}
	return color.RGBA{
		R: adjust(base.R, seed),
		G: adjust(base.G, seed>>8),
		B: adjust(base.B, seed>>16),
		A: 255,
	}
}
