package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// GifPath is the canonical location of a pending upload's backing file.
func GifPath(dir, uuid string) string {
	return filepath.Join(dir, uuid+".gif")
}

// ExtractFrames decodes an animated GIF and returns one fully composited image
// per frame. Frames with partial bounds are drawn over the accumulated canvas
// so OCR always sees the complete picture.
func ExtractFrames(data []byte) ([]image.Image, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif contains no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)

	frames := make([]image.Image, 0, len(g.Image))
	for _, src := range g.Image {
		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)
		frame := image.NewRGBA(bounds)
		draw.Draw(frame, bounds, canvas, bounds.Min, draw.Src)
		frames = append(frames, frame)
	}
	return frames, nil
}

// Thumbnail re-encodes the GIF as an animated thumbnail whose frames fit
// within maxSize×maxSize, preserving per-frame delays and the loop count.
func Thumbnail(data []byte, maxSize int) ([]byte, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode gif: %w", err)
	}

	frames, err := ExtractFrames(data)
	if err != nil {
		return nil, err
	}

	out := &gif.GIF{LoopCount: g.LoopCount}
	for i, frame := range frames {
		small := imaging.Fit(frame, maxSize, maxSize, imaging.Lanczos)
		paletted := image.NewPaletted(small.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, small.Bounds(), small, image.Point{})

		out.Image = append(out.Image, paletted)
		if i < len(g.Delay) {
			out.Delay = append(out.Delay, g.Delay[i])
		} else {
			out.Delay = append(out.Delay, 0)
		}
	}
	out.Config = image.Config{
		Width:  out.Image[0].Bounds().Dx(),
		Height: out.Image[0].Bounds().Dy(),
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail gif: %w", err)
	}
	return buf.Bytes(), nil
}
