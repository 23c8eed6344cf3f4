package attachments

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"

	_ "image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// jpegQuality is the encode quality of the consolidated image.
const jpegQuality = 90

// StackVertically merges the images at paths into a single image written to
// outPath. The canvas is as wide as the widest input and as tall as the sum
// of input heights; each input is pasted left-aligned at the running vertical
// offset. Inputs narrower than the canvas are not centered.
//
// Any decode or IO failure aborts the merge; no partial output file is
// guaranteed consistent.
func StackVertically(paths []string, outPath string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no images to combine")
	}

	imgs := make([]image.Image, 0, len(paths))
	width, height := 0, 0
	for _, p := range paths {
		img, err := decodeImage(p)
		if err != nil {
			return "", err
		}
		if w := img.Bounds().Dx(); w > width {
			width = w
		}
		height += img.Bounds().Dy()
		imgs = append(imgs, img)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	y := 0
	for _, img := range imgs {
		draw.Copy(canvas, image.Pt(0, y), img, img.Bounds(), draw.Src, nil)
		y += img.Bounds().Dy()
	}

	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create combined image: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode combined image: %w", err)
	}

	log.Debug().
		Int("inputs", len(paths)).
		Int("width", width).
		Int("height", height).
		Str("path", outPath).
		Msg("Combined attachment images")

	return outPath, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
