package fiscal

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // декодирование JPG
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// Ширина печати в точках
const (
	Dots58mm = 384
	Dots80mm = 576
)

// rasterThreshold порог бинаризации (0..255)
const rasterThreshold = 128

// PrepareRaster читает изображение, уменьшает до maxWidth с сохранением
// пропорций, переводит в 1-битный PNG и возвращает base64 для PrintRaster.
func PrepareRaster(r io.Reader, maxWidth int) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("ошибка декодирования изображения: %w", err)
	}
	if maxWidth <= 0 {
		maxWidth = Dots58mm
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return "", fmt.Errorf("пустое изображение")
	}
	if width > maxWidth {
		height = height * maxWidth / width
		width = maxWidth
		if height == 0 {
			height = 1
		}
	}

	gray := image.NewGray(image.Rect(0, 0, width, height))
	// Белая подложка, чтобы прозрачные области не стали чёрными
	draw.Draw(gray, gray.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(gray, gray.Bounds(), img, bounds, draw.Over, nil)

	mono := image.NewPaletted(gray.Bounds(), color.Palette{color.Black, color.White})
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if gray.GrayAt(x, y).Y > rasterThreshold {
				mono.SetColorIndex(x, y, 1)
			} else {
				mono.SetColorIndex(x, y, 0)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, mono); err != nil {
		return "", fmt.Errorf("ошибка кодирования PNG: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
