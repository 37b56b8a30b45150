// Package captcha renders arithmetic challenges into image files inside the
// module cache directory.
package captcha

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Encoder writes an image in one file format.
type Encoder struct {
	Ext    string
	Encode func(w io.Writer, m image.Image) error
}

// DefaultEncoders lists the supported formats in order of preference.
var DefaultEncoders = []Encoder{
	{Ext: "png", Encode: png.Encode},
	{Ext: "jpg", Encode: func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, &jpeg.Options{Quality: 90}) }},
	{Ext: "gif", Encode: func(w io.Writer, m image.Image) error { return gif.Encode(w, m, nil) }},
}

// ErrNoEncoder is returned when none of the configured encoders works.
var ErrNoEncoder = errors.New("captcha: no usable image encoder")

var imageExts = map[string]bool{".gif": true, ".png": true, ".jpg": true, ".jpeg": true}

// IsImageFile reports whether name is a plain file name with an image
// extension. Only such files may be served from the cache directory.
func IsImageFile(name string) bool {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return false
	}
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Challenge is a rendered arithmetic question.
type Challenge struct {
	Question string
	Answer   int
	File     string
}

// Generator creates challenges in Dir.
type Generator struct {
	Dir      string
	Encoders []Encoder
	intN     func(n int) int
}

// NewGenerator returns a Generator writing into dir with the default encoders.
func NewGenerator(dir string) *Generator {
	return &Generator{Dir: dir, Encoders: DefaultEncoders, intN: rand.IntN}
}

// New draws a random challenge and renders it with the first working encoder.
func (g *Generator) New() (*Challenge, error) {
	a, b := g.intN(9)+1, g.intN(9)+1
	var op byte
	var answer int
	switch g.intN(3) {
	case 0:
		op, answer = '+', a+b
	case 1:
		if a < b {
			a, b = b, a
		}
		op, answer = '-', a-b
	default:
		op, answer = '*', a*b
	}
	question := fmt.Sprintf("%d %c %d =", a, op, b)

	img := Render(question)
	for _, enc := range g.Encoders {
		var buf bytes.Buffer
		if err := enc.Encode(&buf, img); err != nil {
			continue
		}
		name := uuid.NewString() + "." + enc.Ext
		if err := os.WriteFile(filepath.Join(g.Dir, name), buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("captcha: write %s: %w", name, err)
		}
		return &Challenge{Question: question, Answer: answer, File: name}, nil
	}
	return nil, ErrNoEncoder
}

// Verify compares the visitor's input with the expected answer.
func Verify(expected int, input string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	return err == nil && n == expected
}

// Glyph geometry in pixels.
const (
	glyphW  = 14
	glyphH  = 24
	stroke  = 3
	spacing = 6
	padding = 8
)

// segments of a seven-segment digit: a top, b upper right, c lower right,
// d bottom, e lower left, f upper left, g middle.
var digitSegments = map[byte]string{
	'0': "abcdef", '1': "bc", '2': "abged", '3': "abgcd", '4': "fgbc",
	'5': "afgcd", '6': "afgedc", '7': "abc", '8': "abcdefg", '9': "abcdfg",
}

var (
	background = color.RGBA{R: 0xf4, G: 0xf4, B: 0xf4, A: 0xff}
	foreground = color.RGBA{R: 0x33, G: 0x33, B: 0x66, A: 0xff}
)

// Render draws text (digits, '+', '-', '*', '=' and spaces) as an image.
func Render(text string) *image.RGBA {
	w := 2*padding + len(text)*(glyphW+spacing)
	h := 2*padding + glyphH
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), background)

	x := padding
	for i := 0; i < len(text); i++ {
		drawGlyph(img, text[i], x, padding)
		x += glyphW + spacing
	}
	return img
}

func drawGlyph(img *image.RGBA, c byte, x, y int) {
	mid := y + glyphH/2 - stroke/2
	switch c {
	case '+':
		fill(img, image.Rect(x+2, mid, x+glyphW-2, mid+stroke), foreground)
		cx := x + glyphW/2 - stroke/2
		fill(img, image.Rect(cx, mid-5, cx+stroke, mid+stroke+5), foreground)
	case '-':
		fill(img, image.Rect(x+2, mid, x+glyphW-2, mid+stroke), foreground)
	case '*':
		cx := x + glyphW/2
		fill(img, image.Rect(cx-stroke, mid-1, cx+stroke, mid+stroke+1), foreground)
	case '=':
		fill(img, image.Rect(x+2, mid-4, x+glyphW-2, mid-4+stroke), foreground)
		fill(img, image.Rect(x+2, mid+4, x+glyphW-2, mid+4+stroke), foreground)
	default:
		for _, s := range digitSegments[c] {
			fill(img, segmentRect(byte(s), x, y), foreground)
		}
	}
}

func segmentRect(s byte, x, y int) image.Rectangle {
	half := glyphH / 2
	switch s {
	case 'a':
		return image.Rect(x, y, x+glyphW, y+stroke)
	case 'b':
		return image.Rect(x+glyphW-stroke, y, x+glyphW, y+half)
	case 'c':
		return image.Rect(x+glyphW-stroke, y+half, x+glyphW, y+glyphH)
	case 'd':
		return image.Rect(x, y+glyphH-stroke, x+glyphW, y+glyphH)
	case 'e':
		return image.Rect(x, y+half, x+stroke, y+glyphH)
	case 'f':
		return image.Rect(x, y, x+stroke, y+half)
	default: // g
		return image.Rect(x, y+half-stroke/2, x+glyphW, y+half-stroke/2+stroke)
	}
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}
