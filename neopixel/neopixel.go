// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package neopixel drives a WS2812 (NeoPixel) strip attached to a Seesaw
// device. The Seesaw firmware keeps the pixel buffer and generates the
// waveform on one of its pins; the host only uploads colour bytes and asks
// for them to be shown.
//
// # Notes
//
// Brightness is applied when a pixel is uploaded. Changing it does not
// rescale pixels already in the device buffer until they are written again.
package neopixel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/GermanBionicSystems/neokey/seesaw"
	"periph.io/x/conn/v3/display"
)

const (
	_NEOPIXEL_PIN        byte = 0x01
	_NEOPIXEL_BUF_LENGTH byte = 0x03
	_NEOPIXEL_BUF        byte = 0x04
	_NEOPIXEL_SHOW       byte = 0x05

	// The firmware accepts at most 32 bytes after the register address, two
	// of which are the buffer offset.
	maxChunk = 30
)

var (
	ErrIndex       = errors.New("neopixel: pixel index out of range")
	ErrInvalidData = errors.New("neopixel: invalid RGB stream length")
)

// Order is the order in which colour channels are sent to the pixels.
type Order string

const (
	RGB  Order = "RGB"
	GRB  Order = "GRB"
	RGBW Order = "RGBW"
	GRBW Order = "GRBW"
)

// offsets returns the byte offset of the red, green, blue and white channels.
func (o Order) offsets() ([]int, error) {
	switch o {
	case RGB:
		return []int{0, 1, 2}, nil
	case GRB:
		return []int{1, 0, 2}, nil
	case RGBW:
		return []int{0, 1, 2, 3}, nil
	case GRBW:
		return []int{1, 0, 2, 3}, nil
	}
	return nil, fmt.Errorf("neopixel: unknown pixel order %q", string(o))
}

// Writer is the register access needed to drive the strip. *seesaw.Dev
// implements it.
type Writer interface {
	Write(base, fn byte, payload []byte) error
}

// Opts defines the options for the strip.
type Opts struct {
	// Pin is the Seesaw pin the strip data line is attached to.
	Pin byte
	// NumPixels is the number of pixels on the strip.
	NumPixels int
	// Brightness scales every channel, from 0 to 1.
	Brightness float64
	// Order defaults to GRB.
	Order Order
	// AutoWrite shows the strip after every change.
	AutoWrite bool
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	NumPixels:  1,
	Brightness: 1,
	Order:      GRB,
	AutoWrite:  true,
}

// Dev is a NeoPixel strip. It is not safe for concurrent use.
type Dev struct {
	w          Writer
	pin        byte
	order      Order
	offsets    []int
	bpp        int
	brightness float64
	autoWrite  bool
	pixels     []color.NRGBA
}

// New configures the Seesaw NeoPixel module for the strip and returns it.
func New(w Writer, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.NumPixels <= 0 {
		return nil, fmt.Errorf("neopixel: invalid pixel count %d", opts.NumPixels)
	}
	order := opts.Order
	if order == "" {
		order = GRB
	}
	offsets, err := order.offsets()
	if err != nil {
		return nil, err
	}
	d := &Dev{
		w:          w,
		pin:        opts.Pin,
		order:      order,
		offsets:    offsets,
		bpp:        len(offsets),
		brightness: clamp(opts.Brightness),
		autoWrite:  opts.AutoWrite,
		pixels:     make([]color.NRGBA, opts.NumPixels),
	}
	if err := w.Write(seesaw.NeoPixelBase, _NEOPIXEL_PIN, []byte{d.pin}); err != nil {
		return nil, err
	}
	length := make([]byte, 2)
	binary.BigEndian.PutUint16(length, uint16(opts.NumPixels*d.bpp))
	if err := w.Write(seesaw.NeoPixelBase, _NEOPIXEL_BUF_LENGTH, length); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("NeoPixel{pin: %d, pixels: %d, order: %s}", d.pin, len(d.pixels), d.order)
}

// Len returns the number of pixels.
func (d *Dev) Len() int {
	return len(d.pixels)
}

// Brightness returns the current brightness, from 0 to 1.
func (d *Dev) Brightness() float64 {
	return d.brightness
}

// SetBrightness sets the brightness used for subsequent pixel writes.
func (d *Dev) SetBrightness(b float64) error {
	d.brightness = clamp(b)
	if d.autoWrite {
		return d.Show()
	}
	return nil
}

// Pixels returns a copy of the colours last set, before brightness scaling.
func (d *Dev) Pixels() []color.NRGBA {
	p := make([]color.NRGBA, len(d.pixels))
	copy(p, d.pixels)
	return p
}

// SetPixel sets the colour of pixel i. Negative values of i count from the
// end of the strip.
func (d *Dev) SetPixel(i int, c color.Color) error {
	if i < 0 {
		i += len(d.pixels)
	}
	if i < 0 || i >= len(d.pixels) {
		return fmt.Errorf("%w: %d", ErrIndex, i)
	}
	d.pixels[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
	if err := d.upload(i, i+1); err != nil {
		return err
	}
	if d.autoWrite {
		return d.Show()
	}
	return nil
}

// Fill sets every pixel to the same colour. The strip is shown once at the
// end when AutoWrite is set.
func (d *Dev) Fill(c color.Color) error {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	for i := range d.pixels {
		d.pixels[i] = nc
		if err := d.upload(i, i+1); err != nil {
			return err
		}
	}
	if d.autoWrite {
		return d.Show()
	}
	return nil
}

// Show latches the device buffer onto the strip.
func (d *Dev) Show() error {
	return d.w.Write(seesaw.NeoPixelBase, _NEOPIXEL_SHOW, nil)
}

// Write accepts a stream of raw RGB pixels, uploads and shows them.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels)%3 != 0 {
		return 0, ErrInvalidData
	}
	n := len(pixels) / 3
	if n > len(d.pixels) {
		n = len(d.pixels)
	}
	for i := range n {
		d.pixels[i] = color.NRGBA{R: pixels[3*i], G: pixels[3*i+1], B: pixels[3*i+2], A: 0xff}
	}
	if err := d.upload(0, n); err != nil {
		return 0, err
	}
	return 3 * n, d.Show()
}

// Halt implements conn.Resource.
//
// It turns all pixels off.
func (d *Dev) Halt() error {
	for i := range d.pixels {
		d.pixels[i] = color.NRGBA{}
	}
	if err := d.upload(0, len(d.pixels)); err != nil {
		return err
	}
	return d.Show()
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: len(d.pixels), Y: 1}}
}

// Draw implements display.Drawer.
//
// Only the first row of r is used. The strip is always shown afterwards.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	if r.Empty() {
		return nil
	}
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	deltaX := r.Min.X - srcR.Min.X
	for sX := srcR.Min.X; sX < srcR.Max.X; sX++ {
		d.pixels[sX+deltaX] = color.NRGBAModel.Convert(src.At(sX, srcR.Min.Y)).(color.NRGBA)
	}
	if err := d.upload(r.Min.X, r.Min.X+srcR.Dx()); err != nil {
		return err
	}
	return d.Show()
}

// upload writes pixels [from, to) to the device buffer.
func (d *Dev) upload(from, to int) error {
	if to <= from {
		return nil
	}
	data := make([]byte, (to-from)*d.bpp)
	for i := from; i < to; i++ {
		d.encode(data[(i-from)*d.bpp:], d.pixels[i])
	}
	offset := from * d.bpp
	for len(data) > 0 {
		n := len(data)
		if n > maxChunk {
			n = maxChunk
		}
		cmd := make([]byte, 2+n)
		binary.BigEndian.PutUint16(cmd, uint16(offset))
		copy(cmd[2:], data[:n])
		if err := d.w.Write(seesaw.NeoPixelBase, _NEOPIXEL_BUF, cmd); err != nil {
			return err
		}
		data = data[n:]
		offset += n
	}
	return nil
}

// encode stores c in b in the strip channel order.
func (d *Dev) encode(b []byte, c color.NRGBA) {
	r, g, bl, w := c.R, c.G, c.B, byte(0)
	// Greys are sent to the white channel when there is one.
	if d.bpp == 4 && r == g && g == bl {
		r, g, bl, w = 0, 0, 0, r
	}
	if d.brightness < 0.99 {
		r = byte(float64(r) * d.brightness)
		g = byte(float64(g) * d.brightness)
		bl = byte(float64(bl) * d.brightness)
		w = byte(float64(w) * d.brightness)
	}
	b[d.offsets[0]] = r
	b[d.offsets[1]] = g
	b[d.offsets[2]] = bl
	if d.bpp == 4 {
		b[d.offsets[3]] = w
	}
}

func clamp(b float64) float64 {
	if b < 0 {
		return 0
	}
	if b > 1 {
		return 1
	}
	return b
}

var _ display.Drawer = &Dev{}
