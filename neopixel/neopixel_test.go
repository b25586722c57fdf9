// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package neopixel

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type record struct {
	Fn      byte
	Payload []byte
}

// recorder captures the register writes issued to the NeoPixel module.
type recorder struct {
	ops []record
	err error
}

func (r *recorder) Write(base, fn byte, payload []byte) error {
	if base != 0x0e {
		return errors.New("unexpected module base")
	}
	if r.err != nil {
		return r.err
	}
	r.ops = append(r.ops, record{Fn: fn, Payload: append([]byte(nil), payload...)})
	return nil
}

func (r *recorder) check(t *testing.T, want []record) {
	t.Helper()
	if diff := cmp.Diff(want, r.ops, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
	r.ops = nil
}

func show() record {
	return record{Fn: _NEOPIXEL_SHOW}
}

func newStrip(t *testing.T, opts *Opts) (*Dev, *recorder) {
	rec := &recorder{}
	d, err := New(rec, opts)
	if err != nil {
		t.Fatal(err)
	}
	return d, rec
}

func TestNew(t *testing.T) {
	d, rec := newStrip(t, &Opts{Pin: 3, NumPixels: 4, Brightness: 0.2, Order: GRB, AutoWrite: true})
	rec.check(t, []record{
		{Fn: _NEOPIXEL_PIN, Payload: []byte{3}},
		{Fn: _NEOPIXEL_BUF_LENGTH, Payload: []byte{0, 12}},
	})
	if d.Len() != 4 {
		t.Errorf("Len()=%d", d.Len())
	}
	if d.Bounds() != image.Rect(0, 0, 4, 1) {
		t.Errorf("Bounds()=%v", d.Bounds())
	}
	if len(d.String()) == 0 {
		t.Error("empty string")
	}

	_, rec = newStrip(t, &Opts{Pin: 10, NumPixels: 100, Order: RGBW})
	rec.check(t, []record{
		{Fn: _NEOPIXEL_PIN, Payload: []byte{10}},
		{Fn: _NEOPIXEL_BUF_LENGTH, Payload: []byte{0x01, 0x90}},
	})
}

func TestNewInvalid(t *testing.T) {
	if _, err := New(&recorder{}, &Opts{NumPixels: 0}); err == nil {
		t.Error("expected error for empty strip")
	}
	if _, err := New(&recorder{}, &Opts{NumPixels: 1, Order: "BGR"}); err == nil {
		t.Error("expected error for unknown order")
	}
	boom := errors.New("boom")
	if _, err := New(&recorder{err: boom}, nil); !errors.Is(err, boom) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestSetPixel(t *testing.T) {
	d, rec := newStrip(t, &Opts{Pin: 3, NumPixels: 4, Brightness: 0.2, Order: GRB, AutoWrite: true})
	rec.ops = nil
	if err := d.SetPixel(0, color.NRGBA{R: 255, G: 128, B: 10, A: 255}); err != nil {
		t.Fatal(err)
	}
	if err := d.SetPixel(-2, color.NRGBA{R: 0, G: 0, B: 255, A: 255}); err != nil {
		t.Fatal(err)
	}
	rec.check(t, []record{
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 0, 25, 51, 2}},
		show(),
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 6, 0, 0, 51}},
		show(),
	})
	if err := d.SetPixel(4, color.Black); !errors.Is(err, ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
	if err := d.SetPixel(-5, color.Black); !errors.Is(err, ErrIndex) {
		t.Errorf("expected ErrIndex, got %v", err)
	}
	rec.check(t, nil)
	want := []color.NRGBA{{R: 255, G: 128, B: 10, A: 255}, {}, {B: 255, A: 255}, {}}
	if diff := cmp.Diff(want, d.Pixels()); diff != "" {
		t.Errorf("Pixels() mismatch (-want +got):\n%s", diff)
	}
}

func TestFillAndBrightness(t *testing.T) {
	d, rec := newStrip(t, &Opts{Pin: 3, NumPixels: 2, Brightness: 1, Order: RGB})
	rec.ops = nil
	if err := d.Fill(color.NRGBA{R: 1, G: 2, B: 3, A: 255}); err != nil {
		t.Fatal(err)
	}
	// No AutoWrite: nothing is shown until Show() is called.
	rec.check(t, []record{
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 0, 1, 2, 3}},
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 3, 1, 2, 3}},
	})
	if err := d.SetBrightness(1.5); err != nil {
		t.Fatal(err)
	}
	if d.Brightness() != 1 {
		t.Errorf("Brightness()=%f", d.Brightness())
	}
	if err := d.SetBrightness(-1); err != nil {
		t.Fatal(err)
	}
	if d.Brightness() != 0 {
		t.Errorf("Brightness()=%f", d.Brightness())
	}
	rec.check(t, nil)
	if err := d.Show(); err != nil {
		t.Fatal(err)
	}
	rec.check(t, []record{show()})
}

func TestFillAutoWrite(t *testing.T) {
	d, rec := newStrip(t, &Opts{Pin: 3, NumPixels: 3, Brightness: 1, Order: GRB, AutoWrite: true})
	rec.ops = nil
	if err := d.Fill(color.NRGBA{R: 9, A: 255}); err != nil {
		t.Fatal(err)
	}
	rec.check(t, []record{
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 0, 0, 9, 0}},
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 3, 0, 9, 0}},
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 6, 0, 9, 0}},
		show(),
	})
	if err := d.SetBrightness(0.5); err != nil {
		t.Fatal(err)
	}
	rec.check(t, []record{show()})
}

func TestWhiteChannel(t *testing.T) {
	d, rec := newStrip(t, &Opts{Pin: 3, NumPixels: 1, Brightness: 1, Order: GRBW})
	rec.ops = nil
	if err := d.SetPixel(0, color.NRGBA{R: 80, G: 80, B: 80, A: 255}); err != nil {
		t.Fatal(err)
	}
	if err := d.SetPixel(0, color.NRGBA{R: 1, G: 2, B: 3, A: 255}); err != nil {
		t.Fatal(err)
	}
	rec.check(t, []record{
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 0, 0, 0, 0, 80}},
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 0, 2, 1, 3, 0}},
	})
}

func TestDrawChunks(t *testing.T) {
	d, rec := newStrip(t, &Opts{Pin: 3, NumPixels: 12, Brightness: 1, Order: RGB})
	rec.ops = nil
	img := image.NewNRGBA(image.Rect(0, 0, 12, 1))
	for x := range 12 {
		img.SetNRGBA(x, 0, color.NRGBA{R: byte(x), G: byte(x), B: byte(x), A: 255})
	}
	if err := d.Draw(d.Bounds(), img, image.Point{}); err != nil {
		t.Fatal(err)
	}
	first := []byte{0, 0}
	for x := range 10 {
		first = append(first, byte(x), byte(x), byte(x))
	}
	rec.check(t, []record{
		{Fn: _NEOPIXEL_BUF, Payload: first},
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 30, 10, 10, 10, 11, 11, 11}},
		show(),
	})

	// Drawing a single pixel at an offset only uploads that pixel.
	one := image.NewUniform(color.NRGBA{R: 7, A: 255})
	if err := d.Draw(image.Rect(5, 0, 6, 1), one, image.Point{}); err != nil {
		t.Fatal(err)
	}
	rec.check(t, []record{
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 15, 7, 0, 0}},
		show(),
	})
}

func TestWriteAndHalt(t *testing.T) {
	d, rec := newStrip(t, &Opts{Pin: 3, NumPixels: 2, Brightness: 1, Order: GRB})
	rec.ops = nil
	if _, err := d.Write([]byte{1, 2}); !errors.Is(err, ErrInvalidData) {
		t.Errorf("expected ErrInvalidData, got %v", err)
	}
	n, err := d.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9})
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Errorf("Write()=%d", n)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	rec.check(t, []record{
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 0, 2, 1, 3, 5, 4, 6}},
		show(),
		{Fn: _NEOPIXEL_BUF, Payload: []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		show(),
	})
}
