// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen1d mirrors a row of keys and their LEDs on the terminal
// using ANSI color codes.
//
// Useful to watch a key pad from a remote shell, or to debug animations
// without looking at the board.
package screen1d

import (
	"bytes"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for the mirror.
type Opts struct {
	// W receives the output. Defaults to a color capable stdout.
	W       io.Writer
	Palette *ansi256.Palette

	_ struct{}
}

// Dev renders a key row on a terminal.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette
	buf     bytes.Buffer
}

// New returns a Dev that writes to opts.W.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{w: w, palette: *p}
}

func (d *Dev) String() string {
	return "Screen1D"
}

// Halt implements conn.Resource.
//
// It ends the line and restores the terminal colors.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Render redraws the row in place. Each cell shows the LED color, followed by
// '*' when the key is pressed. keys and pixels may differ in length; missing
// entries are drawn released and dark.
func (d *Dev) Render(keys []bool, pixels []color.NRGBA) error {
	n := len(keys)
	if len(pixels) > n {
		n = len(pixels)
	}
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := range n {
		c := color.NRGBA{A: 255}
		if i < len(pixels) {
			c = pixels[i]
			c.A = 255
		}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		_, _ = d.buf.WriteString("\033[0m")
		if i < len(keys) && keys[i] {
			_ = d.buf.WriteByte('*')
		} else {
			_ = d.buf.WriteByte(' ')
		}
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}
