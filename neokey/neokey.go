// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package neokey drives the Adafruit NeoKey 1x4, a board with four
// mechanical keys and four RGB LEDs behind a Seesaw I/O expander.
//
// The keys are wired to Seesaw pins 4 through 7 and short them to ground, so
// a key reads low while it is pressed. The LEDs form a GRB NeoPixel strip on
// Seesaw pin 3.
//
// # Datasheet
//
// https://learn.adafruit.com/neokey-1x4-qt-i2c
//
// # Notes
//
// Key reads are not debounced. Callers that need clean edges should filter
// successive reads themselves.
package neokey

import (
	"errors"
	"fmt"

	"github.com/GermanBionicSystems/neokey/neopixel"
	"github.com/GermanBionicSystems/neokey/seesaw"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
)

const (
	// DefaultAddress is the board address with no address jumper closed.
	DefaultAddress uint16 = 0x30
	// NeoPixelPin is the Seesaw pin driving the LEDs.
	NeoPixelPin byte = 3
	// NumKeys is the number of keys, and of LEDs.
	NumKeys = 4
	// KeyPinOffset is the Seesaw pin of key 0. Key i is on pin i+KeyPinOffset.
	KeyPinOffset = 4
	// KeyMask selects the key pins in a bulk read.
	KeyMask uint32 = 0xf0
	// DefaultBrightness is the LED brightness used when none is given.
	DefaultBrightness = 0.2
)

// ErrInvalidIndex is returned when a key index is not in [0, NumKeys).
var ErrInvalidIndex = errors.New("neokey: index must be 0 thru 3")

// Expander is the subset of the Seesaw protocol used to read the keys.
// *seesaw.Dev implements it.
type Expander interface {
	PinMode(pin int, mode seesaw.PinMode) error
	DigitalRead(pin int) (gpio.Level, error)
	DigitalReadBulk(mask uint32) (uint32, error)
}

// Opts holds the board settings.
type Opts struct {
	// Addr is the I²C address. 0 selects DefaultAddress.
	Addr uint16
	// Interrupt enables the Seesaw INT line for key changes.
	Interrupt bool
	// Brightness of the LEDs, from 0 to 1. 0 selects DefaultBrightness.
	Brightness float64
	// SkipReset skips the Seesaw software reset at start up.
	SkipReset bool
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Addr:       DefaultAddress,
	Brightness: DefaultBrightness,
}

// Dev is a NeoKey 1x4 board.
//
// Dev is not safe for concurrent use beyond what the Seesaw device itself
// serializes.
type Dev struct {
	// Pixels is the LED strip, one pixel per key, in key order.
	Pixels *neopixel.Dev

	ss   Expander
	name string
}

// New opens the board on bus, sets up the LED strip and configures the key
// pins as pulled-up inputs.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Addr == 0 {
		o.Addr = DefaultAddress
	}
	if o.Brightness == 0 {
		o.Brightness = DefaultBrightness
	}
	ss, err := seesaw.New(bus, &seesaw.Opts{Addr: o.Addr, SkipReset: o.SkipReset})
	if err != nil {
		return nil, err
	}
	pixels, err := neopixel.New(ss, &neopixel.Opts{
		Pin:        NeoPixelPin,
		NumPixels:  NumKeys,
		Brightness: o.Brightness,
		Order:      neopixel.GRB,
		AutoWrite:  true,
	})
	if err != nil {
		return nil, err
	}
	dev, err := NewWithExpander(ss, pixels)
	if err != nil {
		return nil, err
	}
	if o.Interrupt {
		if err := ss.SetGPIOInterrupts(KeyMask, true); err != nil {
			return nil, err
		}
	}
	dev.name = fmt.Sprintf("NeoKey1x4{%s}", ss)
	return dev, nil
}

// NewWithExpander builds a board on an already opened expander and LED strip.
// The key pins are configured before it returns.
func NewWithExpander(ss Expander, pixels *neopixel.Dev) (*Dev, error) {
	dev := &Dev{Pixels: pixels, ss: ss, name: "NeoKey1x4"}
	if err := dev.configureKeys(); err != nil {
		return nil, err
	}
	return dev, nil
}

// configureKeys makes every key pin an input with its pull-up enabled.
func (dev *Dev) configureKeys() error {
	for pin := KeyPinOffset; pin < KeyPinOffset+NumKeys; pin++ {
		if err := dev.ss.PinMode(pin, seesaw.InputPullUp); err != nil {
			return err
		}
	}
	return nil
}

// IsPressed reports whether key index is held down. It issues one pin read.
func (dev *Dev) IsPressed(index int) (bool, error) {
	if index < 0 || index >= NumKeys {
		return false, ErrInvalidIndex
	}
	l, err := dev.ss.DigitalRead(index + KeyPinOffset)
	if err != nil {
		return false, err
	}
	return l == gpio.Low, nil
}

// Keys returns the state of all keys, index 0 first, from a single bulk read.
func (dev *Dev) Keys() ([NumKeys]bool, error) {
	var keys [NumKeys]bool
	v, err := dev.ss.DigitalReadBulk(KeyMask)
	if err != nil {
		return keys, err
	}
	for i := range keys {
		keys[i] = v&(1<<uint(i+KeyPinOffset)) == 0
	}
	return keys, nil
}

type interruptReader interface {
	GPIOInterruptFlags() (uint32, error)
}

// ChangedKeys returns which keys changed since the previous call, and
// releases the INT line. It needs Opts.Interrupt and an expander that reports
// interrupt flags; otherwise it returns seesaw.ErrNotImplemented.
func (dev *Dev) ChangedKeys() ([NumKeys]bool, error) {
	var changed [NumKeys]bool
	ir, ok := dev.ss.(interruptReader)
	if !ok {
		return changed, seesaw.ErrNotImplemented
	}
	v, err := ir.GPIOInterruptFlags()
	if err != nil {
		return changed, err
	}
	for i := range changed {
		changed[i] = v&(1<<uint(i+KeyPinOffset)) != 0
	}
	return changed, nil
}

// Halt implements conn.Resource.
//
// It turns the LEDs off. The bus is left open.
func (dev *Dev) Halt() error {
	if dev.Pixels == nil {
		return nil
	}
	return dev.Pixels.Halt()
}

func (dev *Dev) String() string {
	return dev.name
}
