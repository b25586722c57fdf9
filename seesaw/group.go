// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package seesaw

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
)

// Group is a set of device pins read and written together. Bit n of a group
// value corresponds to the n-th pin passed to Dev.Group.
type Group struct {
	pins []*seesawPin
	dev  *Dev
}

// Pins returns the set of pins that make up this group.
func (gr *Group) Pins() []pin.Pin {
	pins := make([]pin.Pin, len(gr.pins))
	for ix, p := range gr.pins {
		pins[ix] = p
	}
	return pins
}

// toDevMask converts a group mask into the device pin mask.
func (gr *Group) toDevMask(mask gpio.GPIOValue) uint32 {
	var m uint32
	for ix, p := range gr.pins {
		if mask&(1<<uint(ix)) != 0 {
			m |= 1 << uint(p.number)
		}
	}
	return m
}

func (gr *Group) fullMask(mask gpio.GPIOValue) gpio.GPIOValue {
	if mask == 0 {
		mask = (1 << uint(len(gr.pins))) - 1
	}
	return mask
}

// ByOffset returns the GPIO pin by offset within the group.
func (gr *Group) ByOffset(offset int) pin.Pin {
	if offset < 0 || offset >= len(gr.pins) {
		return nil
	}
	return gr.pins[offset]
}

// ByName returns the GPIO pin by name.
func (gr *Group) ByName(name string) pin.Pin {
	for _, p := range gr.pins {
		if p.name == name {
			return p
		}
	}
	return nil
}

// ByNumber returns the GPIO pin by its pin number on the device.
func (gr *Group) ByNumber(number int) pin.Pin {
	for _, p := range gr.pins {
		if p.number == number {
			return p
		}
	}
	return nil
}

// Out drives the pins selected by mask. A 0 mask selects every pin. High and
// low pins are written with one transaction each.
func (gr *Group) Out(value, mask gpio.GPIOValue) error {
	mask = gr.fullMask(mask)
	var set, clr uint32
	for ix, p := range gr.pins {
		bit := gpio.GPIOValue(1) << uint(ix)
		if mask&bit == 0 {
			continue
		}
		if value&bit != 0 {
			set |= 1 << uint(p.number)
		} else {
			clr |= 1 << uint(p.number)
		}
	}
	if set != 0 {
		if err := gr.dev.DigitalWriteBulk(set, gpio.High); err != nil {
			return err
		}
	}
	if clr != 0 {
		return gr.dev.DigitalWriteBulk(clr, gpio.Low)
	}
	return nil
}

// Read returns the levels of the pins selected by mask, using a single bulk
// read. A 0 mask selects every pin.
func (gr *Group) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	mask = gr.fullMask(mask)
	v, err := gr.dev.DigitalReadBulk(gr.toDevMask(mask))
	if err != nil {
		return 0, err
	}
	var result gpio.GPIOValue
	for ix, p := range gr.pins {
		bit := gpio.GPIOValue(1) << uint(ix)
		if mask&bit != 0 && v&(1<<uint(p.number)) != 0 {
			result |= bit
		}
	}
	return result, nil
}

// WaitForEdge is not supported. The firmware signals changes on its INT line
// without a per group mask; watch that line from the host instead.
func (gr *Group) WaitForEdge(timeout time.Duration) (number int, edge gpio.Edge, err error) {
	return 0, gpio.NoEdge, ErrNotImplemented
}

// Halt stops the pin group. It cannot be used after this call.
func (gr *Group) Halt() error {
	gr.pins = nil
	return nil
}

func (gr *Group) String() string {
	s := gr.dev.String() + "[ "
	for _, p := range gr.pins {
		s += fmt.Sprintf("%d ", p.number)
	}
	return s + "]"
}

var _ gpio.Group = &Group{}
