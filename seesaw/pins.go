// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package seesaw

import (
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

type seesawPin struct {
	dev    *Dev
	number int
	name   string

	mu   sync.Mutex
	pull gpio.Pull
	fn   pin.Func
}

func (p *seesawPin) DefaultPull() gpio.Pull {
	return gpio.Float
}

func (p *seesawPin) Function() string {
	return string(p.Func())
}

func (p *seesawPin) Func() pin.Func {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fn
}

func (p *seesawPin) Halt() error {
	return nil
}

// In configures the pin as an input. The firmware can pull the line up or
// down. Edge detection is reported through the board INT line, not per pin.
func (p *seesawPin) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return ErrNotImplemented
	}
	mode := Input
	switch pull {
	case gpio.PullUp:
		mode = InputPullUp
	case gpio.PullDown:
		mode = InputPullDown
	case gpio.PullNoChange:
		pull = p.Pull()
		switch pull {
		case gpio.PullUp:
			mode = InputPullUp
		case gpio.PullDown:
			mode = InputPullDown
		}
	}
	if err := p.dev.PinMode(p.number, mode); err != nil {
		return err
	}
	p.mu.Lock()
	p.pull = pull
	p.fn = gpio.IN
	p.mu.Unlock()
	return nil
}

func (p *seesawPin) Name() string {
	return p.name
}

func (p *seesawPin) Number() int {
	return p.number
}

func (p *seesawPin) Out(l gpio.Level) error {
	if p.Func() != gpio.OUT {
		if err := p.dev.PinMode(p.number, Output); err != nil {
			return err
		}
		p.mu.Lock()
		p.fn = gpio.OUT
		p.pull = gpio.Float
		p.mu.Unlock()
	}
	return p.dev.DigitalWrite(p.number, l)
}

func (p *seesawPin) Pull() gpio.Pull {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pull == gpio.PullNoChange {
		return gpio.Float
	}
	return p.pull
}

func (p *seesawPin) Read() gpio.Level {
	l, err := p.dev.DigitalRead(p.number)
	if err != nil {
		log.Println(err)
		return gpio.Low
	}
	return l
}

func (p *seesawPin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrNotImplemented
}

func (p *seesawPin) String() string {
	return p.name
}

// WaitForEdge is not supported per pin. Enable the GPIO interrupt with
// Dev.SetGPIOInterrupts and watch the INT line from the host instead.
func (p *seesawPin) WaitForEdge(timeout time.Duration) bool {
	return false
}

var _ gpio.PinIO = &seesawPin{}
