// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package seesaw provides a driver for the Adafruit Seesaw I/O expander
// firmware. Seesaw runs on small microcontrollers (SAMD09, ATtiny8x7/16x7)
// and exposes their GPIO, NeoPixel and other peripherals through a register
// protocol over I²C.
//
// Every register is addressed by a module base byte and a function byte. A
// write is a single transaction of [base, function, payload...]. A read is a
// write of [base, function], a short pause while the firmware prepares the
// answer, and then a separate read transaction.
//
// # Datasheet
//
// https://learn.adafruit.com/adafruit-seesaw-atsamd09-breakout/reading-and-writing-data
//
// # Notes
//
// Only the status and GPIO modules are implemented here. The NeoPixel module
// is driven by package neopixel through Dev.Write.
package seesaw

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
)

// Module base addresses.
const (
	StatusBase   byte = 0x00
	GPIOBase     byte = 0x01
	NeoPixelBase byte = 0x0E
)

const (
	// Status module functions.
	_STATUS_HW_ID   byte = 0x01
	_STATUS_VERSION byte = 0x02
	_STATUS_SWRST   byte = 0x7F

	// GPIO module functions.
	_GPIO_DIRSET_BULK byte = 0x02
	_GPIO_DIRCLR_BULK byte = 0x03
	_GPIO_BULK        byte = 0x04
	_GPIO_BULK_SET    byte = 0x05
	_GPIO_BULK_CLR    byte = 0x06
	_GPIO_INTENSET    byte = 0x08
	_GPIO_INTENCLR    byte = 0x09
	_GPIO_INTFLAG     byte = 0x0A
	_GPIO_PULLENSET   byte = 0x0B
	_GPIO_PULLENCLR   byte = 0x0C
)

// Hardware IDs reported by the status module.
const (
	HardwareIDSAMD09   byte = 0x55
	HardwareIDTiny806  byte = 0x84
	HardwareIDTiny807  byte = 0x85
	HardwareIDTiny816  byte = 0x86
	HardwareIDTiny817  byte = 0x87
	HardwareIDTiny1616 byte = 0x88
	HardwareIDTiny1617 byte = 0x89
)

const (
	DefaultAddress uint16 = 0x49

	numPins           = 32
	defaultReadDelay  = 8 * time.Millisecond
	defaultResetDelay = 500 * time.Millisecond
)

var (
	ErrNotImplemented = errors.New("seesaw: not implemented")
	ErrInvalidPin     = errors.New("seesaw: pin must be 0 thru 31")
	ErrInvalidMode    = errors.New("seesaw: invalid pin mode")
	ErrHardwareID     = errors.New("seesaw: unexpected hardware ID")
)

// PinMode is the configuration applied to a GPIO pin by PinMode().
type PinMode byte

const (
	Input         PinMode = 0x00
	Output        PinMode = 0x01
	InputPullUp   PinMode = 0x02
	InputPullDown PinMode = 0x03
)

func (m PinMode) String() string {
	switch m {
	case Input:
		return "Input"
	case Output:
		return "Output"
	case InputPullUp:
		return "InputPullUp"
	case InputPullDown:
		return "InputPullDown"
	}
	return fmt.Sprintf("PinMode(%d)", byte(m))
}

// Version is the firmware version word read from the status module.
type Version uint32

// Product returns the Adafruit product code of the board.
func (v Version) Product() uint16 {
	return uint16(v >> 16)
}

// Date returns the firmware date code.
func (v Version) Date() uint16 {
	return uint16(v)
}

// Opts holds the settings used by New.
type Opts struct {
	// Addr is the I²C address. 0 selects DefaultAddress.
	Addr uint16
	// SkipReset disables the software reset normally issued by New.
	SkipReset bool
	// ResetDelay is how long to wait after a software reset. 0 selects 500ms.
	ResetDelay time.Duration
	// ReadDelay is the pause between the register select and the read. 0
	// selects 8ms.
	ReadDelay time.Duration
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Addr:       DefaultAddress,
	ResetDelay: defaultResetDelay,
	ReadDelay:  defaultReadDelay,
}

// Dev is a handle to a Seesaw device.
//
// Each register access is serialized so the select and read halves of a read
// are never interleaved with another access.
type Dev struct {
	// Pins exposes the 32 GPIO lines of the device. Not every line is bonded
	// out on a given board.
	Pins []gpio.PinIO

	mu        sync.Mutex
	d         *i2c.Dev
	readDelay time.Duration
	hwID      byte
	groups    []*Group
}

// New opens a Seesaw device, optionally resets it and verifies its hardware
// ID.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Addr == 0 {
		o.Addr = DefaultAddress
	}
	if o.ResetDelay == 0 {
		o.ResetDelay = defaultResetDelay
	}
	if o.ReadDelay == 0 {
		o.ReadDelay = defaultReadDelay
	}
	dev := &Dev{d: &i2c.Dev{Bus: bus, Addr: o.Addr}, readDelay: o.ReadDelay}
	if !o.SkipReset {
		if err := dev.SoftwareReset(); err != nil {
			return nil, err
		}
		sleep(o.ResetDelay)
	}
	id, err := dev.HardwareID()
	if err != nil {
		return nil, err
	}
	if !knownHardwareID(id) {
		return nil, fmt.Errorf("%w 0x%02x, check wiring", ErrHardwareID, id)
	}
	dev.hwID = id

	dev.Pins = make([]gpio.PinIO, numPins)
	sDev := dev.String()
	for ix := range numPins {
		name := fmt.Sprintf("%s_GPIO%d", sDev, ix)
		dev.Pins[ix] = &seesawPin{dev: dev, number: ix, name: name, fn: gpio.IN}
		_ = gpioreg.Register(dev.Pins[ix])
	}
	return dev, nil
}

func knownHardwareID(id byte) bool {
	switch id {
	case HardwareIDSAMD09, HardwareIDTiny806, HardwareIDTiny807, HardwareIDTiny816,
		HardwareIDTiny817, HardwareIDTiny1616, HardwareIDTiny1617:
		return true
	}
	return false
}

// Write writes payload to the register identified by base and fn.
func (dev *Dev) Write(base, fn byte, payload []byte) error {
	w := make([]byte, 2+len(payload))
	w[0] = base
	w[1] = fn
	copy(w[2:], payload)
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return wrap(dev.d.Tx(w, nil))
}

// Read reads len(r) bytes from the register identified by base and fn.
func (dev *Dev) Read(base, fn byte, r []byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.d.Tx([]byte{base, fn}, nil); err != nil {
		return wrap(err)
	}
	sleep(dev.readDelay)
	return wrap(dev.d.Tx(nil, r))
}

// SoftwareReset restarts the firmware. The device needs some time before it
// answers again.
func (dev *Dev) SoftwareReset() error {
	return dev.Write(StatusBase, _STATUS_SWRST, []byte{0xff})
}

// HardwareID returns the chip identifier reported by the firmware.
func (dev *Dev) HardwareID() (byte, error) {
	r := make([]byte, 1)
	err := dev.Read(StatusBase, _STATUS_HW_ID, r)
	return r[0], err
}

// Version returns the product and date code of the firmware.
func (dev *Dev) Version() (Version, error) {
	r := make([]byte, 4)
	if err := dev.Read(StatusBase, _STATUS_VERSION, r); err != nil {
		return 0, err
	}
	return Version(binary.BigEndian.Uint32(r)), nil
}

// PinMode configures a single GPIO pin.
func (dev *Dev) PinMode(pin int, mode PinMode) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	return dev.PinModeBulk(1<<uint(pin), mode)
}

// PinModeBulk configures every pin whose bit is set in mask.
func (dev *Dev) PinModeBulk(mask uint32, mode PinMode) error {
	var fns []byte
	switch mode {
	case Output:
		fns = []byte{_GPIO_DIRSET_BULK}
	case Input:
		fns = []byte{_GPIO_DIRCLR_BULK, _GPIO_PULLENCLR}
	case InputPullUp:
		// The pull direction follows the output latch.
		fns = []byte{_GPIO_DIRCLR_BULK, _GPIO_PULLENSET, _GPIO_BULK_SET}
	case InputPullDown:
		fns = []byte{_GPIO_DIRCLR_BULK, _GPIO_PULLENSET, _GPIO_BULK_CLR}
	default:
		return fmt.Errorf("%w %s", ErrInvalidMode, mode)
	}
	payload := maskBytes(mask)
	for _, fn := range fns {
		if err := dev.Write(GPIOBase, fn, payload); err != nil {
			return err
		}
	}
	return nil
}

// DigitalRead returns the level of a single pin.
func (dev *Dev) DigitalRead(pin int) (gpio.Level, error) {
	if err := checkPin(pin); err != nil {
		return gpio.Low, err
	}
	v, err := dev.DigitalReadBulk(1 << uint(pin))
	if err != nil {
		return gpio.Low, err
	}
	return v != 0, nil
}

// DigitalReadBulk reads all GPIO levels in one transaction and returns those
// selected by mask. Bit n holds the level of pin n, 1 being high.
func (dev *Dev) DigitalReadBulk(mask uint32) (uint32, error) {
	r := make([]byte, 4)
	if err := dev.Read(GPIOBase, _GPIO_BULK, r); err != nil {
		return 0, err
	}
	r[0] &= 0x3f
	return binary.BigEndian.Uint32(r) & mask, nil
}

// DigitalWrite drives a single output pin.
func (dev *Dev) DigitalWrite(pin int, l gpio.Level) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	return dev.DigitalWriteBulk(1<<uint(pin), l)
}

// DigitalWriteBulk drives every pin selected by mask to the same level.
func (dev *Dev) DigitalWriteBulk(mask uint32, l gpio.Level) error {
	fn := _GPIO_BULK_CLR
	if l {
		fn = _GPIO_BULK_SET
	}
	return dev.Write(GPIOBase, fn, maskBytes(mask))
}

// SetGPIOInterrupts enables or disables the change interrupt for the pins in
// mask. The firmware pulls its INT line low when an enabled pin changes.
func (dev *Dev) SetGPIOInterrupts(mask uint32, enabled bool) error {
	fn := _GPIO_INTENCLR
	if enabled {
		fn = _GPIO_INTENSET
	}
	return dev.Write(GPIOBase, fn, maskBytes(mask))
}

// GPIOInterruptFlags returns the pins that changed since the last call.
// Reading clears the flags.
func (dev *Dev) GPIOInterruptFlags() (uint32, error) {
	r := make([]byte, 4)
	if err := dev.Read(GPIOBase, _GPIO_INTFLAG, r); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r), nil
}

// Group returns a gpio.Group made of the specified pin numbers. Reads of a
// group are done with a single bulk transaction.
func (dev *Dev) Group(pinNumbers ...int) (gpio.Group, error) {
	gr := &Group{dev: dev, pins: make([]*seesawPin, len(pinNumbers))}
	for ix, number := range pinNumbers {
		if err := checkPin(number); err != nil {
			return nil, err
		}
		gr.pins[ix] = dev.Pins[number].(*seesawPin)
	}
	dev.mu.Lock()
	dev.groups = append(dev.groups, gr)
	dev.mu.Unlock()
	return gr, nil
}

// Halt releases the pin groups. The device keeps its pin configuration.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	groups := dev.groups
	dev.groups = nil
	dev.mu.Unlock()
	for _, gr := range groups {
		_ = gr.Halt()
	}
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("SEESAW_%x", dev.d.Addr)
}

func checkPin(pin int) error {
	if pin < 0 || pin >= numPins {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	return nil
}

func maskBytes(mask uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, mask)
	return b
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("seesaw: %w", err)
}

var sleep = time.Sleep
