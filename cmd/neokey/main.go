// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// neokey lights the keys of a NeoKey 1x4 while they are held, and reports
// key presses on stdout or to an MQTT broker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/neokey/neokey"
	"github.com/GermanBionicSystems/neokey/screen1d"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

func mainImpl() error {
	busName := flag.String("bus", "", "I²C bus to use")
	addr := flag.Uint("addr", uint(neokey.DefaultAddress), "I²C address of the board")
	interval := flag.Duration("interval", 20*time.Millisecond, "key poll interval")
	brightness := flag.Float64("brightness", neokey.DefaultBrightness, "LED brightness, 0 to 1")
	intName := flag.String("int", "", "host GPIO wired to the board INT line; polls when empty")
	mirror := flag.Bool("mirror", false, "mirror the keys and LEDs on the terminal")
	broker := flag.String("mqtt", "", "MQTT broker URL, e.g. tcp://localhost:1883")
	topic := flag.String("topic", "neokey/events", "MQTT topic for key events")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	if *addr > 0x7f {
		return fmt.Errorf("invalid I²C address 0x%x", *addr)
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		return err
	}
	defer bus.Close()

	var intPin gpio.PinIn
	if *intName != "" {
		p := gpioreg.ByName(*intName)
		if p == nil {
			return fmt.Errorf("invalid GPIO pin %q", *intName)
		}
		// INT is open drain and active low.
		if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return err
		}
		intPin = p
	}

	dev, err := neokey.New(bus, &neokey.Opts{
		Addr:       uint16(*addr),
		Interrupt:  intPin != nil,
		Brightness: *brightness,
	})
	if err != nil {
		return err
	}
	defer dev.Halt()
	log.Printf("using %s", dev)

	var pub Publisher = logPublisher{}
	if *broker != "" {
		p, err := newMQTTPublisher(*broker, fmt.Sprintf("neokey-%x", *addr), *topic)
		if err != nil {
			return err
		}
		pub = p
	}
	defer pub.Close()

	var screen *screen1d.Dev
	if *mirror {
		screen = screen1d.New(nil)
		defer screen.Halt()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, dev, pub, screen, intPin, *interval)
}

// run polls the keys until ctx is canceled.
func run(ctx context.Context, dev *neokey.Dev, pub Publisher, screen *screen1d.Dev, intPin gpio.PinIn, interval time.Duration) error {
	var prev [neokey.NumKeys]bool
	var hue byte
	for {
		keys, err := dev.Keys()
		if err != nil {
			return err
		}
		for _, e := range transitions(prev, keys, time.Now()) {
			if err := pub.Publish(e); err != nil {
				// Keep serving the keys while the broker is away.
				log.Println(err)
			}
		}
		for i, pressed := range keys {
			if pressed {
				err = dev.Pixels.SetPixel(i, wheel(hue+byte(i*64)))
			} else if prev[i] {
				err = dev.Pixels.SetPixel(i, off)
			}
			if err != nil {
				return err
			}
		}
		prev = keys
		hue++
		if screen != nil {
			if err := screen.Render(keys[:], dev.Pixels.Pixels()); err != nil {
				return err
			}
		}

		if intPin != nil {
			// A timeout still refreshes the colors of held keys.
			if intPin.WaitForEdge(interval) {
				if _, err := dev.ChangedKeys(); err != nil {
					return err
				}
			}
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "neokey: %s.\n", err)
		os.Exit(1)
	}
}
