// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package devices holds the drivers for the Adafruit NeoKey 1x4 key pad and
// the Seesaw expander it is built on.
//
// See package neokey for the board, seesaw for the expander protocol and
// neopixel for the LED strip.
package devices
