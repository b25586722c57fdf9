// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"image/color"
	"time"

	"github.com/GermanBionicSystems/neokey/neokey"
)

// EventType is the kind of key transition.
type EventType string

const (
	Pressed  EventType = "PRESSED"
	Released EventType = "RELEASED"
)

// Event is a single key transition.
type Event struct {
	Key       int
	Type      EventType
	Timestamp time.Time
}

type payload struct {
	Key       int    `json:"key"`
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
}

// FormatPayload creates the JSON payload for an event.
func FormatPayload(e Event) ([]byte, error) {
	return json.Marshal(payload{
		Key:       e.Key,
		Event:     string(e.Type),
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
	})
}

// transitions compares two successive reads and returns one event per key
// that changed, in key order.
func transitions(prev, cur [neokey.NumKeys]bool, now time.Time) []Event {
	var events []Event
	for i := range cur {
		if cur[i] == prev[i] {
			continue
		}
		t := Released
		if cur[i] {
			t = Pressed
		}
		events = append(events, Event{Key: i, Type: t, Timestamp: now})
	}
	return events
}

// wheel maps 0-255 to a color going r - g - b - back to r.
func wheel(pos byte) color.NRGBA {
	switch {
	case pos < 85:
		return color.NRGBA{R: 255 - pos*3, G: pos * 3, A: 255}
	case pos < 170:
		pos -= 85
		return color.NRGBA{G: 255 - pos*3, B: pos * 3, A: 255}
	default:
		pos -= 170
		return color.NRGBA{R: pos * 3, B: 255 - pos*3, A: 255}
	}
}

var off = color.NRGBA{A: 255}
