// Copyright 2026 workturnedplay
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package input turns raw window messages into semantic input events and
// hands them to the render thread once per frame.
package input

import (
	"fmt"
	"time"

	"github.com/workturnedplay/overlayhook/internal/geom"
	"github.com/workturnedplay/overlayhook/internal/vkey"
)

// Kind discriminates Event.
type Kind uint8

const (
	PointerMoved Kind = iota + 1
	PointerButton
	Text
	Scroll
	Key
)

// Button identifies a pointer button.
type Button uint8

const (
	Primary Button = iota
	Secondary
	Middle
)

func (b Button) String() string {
	switch b {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	case Middle:
		return "middle"
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

// Event is a platform independent description of one piece of user input.
// Which fields are meaningful depends on Kind.
type Event struct {
	Kind Kind

	// Pos is set for PointerMoved and PointerButton.
	Pos geom.Vec2
	// Button and Pressed are set for PointerButton; Pressed also for Key.
	Button  Button
	Pressed bool
	// Text holds a single decoded character for Text events.
	Text string
	// Delta is the scroll amount in points for Scroll events.
	Delta geom.Vec2
	// Key and Repeat are set for Key events.
	Key    vkey.Key
	Repeat bool
}

func (e Event) String() string {
	switch e.Kind {
	case PointerMoved:
		return fmt.Sprintf("pointer-moved(%g,%g)", e.Pos.X, e.Pos.Y)
	case PointerButton:
		return fmt.Sprintf("pointer-button(%s pressed=%t at %g,%g)", e.Button, e.Pressed, e.Pos.X, e.Pos.Y)
	case Text:
		return fmt.Sprintf("text(%q)", e.Text)
	case Scroll:
		return fmt.Sprintf("scroll(%g,%g)", e.Delta.X, e.Delta.Y)
	case Key:
		return fmt.Sprintf("key(%s pressed=%t repeat=%t)", e.Key, e.Pressed, e.Repeat)
	}
	return fmt.Sprintf("event(%d)", e.Kind)
}

// PredictedFrameDuration is what every snapshot reports as the expected
// time until the next frame.
const PredictedFrameDuration = time.Second / 60

// Snapshot is the input for exactly one UI frame.
type Snapshot struct {
	Events      []Event
	Time        time.Duration
	PredictedDT time.Duration
	Focused     bool
}
