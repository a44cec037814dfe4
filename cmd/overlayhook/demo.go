//go:build windows

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

package main

import (
	"time"

	"github.com/workturnedplay/overlayhook/internal/geom"
	"github.com/workturnedplay/overlayhook/internal/ui"
)

const gaugeIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
<circle cx="12" cy="12" r="10" fill="none" stroke="#ffbf00" stroke-width="2"/>
<path d="M12 12 L17 7" stroke="#ffffff" stroke-width="2"/>
</svg>`

// demo is a small panel with a frame rate readout, a text field and a
// button that hides the panel body.
type demo struct {
	last      time.Duration
	fps       float64
	collapsed bool
	note      string
}

func newDemo() *demo { return &demo{note: "hello"} }

func (d *demo) build(c *ui.Context) {
	now := c.Input().Time
	if dt := now - d.last; d.last != 0 && dt > 0 {
		// smoothed so the readout is legible
		d.fps = 0.9*d.fps + 0.1*float64(time.Second)/float64(dt)
	}
	d.last = now

	height := float32(150)
	if d.collapsed {
		height = ui.TitleHeight + ui.RowHeight + 2*ui.Spacing + ui.Padding
	}
	c.Panel("overlay", geom.XYWH(16, 16, 220, height), func() {
		label := "hide"
		if d.collapsed {
			label = "show"
		}
		if c.Button(label) {
			d.collapsed = !d.collapsed
		}
		if d.collapsed {
			return
		}
		_ = c.Icon("gauge", gaugeIcon, 16)
		c.Labelf("%.1f fps", d.fps)
		c.TextField("note", &d.note, 180)
	})
}
