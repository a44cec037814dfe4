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

package overlayhook

import (
	"golang.org/x/sys/windows"

	"github.com/workturnedplay/overlayhook/internal/config"
	"github.com/workturnedplay/overlayhook/internal/detour"
	"github.com/workturnedplay/overlayhook/internal/logq"
	"github.com/workturnedplay/overlayhook/internal/paint"
	"github.com/workturnedplay/overlayhook/internal/shadow"
	"github.com/workturnedplay/overlayhook/internal/winproc"
)

// NewDefault builds an overlay for the running process: WGL contexts, the
// software rasterizer blitting through glDrawPixels, user32 subclassing.
func NewDefault(cfg *config.Config, log *logq.Logger) (*Overlay, error) {
	opts := OptionsFromConfig(cfg, log)
	opts.Detours = detour.Default()
	opts.Driver = shadow.WGL{}
	opts.NewRasterizer = func() (paint.Rasterizer, error) {
		return paint.NewSoftware(paint.NewGLPresenter()), nil
	}
	opts.Subclasser = winproc.New(winproc.Win32{})
	opts.Callback = windows.NewCallback
	return New(opts)
}
