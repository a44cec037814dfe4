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
	"errors"

	"github.com/workturnedplay/overlayhook/internal/compose"
	"github.com/workturnedplay/overlayhook/internal/detour"
	"github.com/workturnedplay/overlayhook/internal/shadow"
)

// Errors callers may test for with errors.Is.
var (
	ErrSymbolResolution  = detour.ErrSymbolResolution
	ErrHookInstall       = detour.ErrHookInstall
	ErrHookEnable        = detour.ErrHookEnable
	ErrContextCreation   = shadow.ErrContextCreation
	ErrSurfaceQuery      = shadow.ErrSurfaceQuery
	ErrUICallbackMissing = compose.ErrUICallbackMissing

	ErrBuilderRegistered = errors.New("UI builder already registered")
	ErrAlreadyInstalled  = errors.New("overlay already installed")
	ErrClosed            = errors.New("overlay closed")
)
