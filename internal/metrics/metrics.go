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

// Package metrics counts what the overlay does to the host's frames and
// messages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "overlay"

// Failure stages.
const (
	StageInit    = "init"
	StageBind    = "bind"
	StageBuild   = "build"
	StageTexture = "texture"
	StagePaint   = "paint"
	StageRestore = "restore"
	StagePanic   = "panic"
	StageSurface = "surface"
)

// Message routes.
const (
	RouteConsumed  = "consumed"
	RouteForwarded = "forwarded"
)

// Metrics holds the overlay's counters.
type Metrics struct {
	Intercepted  prometheus.Counter
	CallThroughs prometheus.Counter
	Composed     prometheus.Counter
	Failed       *prometheus.CounterVec
	Messages     *prometheus.CounterVec
	InputErrors  prometheus.Counter

	registry *prometheus.Registry
}

// New registers the counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Intercepted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_intercepted_total",
			Help:      "Presentation calls that reached the replacement entry point",
		}),
		CallThroughs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_call_through_total",
			Help:      "Calls forwarded to the original presentation function",
		}),
		Composed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_composed_total",
			Help:      "Frames the overlay was drawn into",
		}),
		Failed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_failed_total",
			Help:      "Frames whose overlay was skipped, by failing stage",
		}, []string{"stage"}),
		Messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "window_messages_total",
			Help:      "Window messages seen by the subclassed procedure, by route",
		}, []string{"route"}),
		InputErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_errors_total",
			Help:      "Window messages the input router failed to handle",
		}),
		registry: reg,
	}
}

// Gatherer exposes the registry, e.g. for a debug endpoint.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Intercepted  uint64
	CallThroughs uint64
	Composed     uint64
	Failed       uint64
	Consumed     uint64
	Forwarded    uint64
	InputErrors  uint64
	// FailedBy splits Failed by stage; stages that never failed are absent.
	FailedBy map[string]uint64
}

// Snapshot reads every counter.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Intercepted:  value(m.Intercepted),
		CallThroughs: value(m.CallThroughs),
		Composed:     value(m.Composed),
		InputErrors:  value(m.InputErrors),
		Consumed:     value(m.Messages.WithLabelValues(RouteConsumed)),
		Forwarded:    value(m.Messages.WithLabelValues(RouteForwarded)),
	}
	families, err := m.Gatherer().Gather()
	if err != nil {
		return s
	}
	for _, fam := range families {
		if fam.GetName() != namespace+"_frames_failed_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			n := uint64(metric.GetCounter().GetValue())
			s.Failed += n
			if s.FailedBy == nil {
				s.FailedBy = make(map[string]uint64)
			}
			s.FailedBy[stageOf(metric)] += n
		}
	}
	return s
}

func stageOf(m *dto.Metric) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == "stage" {
			return l.GetValue()
		}
	}
	return ""
}

func value(c prometheus.Counter) uint64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return uint64(m.GetCounter().GetValue())
}
