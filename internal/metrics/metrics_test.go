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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSnapshot(t *testing.T) {
	m := New()
	m.Intercepted.Add(3)
	m.CallThroughs.Add(3)
	m.Composed.Inc()
	m.Failed.WithLabelValues(StagePaint).Inc()
	m.Failed.WithLabelValues(StageBuild).Add(1)
	m.Messages.WithLabelValues(RouteConsumed).Add(4)
	m.Messages.WithLabelValues(RouteForwarded).Inc()

	assert.Equal(t, Snapshot{
		Intercepted:  3,
		CallThroughs: 3,
		Composed:     1,
		Failed:       2,
		Consumed:     4,
		Forwarded:    1,
		FailedBy:     map[string]uint64{StagePaint: 1, StageBuild: 1},
	}, m.Snapshot())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Failed.WithLabelValues(StagePaint)))
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Intercepted.Inc()
	assert.Equal(t, uint64(0), b.Snapshot().Intercepted)
	assert.Nil(t, b.Snapshot().FailedBy)
	n, err := testutil.GatherAndCount(a.Gatherer(), "overlay_frames_intercepted_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
