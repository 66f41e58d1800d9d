// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TestableObserverVec records the label sets it is asked for, so tests can
// check which series a collector initializer touched.
type TestableObserverVec struct {
	prometheus.ObserverVec
	Observations []*testableObserver
}

func (v *TestableObserverVec) With(l prometheus.Labels) prometheus.Observer {
	o := &testableObserver{Labels: l}
	v.Observations = append(v.Observations, o)
	return o
}

type testableObserver struct {
	Labels      prometheus.Labels
	Observation float64
}

func (o *testableObserver) Observe(f float64) { o.Observation = f }
