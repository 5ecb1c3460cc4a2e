// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("test_op"))
	RecordDBQuery("test_op", 5*time.Millisecond, nil)
	RecordDBQuery("test_op", 5*time.Millisecond, errors.New("boom"))
	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("test_op")); got != before+1 {
		t.Errorf("errors = %v, want %v", got, before+1)
	}
}

func TestRecordEvent(t *testing.T) {
	c := EventsTotal.WithLabelValues("join", "705")
	before := testutil.ToFloat64(c)
	RecordEvent("join", 705, time.Millisecond)
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("events = %v, want %v", got, before+1)
	}
}

func TestRecordPublish(t *testing.T) {
	ok := BusPublished.WithLabelValues("internal")
	failed := BusPublishFailures.WithLabelValues("internal")
	okBefore, failBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordPublish("internal", nil)
	RecordPublish("internal", errors.New("down"))

	if testutil.ToFloat64(ok) != okBefore+1 || testutil.ToFloat64(failed) != failBefore+1 {
		t.Error("publish counters not updated")
	}
}

func TestBreakerMetrics(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  string
		value float64
	}{
		{gobreaker.StateClosed, "closed", 0},
		{gobreaker.StateHalfOpen, "half-open", 1},
		{gobreaker.StateOpen, "open", 2},
	}
	for _, tt := range tests {
		if got := BreakerStateString(tt.state); got != tt.want {
			t.Errorf("BreakerStateString(%v) = %q, want %q", tt.state, got, tt.want)
		}
		RecordBreakerTransition("test", gobreaker.StateClosed, tt.state)
		if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test")); got != tt.value {
			t.Errorf("state gauge = %v, want %v", got, tt.value)
		}
	}

	rejected := CircuitBreakerRequests.WithLabelValues("test", "rejected")
	before := testutil.ToFloat64(rejected)
	RecordBreakerResult("test", gobreaker.ErrOpenState)
	if testutil.ToFloat64(rejected) != before+1 {
		t.Error("rejected counter not updated")
	}
}

func TestRecordCache(t *testing.T) {
	hits := CacheHits.WithLabelValues("local")
	before := testutil.ToFloat64(hits)
	RecordCache("local", true)
	RecordCache("local", false)
	if testutil.ToFloat64(hits) != before+1 {
		t.Error("hit counter not updated")
	}
}
