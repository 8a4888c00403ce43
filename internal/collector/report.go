package collector

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"snmp-health-agent/internal/model"
)

// PollResult is the outcome of one host in one cycle. Exactly one of
// Snapshot and Err is set.
type PollResult struct {
	Address  string
	OSFamily model.OSFamily
	Snapshot *model.MetricSnapshot
	Err      error
}

func (r PollResult) OK() bool {
	return r.Err == nil && r.Snapshot != nil
}

// CycleReport summarizes one pass over the registry.
type CycleReport struct {
	StartedAt   time.Time
	Duration    time.Duration
	Results     []PollResult
	RegistryErr error
}

func (r CycleReport) Hosts() int {
	return len(r.Results)
}

func (r CycleReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

func (r CycleReport) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Outcome is ok, partial or failed. A registry error or a cycle where every
// host failed is failed; an empty registry is ok.
func (r CycleReport) Outcome() string {
	switch {
	case r.RegistryErr != nil:
		return "failed"
	case r.Failed() == 0:
		return "ok"
	case r.Succeeded() == 0:
		return "failed"
	default:
		return "partial"
	}
}

// Err joins every failure of the cycle, or returns nil.
func (r CycleReport) Err() error {
	var merr *multierror.Error
	if r.RegistryErr != nil {
		merr = multierror.Append(merr, fmt.Errorf("list hosts: %w", r.RegistryErr))
	}
	for _, res := range r.Results {
		if res.Err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", res.Address, res.Err))
		}
	}
	return merr.ErrorOrNil()
}
