package metric

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snmp-health-agent/internal/model"
)

var observedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func linuxReading() model.RawReading {
	return model.RawReading{
		OIDSysDescr:         "Linux web-01 5.10.0-23-amd64 #1 SMP Debian x86_64",
		OIDSysUpTime:        int64(8640000),
		OIDIfInOctets:       uint64(3 * 1024 * 1024),
		OIDIfOutOctets:      uint64(1024 * 1024 / 2),
		OIDLinuxCPUIdle:     int64(30),
		OIDLinuxMemTotal:    int64(8000000),
		OIDLinuxMemAvail:    int64(2000000),
		OIDLinuxMemBuffer:   int64(500000),
		OIDLinuxMemCached:   int64(500000),
		OIDLinuxDiskPercent: int64(42),
	}
}

func windowsReading() model.RawReading {
	return model.RawReading{
		OIDSysDescr:              "Hardware: Intel64 Family 6 - Software: Windows Version 6.3 (Build 17763 Multiprocessor Free)",
		OIDSysUpTime:             uint64(36000000),
		OIDIfInOctets:            uint64(0),
		OIDIfOutOctets:           uint64(0),
		OIDWindowsCPULoad:        int64(55),
		OIDWindowsAllocUnits:     int64(4096),
		OIDWindowsMemTotalUnits:  int64(4000000),
		OIDWindowsMemUsedUnits:   int64(1000000),
		OIDWindowsDiskTotalUnits: int64(1000000),
		OIDWindowsDiskUsedUnits:  int64(800000),
	}
}

func TestNormalizeLinux(t *testing.T) {
	snap := Normalize(linuxReading(), model.OSLinux, observedAt)

	assert.Equal(t, 70.0, snap.CPUUtilizationPct)
	assert.Equal(t, 62.5, snap.RAMUsagePct)
	assert.Equal(t, 42.0, snap.DiskUsagePct)
	assert.Equal(t, 3.5, snap.NetworkTrafficMB)
	assert.Equal(t, "1d 0h 0m", snap.Uptime)
	assert.Equal(t, model.StatusWarning, snap.Status)
	assert.Equal(t, model.OSLinux, snap.OSFamily)
	assert.Equal(t, observedAt, snap.ObservedAt)
}

func TestNormalizeWindows(t *testing.T) {
	snap := Normalize(windowsReading(), model.OSWindows, observedAt)

	assert.Equal(t, 55.0, snap.CPUUtilizationPct)
	assert.Equal(t, 25.0, snap.RAMUsagePct)
	assert.Equal(t, 80.0, snap.DiskUsagePct)
	assert.Equal(t, 0.0, snap.NetworkTrafficMB)
	assert.Equal(t, "4d 4h 0m", snap.Uptime)
	assert.Equal(t, model.StatusWarning, snap.Status)
	assert.Equal(t, model.OSWindows, snap.OSFamily)
}

func TestNormalizeDetectsFamilyWhenUnknown(t *testing.T) {
	snap := Normalize(windowsReading(), model.OSUnknown, observedAt)
	assert.Equal(t, model.OSWindows, snap.OSFamily)
	assert.Equal(t, 55.0, snap.CPUUtilizationPct)

	snap = Normalize(model.RawReading{}, model.OSUnknown, observedAt)
	assert.Equal(t, model.OSLinux, snap.OSFamily)
}

func TestNormalizeClampsPercentages(t *testing.T) {
	tests := []struct {
		name   string
		family model.OSFamily
		raw    model.RawReading
	}{
		{
			name:   "linux available larger than total",
			family: model.OSLinux,
			raw: model.RawReading{
				OIDLinuxCPUIdle:     int64(130),
				OIDLinuxMemTotal:    int64(1000),
				OIDLinuxMemAvail:    int64(5000),
				OIDLinuxDiskPercent: int64(140),
			},
		},
		{
			name:   "linux negative idle",
			family: model.OSLinux,
			raw: model.RawReading{
				OIDLinuxCPUIdle:     int64(-20),
				OIDLinuxMemTotal:    int64(-1000),
				OIDLinuxDiskPercent: int64(-3),
			},
		},
		{
			name:   "windows used larger than total",
			family: model.OSWindows,
			raw: model.RawReading{
				OIDWindowsCPULoad:        int64(250),
				OIDWindowsMemTotalUnits:  int64(10),
				OIDWindowsMemUsedUnits:   int64(999),
				OIDWindowsDiskTotalUnits: int64(10),
				OIDWindowsDiskUsedUnits:  int64(-5),
			},
		},
		{
			name:   "string values",
			family: model.OSLinux,
			raw: model.RawReading{
				OIDLinuxCPUIdle:     "not a number",
				OIDLinuxMemTotal:    "2048",
				OIDLinuxMemAvail:    "1024",
				OIDLinuxDiskPercent: "99.5",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Normalize(tt.raw, tt.family, observedAt)
			for _, v := range []float64{snap.CPUUtilizationPct, snap.RAMUsagePct, snap.DiskUsagePct} {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 100.0)
			}
		})
	}
}

func TestNormalizeIsPure(t *testing.T) {
	for _, family := range []model.OSFamily{model.OSLinux, model.OSWindows} {
		raw := linuxReading()
		if family == model.OSWindows {
			raw = windowsReading()
		}
		assert.Equal(t, Normalize(raw, family, observedAt), Normalize(raw, family, observedAt))
	}
}

func TestNormalizeMissingKeyEqualsZero(t *testing.T) {
	cases := map[model.OSFamily]model.RawReading{
		model.OSLinux:   linuxReading(),
		model.OSWindows: windowsReading(),
	}
	for family, full := range cases {
		for oid := range full {
			if oid == OIDSysDescr {
				continue
			}
			missing := model.RawReading{}
			zeroed := model.RawReading{}
			for k, v := range full {
				if k == oid {
					zeroed[k] = int64(0)
					continue
				}
				missing[k] = v
				zeroed[k] = v
			}
			require.NotPanics(t, func() { Normalize(missing, family, observedAt) })
			assert.Equal(t, Normalize(zeroed, family, observedAt), Normalize(missing, family, observedAt), "family=%s oid=%s", family, oid)
		}
	}
}

func TestNormalizeEmptyReading(t *testing.T) {
	snap := Normalize(model.RawReading{}, model.OSWindows, observedAt)
	assert.Equal(t, model.MetricSnapshot{
		Uptime:     "0d 0h 0m",
		Status:     model.StatusHealthy,
		OSFamily:   model.OSWindows,
		ObservedAt: observedAt,
	}, snap)

	// An idle counter of zero reads as a fully busy processor.
	snap = Normalize(model.RawReading{}, model.OSLinux, observedAt)
	assert.Equal(t, 100.0, snap.CPUUtilizationPct)
	assert.Equal(t, model.StatusCritical, snap.Status)
}

func TestNormalizeNetworkRounding(t *testing.T) {
	snap := Normalize(model.RawReading{
		OIDIfInOctets:  uint64(1234567),
		OIDIfOutOctets: uint64(7654321),
	}, model.OSWindows, observedAt)
	assert.Equal(t, 8.48, snap.NetworkTrafficMB)
}

func TestPollOIDs(t *testing.T) {
	linux := PollOIDs(model.OSLinux)
	assert.Equal(t, CommonOIDs(), linux[:len(commonOIDs)])
	assert.Contains(t, linux, OIDLinuxCPUIdle)
	assert.NotContains(t, linux, OIDWindowsCPULoad)

	windows := PollOIDs(model.OSWindows)
	assert.Contains(t, windows, OIDWindowsDiskUsedUnits)
	assert.Len(t, windows, len(commonOIDs)+len(windowsOIDs))

	assert.Equal(t, CommonOIDs(), PollOIDs(model.OSUnknown))
	assert.Equal(t, "1.3.6.1.2.1.2.2.1.10.2", OIDIfInOctets)
	assert.Equal(t, "1.3.6.1.4.1.2021.9.1.9.1", OIDLinuxDiskPercent)
}
