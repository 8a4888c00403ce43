package metric

import (
	"time"

	"github.com/spf13/cast"

	"snmp-health-agent/internal/model"
)

// Normalize turns one reading into a snapshot. It never fails: an absent or
// unparsable value contributes 0 to its formula. When family is unknown it is
// detected from the sysDescr carried in the reading.
func Normalize(raw model.RawReading, family model.OSFamily, observedAt time.Time) model.MetricSnapshot {
	if !family.Known() {
		family = DetectOSFamily(text(raw, OIDSysDescr))
	}

	var cpu, ram, disk float64
	switch family {
	case model.OSWindows:
		cpu = number(raw, OIDWindowsCPULoad)
		ram = ratioPct(number(raw, OIDWindowsMemUsedUnits), number(raw, OIDWindowsMemTotalUnits))
		disk = ratioPct(number(raw, OIDWindowsDiskUsedUnits), number(raw, OIDWindowsDiskTotalUnits))
	default:
		cpu = 100 - number(raw, OIDLinuxCPUIdle)
		total := number(raw, OIDLinuxMemTotal)
		used := total - number(raw, OIDLinuxMemAvail) - number(raw, OIDLinuxMemBuffer) - number(raw, OIDLinuxMemCached)
		ram = ratioPct(used, total)
		disk = number(raw, OIDLinuxDiskPercent)
	}

	cpu = round2(clampPct(cpu))
	ram = round2(clampPct(ram))
	disk = round2(clampPct(disk))

	octets := number(raw, OIDIfInOctets) + number(raw, OIDIfOutOctets)

	return model.MetricSnapshot{
		CPUUtilizationPct: cpu,
		RAMUsagePct:       ram,
		DiskUsagePct:      disk,
		NetworkTrafficMB:  round2(octets / bytesPerMB),
		Uptime:            FormatUptime(ticks(raw, OIDSysUpTime)),
		Status:            model.StatusFor(cpu, ram, disk),
		OSFamily:          family,
		ObservedAt:        observedAt,
	}
}

func number(raw model.RawReading, oid string) float64 {
	v, ok := raw[oid]
	if !ok || v == nil {
		return 0
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return f
}

func ticks(raw model.RawReading, oid string) uint64 {
	v, ok := raw[oid]
	if !ok || v == nil {
		return 0
	}
	t, err := cast.ToUint64E(v)
	if err != nil {
		return 0
	}
	return t
}

func text(raw model.RawReading, oid string) string {
	v, ok := raw[oid]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}
