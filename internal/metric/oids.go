// Package metric holds the OID catalog and turns raw SNMP readings into
// normalized health snapshots.
package metric

import "snmp-health-agent/internal/model"

// Interface and storage rows are fixed; the agent does not walk tables.
const (
	InterfaceIndex     = "2"
	LinuxDiskIndex     = "1"
	WindowsCPUIndex    = "1"
	WindowsDiskIndex   = "1"
	WindowsMemoryIndex = "4"
	hrStorageEntryOID  = "1.3.6.1.2.1.25.2.3.1"
	hrProcessorLoadOID = "1.3.6.1.2.1.25.3.3.1.2"
	ucdMemoryOID       = "1.3.6.1.4.1.2021.4"
	ucdSystemStatsOID  = "1.3.6.1.4.1.2021.11"
	ucdDiskEntryOID    = "1.3.6.1.4.1.2021.9.1"
	ifEntryOID         = "1.3.6.1.2.1.2.2.1"
)

// Common (SNMPv2-MIB, IF-MIB).
const (
	OIDSysDescr    = "1.3.6.1.2.1.1.1.0"
	OIDSysUpTime   = "1.3.6.1.2.1.1.3.0"
	OIDIfInOctets  = ifEntryOID + ".10." + InterfaceIndex
	OIDIfOutOctets = ifEntryOID + ".16." + InterfaceIndex
)

// Linux (UCD-SNMP-MIB).
const (
	OIDLinuxCPUIdle     = ucdSystemStatsOID + ".11.0"
	OIDLinuxMemTotal    = ucdMemoryOID + ".5.0"
	OIDLinuxMemAvail    = ucdMemoryOID + ".6.0"
	OIDLinuxMemBuffer   = ucdMemoryOID + ".14.0"
	OIDLinuxMemCached   = ucdMemoryOID + ".15.0"
	OIDLinuxDiskPercent = ucdDiskEntryOID + ".9." + LinuxDiskIndex
)

// Windows (HOST-RESOURCES-MIB).
const (
	OIDWindowsCPULoad        = hrProcessorLoadOID + "." + WindowsCPUIndex
	OIDWindowsAllocUnits     = hrStorageEntryOID + ".4." + WindowsDiskIndex
	OIDWindowsMemTotalUnits  = hrStorageEntryOID + ".5." + WindowsMemoryIndex
	OIDWindowsMemUsedUnits   = hrStorageEntryOID + ".6." + WindowsMemoryIndex
	OIDWindowsDiskTotalUnits = hrStorageEntryOID + ".5." + WindowsDiskIndex
	OIDWindowsDiskUsedUnits  = hrStorageEntryOID + ".6." + WindowsDiskIndex
)

var commonOIDs = []string{
	OIDSysDescr,
	OIDSysUpTime,
	OIDIfInOctets,
	OIDIfOutOctets,
}

var linuxOIDs = []string{
	OIDLinuxCPUIdle,
	OIDLinuxMemTotal,
	OIDLinuxMemAvail,
	OIDLinuxMemBuffer,
	OIDLinuxMemCached,
	OIDLinuxDiskPercent,
}

var windowsOIDs = []string{
	OIDWindowsCPULoad,
	OIDWindowsAllocUnits,
	OIDWindowsMemTotalUnits,
	OIDWindowsMemUsedUnits,
	OIDWindowsDiskTotalUnits,
	OIDWindowsDiskUsedUnits,
}

// CommonOIDs returns the identifiers requested from every host.
func CommonOIDs() []string {
	return append([]string(nil), commonOIDs...)
}

// FamilyOIDs returns the OS-specific identifiers for family, nil for an
// unknown family.
func FamilyOIDs(family model.OSFamily) []string {
	switch family {
	case model.OSLinux:
		return append([]string(nil), linuxOIDs...)
	case model.OSWindows:
		return append([]string(nil), windowsOIDs...)
	default:
		return nil
	}
}

// PollOIDs is the full request for one poll: the common set followed by the
// family set.
func PollOIDs(family model.OSFamily) []string {
	return append(CommonOIDs(), FamilyOIDs(family)...)
}
