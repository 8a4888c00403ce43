package store

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"snmp-health-agent/internal/model"
)

// serverHealthDoc is one document of the serverhealths collection shared with
// the dashboard backend.
type serverHealthDoc struct {
	ServerIP       string    `bson:"serverIp"`
	OSType         string    `bson:"osType,omitempty"`
	SNMPCommunity  string    `bson:"snmpCommunity,omitempty"`
	CPUUtilization float64   `bson:"cpuUtilization"`
	RAMUsage       float64   `bson:"ramUsage"`
	DiskSpace      float64   `bson:"diskSpace"`
	NetworkTraffic float64   `bson:"networkTraffic"`
	Uptime         string    `bson:"uptime"`
	Status         string    `bson:"status"`
	LastUpdated    time.Time `bson:"lastUpdated"`
}

// hostFromDoc maps a stored document to a poll target. An unparsable osType
// is treated as not yet detected.
func hostFromDoc(doc serverHealthDoc, defaultCommunity string) model.HostTarget {
	community := strings.TrimSpace(doc.SNMPCommunity)
	if community == "" {
		community = defaultCommunity
	}
	family, err := model.ParseOSFamily(doc.OSType)
	if err != nil {
		family = model.OSUnknown
	}
	return model.HostTarget{
		Address:   strings.TrimSpace(doc.ServerIP),
		Community: community,
		OSFamily:  family,
	}
}

func addressFilter(address string) bson.M {
	return bson.M{"serverIp": address}
}

// snapshotUpdate replaces the metric fields of a host and records the OS
// family used for the reading. Registry fields such as snmpCommunity are left
// alone.
func snapshotUpdate(snap model.MetricSnapshot, now time.Time) bson.M {
	set := bson.M{
		"cpuUtilization": snap.CPUUtilizationPct,
		"ramUsage":       snap.RAMUsagePct,
		"diskSpace":      snap.DiskUsagePct,
		"networkTraffic": snap.NetworkTrafficMB,
		"uptime":         snap.Uptime,
		"status":         string(snap.Status),
		"lastUpdated":    snap.ObservedAt.UTC(),
		"updatedAt":      now.UTC(),
	}
	if snap.OSFamily.Known() {
		set["osType"] = string(snap.OSFamily)
	}
	return bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": now.UTC()},
	}
}
