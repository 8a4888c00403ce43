package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"snmp-health-agent/internal/model"
)

func TestHostFromDoc(t *testing.T) {
	h := hostFromDoc(serverHealthDoc{ServerIP: " 10.0.0.5 ", OSType: "windows", SNMPCommunity: "s3cret"}, "public")
	assert.Equal(t, model.HostTarget{Address: "10.0.0.5", Community: "s3cret", OSFamily: model.OSWindows}, h)

	h = hostFromDoc(serverHealthDoc{ServerIP: "10.0.0.6", OSType: "beos"}, "public")
	assert.Equal(t, "public", h.Community)
	assert.Equal(t, model.OSUnknown, h.OSFamily)
}

func TestSnapshotUpdate(t *testing.T) {
	observed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := observed.Add(time.Second)
	snap := model.MetricSnapshot{
		CPUUtilizationPct: 70,
		RAMUsagePct:       62.5,
		DiskUsagePct:      40,
		NetworkTrafficMB:  8.48,
		Uptime:            "1d 0h 0m",
		Status:            model.StatusWarning,
		OSFamily:          model.OSLinux,
		ObservedAt:        observed,
	}

	update := snapshotUpdate(snap, now)
	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, 70.0, set["cpuUtilization"])
	assert.Equal(t, 62.5, set["ramUsage"])
	assert.Equal(t, 40.0, set["diskSpace"])
	assert.Equal(t, 8.48, set["networkTraffic"])
	assert.Equal(t, "1d 0h 0m", set["uptime"])
	assert.Equal(t, "warning", set["status"])
	assert.Equal(t, "linux", set["osType"])
	assert.Equal(t, observed, set["lastUpdated"])
	assert.NotContains(t, set, "snmpCommunity")

	snap.OSFamily = model.OSUnknown
	set = snapshotUpdate(snap, now)["$set"].(bson.M)
	assert.NotContains(t, set, "osType")
}

func TestRedactURI(t *testing.T) {
	assert.Equal(t, "mongodb://***@db.internal:27017/?authSource=admin", redactURI("mongodb://admin:pw@db.internal:27017/?authSource=admin"))
	assert.Equal(t, "mongodb://localhost:27017", redactURI("mongodb://localhost:27017"))
}
