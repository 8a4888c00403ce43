package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"snmp-health-agent/internal/model"
)

func TestDetectOSFamily(t *testing.T) {
	tests := []struct {
		descr string
		want  model.OSFamily
	}{
		{"Windows Server 2019 Standard", model.OSWindows},
		{"Hardware: x86 Family 6 Model 85 - Software: WINDOWS Version 10.0", model.OSWindows},
		{"Linux 5.10.0", model.OSLinux},
		{"Linux pve 6.8.12-4-pve #1 SMP PREEMPT_DYNAMIC x86_64", model.OSLinux},
		{"FreeBSD fw01 13.2-RELEASE", model.OSLinux},
		{"", model.OSLinux},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectOSFamily(tt.descr), tt.descr)
	}
}
