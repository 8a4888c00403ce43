package model

type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWarning  HealthStatus = "warning"
	StatusCritical HealthStatus = "critical"
)

const (
	criticalThresholdPct = 80
	warningThresholdPct  = 60
)

// StatusFor classifies a host from its three utilization percentages.
// Critical wins over warning.
func StatusFor(cpuPct, ramPct, diskPct float64) HealthStatus {
	switch {
	case cpuPct > criticalThresholdPct || ramPct > criticalThresholdPct || diskPct > criticalThresholdPct:
		return StatusCritical
	case cpuPct > warningThresholdPct || ramPct > warningThresholdPct || diskPct > warningThresholdPct:
		return StatusWarning
	default:
		return StatusHealthy
	}
}
