package model

import "time"

// MetricSnapshot is the normalized health record produced by one successful
// poll of one host.
type MetricSnapshot struct {
	CPUUtilizationPct float64      `json:"cpu_utilization_pct"`
	RAMUsagePct       float64      `json:"ram_usage_pct"`
	DiskUsagePct      float64      `json:"disk_usage_pct"`
	NetworkTrafficMB  float64      `json:"network_traffic_mb"`
	Uptime            string       `json:"uptime"`
	Status            HealthStatus `json:"status"`
	OSFamily          OSFamily     `json:"os_family"`
	ObservedAt        time.Time    `json:"observed_at"`
}
