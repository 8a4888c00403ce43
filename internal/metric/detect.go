package metric

import (
	"strings"

	"snmp-health-agent/internal/model"
)

// DetectOSFamily guesses the family from a sysDescr value. It only looks for
// "windows" anywhere in the text; every other agent is treated as Linux, so
// unusual descriptions can be misclassified. Hosts with a configured family
// never reach this.
func DetectOSFamily(sysDescr string) model.OSFamily {
	if strings.Contains(strings.ToLower(sysDescr), "windows") {
		return model.OSWindows
	}
	return model.OSLinux
}
