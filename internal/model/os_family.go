package model

import (
	"fmt"
	"strings"
)

// OSFamily is the operating system family of a polled host. The zero value
// means the family has not been detected yet.
type OSFamily string

const (
	OSUnknown OSFamily = ""
	OSLinux   OSFamily = "linux"
	OSWindows OSFamily = "windows"
)

func (f OSFamily) Known() bool {
	return f == OSLinux || f == OSWindows
}

func (f OSFamily) String() string {
	if f == OSUnknown {
		return "unknown"
	}
	return string(f)
}

// ParseOSFamily accepts the spellings used by host files and the registry
// collection. An empty string parses to OSUnknown.
func ParseOSFamily(s string) (OSFamily, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return OSUnknown, nil
	case "linux":
		return OSLinux, nil
	case "windows", "win":
		return OSWindows, nil
	default:
		return OSUnknown, fmt.Errorf("unsupported os family %q", s)
	}
}
