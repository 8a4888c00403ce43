package collector

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"snmp-health-agent/internal/metric"
)

// Prober checks that a host answers SNMP with the given community.
type Prober struct {
	opener           Opener
	defaultCommunity string
}

func NewProber(opener Opener, defaultCommunity string) *Prober {
	if strings.TrimSpace(defaultCommunity) == "" {
		defaultCommunity = DefaultCommunity
	}
	return &Prober{opener: opener, defaultCommunity: defaultCommunity}
}

// Probe returns the host's sysDescr. Transport, timeout and exchange errors
// are returned unchanged so callers can tell them apart with errors.Is.
func (p *Prober) Probe(address, community string) (string, error) {
	if strings.TrimSpace(community) == "" {
		community = p.defaultCommunity
	}
	sess, err := p.opener.Open(address, community)
	if err != nil {
		return "", err
	}
	defer sess.Close()

	v, err := sess.Get(metric.OIDSysDescr)
	if err != nil {
		return "", err
	}
	descr, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("sysDescr of %s: %w", address, err)
	}
	return descr, nil
}
