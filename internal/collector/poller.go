package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cast"

	"snmp-health-agent/internal/metric"
	"snmp-health-agent/internal/model"
	"snmp-health-agent/internal/snmp"
)

// DefaultCommunity is used for hosts registered without a community string.
const DefaultCommunity = "public"

// Opener opens SNMP sessions. *snmp.Transport satisfies it.
type Opener interface {
	Open(address, community string) (snmp.Session, error)
}

// Poller reads one host end to end: detect or reuse the OS family, fetch the
// OID set for it in a single exchange and normalize the reading.
type Poller struct {
	opener           Opener
	clock            clock.Clock
	defaultCommunity string
	logger           *slog.Logger
}

func NewPoller(opener Opener, clk clock.Clock, defaultCommunity string, logger *slog.Logger) *Poller {
	if clk == nil {
		clk = clock.New()
	}
	if strings.TrimSpace(defaultCommunity) == "" {
		defaultCommunity = DefaultCommunity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{opener: opener, clock: clk, defaultCommunity: defaultCommunity, logger: logger}
}

// Poll returns a fresh snapshot for host. The context is only checked before
// the session is opened; an exchange in flight is bounded by the SNMP
// timeout.
func (p *Poller) Poll(ctx context.Context, host model.HostTarget) (model.MetricSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.MetricSnapshot{}, fmt.Errorf("poll %s: %w", host.Address, err)
	}

	sess, err := p.opener.Open(host.Address, p.community(host))
	if err != nil {
		return model.MetricSnapshot{}, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			p.logger.Debug("close snmp session failed", "address", host.Address, "error", cerr)
		}
	}()

	family := host.OSFamily
	if !family.Known() {
		descr, err := sess.Get(metric.OIDSysDescr)
		if err != nil {
			return model.MetricSnapshot{}, fmt.Errorf("detect os family: %w", err)
		}
		family = metric.DetectOSFamily(cast.ToString(descr))
		p.logger.Debug("os family detected", "address", host.Address, "os_family", family)
	}

	raw, err := sess.GetMany(metric.PollOIDs(family))
	if err != nil {
		return model.MetricSnapshot{}, err
	}
	return metric.Normalize(raw, family, p.clock.Now()), nil
}

func (p *Poller) community(host model.HostTarget) string {
	if c := strings.TrimSpace(host.Community); c != "" {
		return c
	}
	return p.defaultCommunity
}
