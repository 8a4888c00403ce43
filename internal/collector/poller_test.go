package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snmp-health-agent/internal/metric"
	"snmp-health-agent/internal/model"
	"snmp-health-agent/internal/snmp"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSession struct {
	sysDescr string
	getErr   error
	reading  model.RawReading
	manyErr  error
	// block, when set, delays GetMany until it is closed.
	block <-chan struct{}

	mu        sync.Mutex
	gets      []string
	requested []string
	closes    int
}

func (s *fakeSession) Get(oid string) (any, error) {
	s.mu.Lock()
	s.gets = append(s.gets, oid)
	s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.sysDescr, nil
}

func (s *fakeSession) GetMany(oids []string) (model.RawReading, error) {
	s.mu.Lock()
	s.requested = append([]string(nil), oids...)
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	if s.manyErr != nil {
		return nil, s.manyErr
	}
	return s.reading, nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

type fakeOpener struct {
	mu          sync.Mutex
	sessions    map[string]*fakeSession
	openErr     map[string]error
	communities map[string]string
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{
		sessions:    map[string]*fakeSession{},
		openErr:     map[string]error{},
		communities: map[string]string{},
	}
}

func (o *fakeOpener) Open(address, community string) (snmp.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.communities[address] = community
	if err := o.openErr[address]; err != nil {
		return nil, err
	}
	sess, ok := o.sessions[address]
	if !ok {
		return nil, &snmp.RequestError{Kind: snmp.ErrTransport, Target: address, Err: errors.New("unknown host")}
	}
	return sess, nil
}

func linuxReading() model.RawReading {
	return model.RawReading{
		metric.OIDSysUpTime:        int64(8640000),
		metric.OIDIfInOctets:       int64(1048576),
		metric.OIDIfOutOctets:      int64(1048576),
		metric.OIDLinuxCPUIdle:     int64(30),
		metric.OIDLinuxMemTotal:    int64(8000000),
		metric.OIDLinuxMemAvail:    int64(2000000),
		metric.OIDLinuxMemBuffer:   int64(500000),
		metric.OIDLinuxMemCached:   int64(500000),
		metric.OIDLinuxDiskPercent: int64(40),
	}
}

func TestPollKnownFamilySkipsDetection(t *testing.T) {
	opener := newFakeOpener()
	sess := &fakeSession{reading: linuxReading()}
	opener.sessions["10.0.0.1"] = sess
	clk := clock.NewMock()
	p := NewPoller(opener, clk, "", discardLogger())

	snap, err := p.Poll(context.Background(), model.HostTarget{Address: "10.0.0.1", Community: "c1", OSFamily: model.OSLinux})
	require.NoError(t, err)

	assert.Empty(t, sess.gets)
	assert.Equal(t, metric.PollOIDs(model.OSLinux), sess.requested)
	assert.Equal(t, 1, sess.closeCount())
	assert.Equal(t, "c1", opener.communities["10.0.0.1"])

	assert.Equal(t, model.OSLinux, snap.OSFamily)
	assert.Equal(t, 70.0, snap.CPUUtilizationPct)
	assert.Equal(t, 62.5, snap.RAMUsagePct)
	assert.Equal(t, 40.0, snap.DiskUsagePct)
	assert.Equal(t, 2.0, snap.NetworkTrafficMB)
	assert.Equal(t, "1d 0h 0m", snap.Uptime)
	assert.Equal(t, model.StatusWarning, snap.Status)
	assert.Equal(t, clk.Now(), snap.ObservedAt)
}

func TestPollDetectsFamilyInSameSession(t *testing.T) {
	opener := newFakeOpener()
	sess := &fakeSession{
		sysDescr: "Hardware: Intel64 - Software: Windows Server 2019 Standard",
		reading: model.RawReading{
			metric.OIDWindowsCPULoad:        int64(55),
			metric.OIDWindowsDiskTotalUnits: int64(1000),
			metric.OIDWindowsDiskUsedUnits:  int64(800),
		},
	}
	opener.sessions["10.0.0.2"] = sess
	p := NewPoller(opener, clock.NewMock(), "", discardLogger())

	snap, err := p.Poll(context.Background(), model.HostTarget{Address: "10.0.0.2"})
	require.NoError(t, err)

	assert.Equal(t, []string{metric.OIDSysDescr}, sess.gets)
	assert.Equal(t, metric.PollOIDs(model.OSWindows), sess.requested)
	assert.Equal(t, 1, sess.closeCount())
	assert.Equal(t, DefaultCommunity, opener.communities["10.0.0.2"])
	assert.Equal(t, model.OSWindows, snap.OSFamily)
	assert.Equal(t, 55.0, snap.CPUUtilizationPct)
	assert.Equal(t, 80.0, snap.DiskUsagePct)
	assert.Equal(t, 0.0, snap.RAMUsagePct)
}

func TestPollFailuresCloseSession(t *testing.T) {
	timeout := &snmp.RequestError{Kind: snmp.ErrTimeout, Target: "10.0.0.3", Err: errors.New("request timeout (after 1 retries)")}

	t.Run("detection", func(t *testing.T) {
		opener := newFakeOpener()
		sess := &fakeSession{getErr: timeout}
		opener.sessions["10.0.0.3"] = sess
		p := NewPoller(opener, nil, "", discardLogger())

		_, err := p.Poll(context.Background(), model.HostTarget{Address: "10.0.0.3"})
		assert.ErrorIs(t, err, snmp.ErrTimeout)
		assert.Nil(t, sess.requested)
		assert.Equal(t, 1, sess.closeCount())
	})

	t.Run("exchange", func(t *testing.T) {
		opener := newFakeOpener()
		sess := &fakeSession{manyErr: timeout}
		opener.sessions["10.0.0.3"] = sess
		p := NewPoller(opener, nil, "", discardLogger())

		_, err := p.Poll(context.Background(), model.HostTarget{Address: "10.0.0.3", OSFamily: model.OSLinux})
		assert.ErrorIs(t, err, snmp.ErrTimeout)
		assert.Equal(t, 1, sess.closeCount())
	})

	t.Run("open", func(t *testing.T) {
		p := NewPoller(newFakeOpener(), nil, "", discardLogger())
		_, err := p.Poll(context.Background(), model.HostTarget{Address: "nohost"})
		assert.ErrorIs(t, err, snmp.ErrTransport)
	})
}

func TestPollHonorsCancelledContextBeforeOpen(t *testing.T) {
	opener := newFakeOpener()
	opener.sessions["10.0.0.4"] = &fakeSession{reading: linuxReading()}
	p := NewPoller(opener, nil, "", discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := p.Poll(ctx, model.HostTarget{Address: "10.0.0.4", OSFamily: model.OSLinux})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, opener.communities)
}
