package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"snmp-health-agent/internal/model"
)

type hostFile struct {
	Hosts []hostEntry `yaml:"hosts"`
}

type hostEntry struct {
	Address   string `yaml:"address"`
	Community string `yaml:"community"`
	OS        string `yaml:"os"`
}

// FileRegistry reads hosts from a YAML file. The file is read again on every
// call, so edits take effect on the next cycle.
//
//	hosts:
//	  - address: 10.0.0.5
//	    community: public
//	    os: linux
type FileRegistry struct {
	path             string
	defaultCommunity string
}

func NewFileRegistry(path, defaultCommunity string) *FileRegistry {
	return &FileRegistry{path: path, defaultCommunity: defaultCommunity}
}

func (r *FileRegistry) ListHosts(_ context.Context) ([]model.HostTarget, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read host file: %w", err)
	}
	var f hostFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse host file %s: %w", r.path, err)
	}

	seen := make(map[string]struct{}, len(f.Hosts))
	hosts := make([]model.HostTarget, 0, len(f.Hosts))
	for i, e := range f.Hosts {
		addr := strings.TrimSpace(e.Address)
		if addr == "" {
			return nil, fmt.Errorf("host file %s: entry %d has no address", r.path, i)
		}
		if _, dup := seen[addr]; dup {
			return nil, fmt.Errorf("host file %s: duplicate address %s", r.path, addr)
		}
		seen[addr] = struct{}{}

		family, err := model.ParseOSFamily(e.OS)
		if err != nil {
			return nil, fmt.Errorf("host file %s: %s: %w", r.path, addr, err)
		}
		community := strings.TrimSpace(e.Community)
		if community == "" {
			community = r.defaultCommunity
		}
		hosts = append(hosts, model.HostTarget{Address: addr, Community: community, OSFamily: family})
	}
	return hosts, nil
}

func (r *FileRegistry) Lookup(ctx context.Context, address string) (model.HostTarget, error) {
	hosts, err := r.ListHosts(ctx)
	if err != nil {
		return model.HostTarget{}, err
	}
	address = strings.TrimSpace(address)
	for _, h := range hosts {
		if h.Address == address {
			return h, nil
		}
	}
	return model.HostTarget{}, fmt.Errorf("%s: %w", address, ErrHostNotFound)
}
