package config

import (
	"sort"
	"time"
)

// Profiles are ready-made configurations for common setups.
var Profiles = map[string]*Config{
	"local": {
		Backend: BackendConfig{URL: DefaultBackendURL},
		Session: SessionConfig{Driver: "file"},
	},
	"ephemeral": {
		Backend: BackendConfig{URL: DefaultBackendURL},
		Session: SessionConfig{Driver: "memory"},
	},
	"shared": {
		Backend: BackendConfig{URL: DefaultBackendURL, Timeout: 2 * time.Minute},
		Session: SessionConfig{Driver: "sqlite"},
	},
	"sparse": {
		Backend: BackendConfig{URL: DefaultBackendURL},
		Session: SessionConfig{Driver: "file"},
		Layout: LayoutConfig{
			InitialConditions: []int{1, 2, 3, 4},
			Restrictions:      []int{1, 2},
		},
	},
}

// GetProfile returns a copy of the named profile with unset fields filled
// from DefaultConfig, or nil when there is no such profile.
func GetProfile(name string) *Config {
	p, ok := Profiles[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	if p.Backend.URL != "" {
		cfg.Backend.URL = p.Backend.URL
	}
	cfg.Backend.Timeout = p.Backend.Timeout
	if p.Session.Driver != "" {
		cfg.Session.Driver = p.Session.Driver
	}
	cfg.Layout = LayoutConfig{
		InitialConditions: append([]int(nil), p.Layout.InitialConditions...),
		Restrictions:      append([]int(nil), p.Layout.Restrictions...),
	}
	return cfg
}

func ListProfiles() []string {
	names := make([]string, 0, len(Profiles))
	for name := range Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
