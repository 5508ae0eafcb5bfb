package taxconfig

import (
	"sync/atomic"

	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

type configKey struct {
	jurisdiction id.Jurisdiction
	year         id.TaxYear
}

// snapshot is an immutable view of every published config. Readers hold one
// snapshot for the whole calculation, so a concurrent publish can never show
// them a partially-updated table.
type snapshot struct {
	configs map[configKey]*TaxYearConfig
}

// Repository serves published TaxYearConfigs. Reads are lock-free; Publish
// swaps the snapshot pointer atomically (copy-on-write).
type Repository struct {
	current atomic.Pointer[snapshot]
}

// NewRepository builds a repository holding the given configs. Invalid
// configs are rejected up front rather than discovered mid-calculation.
func NewRepository(configs ...*TaxYearConfig) (*Repository, error) {
	r := &Repository{}
	r.current.Store(&snapshot{configs: map[configKey]*TaxYearConfig{}})
	if err := r.Publish(configs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns the published config for (jurisdiction, year), or
// ConfigNotFound if the year is unpublished. Never silently defaults.
func (r *Repository) Get(jurisdiction id.Jurisdiction, year id.TaxYear) (*TaxYearConfig, error) {
	snap := r.current.Load()
	cfg, ok := snap.configs[configKey{jurisdiction: jurisdiction, year: year}]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeConfigNotFound,
			"no published tax configuration for %s %s", jurisdiction, year)
	}
	return cfg, nil
}

// GetVersion returns the config only if its version key matches the pinned
// one. Historical recalculations use this to guarantee byte-reproducibility.
func (r *Repository) GetVersion(jurisdiction id.Jurisdiction, year id.TaxYear, versionKey string) (*TaxYearConfig, error) {
	cfg, err := r.Get(jurisdiction, year)
	if err != nil {
		return nil, err
	}
	if cfg.VersionKey() != versionKey {
		return nil, dErrors.Newf(dErrors.CodeConfigNotFound,
			"pinned config %s superseded by %s", versionKey, cfg.VersionKey())
	}
	return cfg, nil
}

// Publish validates the configs and swaps in a new snapshot containing them.
// Existing entries for other keys are carried over untouched; an entry for an
// already-published key supersedes it (the old pointer stays valid for any
// in-flight calculation that already loaded it).
func (r *Repository) Publish(configs ...*TaxYearConfig) error {
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	old := r.current.Load()
	next := &snapshot{configs: make(map[configKey]*TaxYearConfig, len(old.configs)+len(configs))}
	for k, v := range old.configs {
		next.configs[k] = v
	}
	for _, cfg := range configs {
		next.configs[configKey{jurisdiction: cfg.Jurisdiction, year: cfg.TaxYear}] = cfg
	}
	r.current.Store(next)
	return nil
}

// Years lists the published tax years for a jurisdiction. Read-only helper
// for the config inspection endpoint.
func (r *Repository) Years(jurisdiction id.Jurisdiction) []id.TaxYear {
	snap := r.current.Load()
	var years []id.TaxYear
	for k := range snap.configs {
		if k.jurisdiction == jurisdiction {
			years = append(years, k.year)
		}
	}
	return years
}
