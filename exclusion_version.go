package traverse

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// VersionExclusionRule excludes properties introduced after, or retired
// before, the configured version.
type VersionExclusionRule struct {
	version   string
	canonical string
}

// NewVersionExclusionRule validates version and builds the rule. Versions may
// omit the leading "v" and trailing components ("2" and "v2.0.0" compare equal).
func NewVersionExclusionRule(version string) (*VersionExclusionRule, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, ErrVersionRequired
	}
	canonical, ok := canonicalVersion(version)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return &VersionExclusionRule{version: version, canonical: canonical}, nil
}

// Version returns the version as configured.
func (r *VersionExclusionRule) Version() string {
	return r.version
}

// ShouldExclude implements ExclusionRule. Classes are never excluded by
// version; a property bound that does not parse is reported as an error.
func (r *VersionExclusionRule) ShouldExclude(_ *ClassMetadata, property *PropertyMetadata, _ *Context) (bool, error) {
	if property == nil {
		return false, nil
	}
	if since := property.SinceVersion; since != "" {
		bound, ok := canonicalVersion(since)
		if !ok {
			return false, fmt.Errorf("%w: property %q since %q", ErrInvalidVersion, property.Name, since)
		}
		if semver.Compare(bound, r.canonical) > 0 {
			return true, nil
		}
	}
	if until := property.UntilVersion; until != "" {
		bound, ok := canonicalVersion(until)
		if !ok {
			return false, fmt.Errorf("%w: property %q until %q", ErrInvalidVersion, property.Name, until)
		}
		if semver.Compare(bound, r.canonical) < 0 {
			return true, nil
		}
	}
	return false, nil
}

func canonicalVersion(version string) (string, bool) {
	version = strings.TrimSpace(version)
	if version == "" {
		return "", false
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		return "", false
	}
	return semver.Canonical(version), true
}
