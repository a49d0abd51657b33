package explorer

import (
	"regexp"
	"strconv"
)

// versionPattern mirrors original_source's try_parse_version regex exactly
// (src/index/semver.h): an optional leading "v" followed by three
// dot-separated integer runs, matched anywhere in the name rather than
// anchored — "schema-v2.1.0" and "2.1.0-beta" both parse.
var versionPattern = regexp.MustCompile(`v?(\d+)\.(\d+)\.(\d+)`)

// version is the (major, minor, patch) tuple a name parses to, used only
// for descending comparison — there is no general SemVer constraint
// solving here, just the three-integer compare the original performs.
type version struct {
	major, minor, patch uint64
}

// less reports whether v sorts before other when both are present,
// ascending by (major, minor, patch).
func (v version) less(other version) bool {
	if v.major != other.major {
		return v.major < other.major
	}
	if v.minor != other.minor {
		return v.minor < other.minor
	}
	return v.patch < other.patch
}

// tryParseVersion parses name as a `v?X.Y.Z` version tuple, reporting
// whether it matched.
func tryParseVersion(name string) (version, bool) {
	match := versionPattern.FindStringSubmatch(name)
	if match == nil {
		return version{}, false
	}
	major, _ := strconv.ParseUint(match[1], 10, 64)
	minor, _ := strconv.ParseUint(match[2], 10, 64)
	patch, _ := strconv.ParseUint(match[3], 10, 64)
	return version{major: major, minor: minor, patch: patch}, true
}
