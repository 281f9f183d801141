// Package version provides centralized version management for pgshell.
// The version follows the PostgreSQL client it is compatible with, and is
// exposed both to the command line and to scripts through the VERSION,
// VERSION_NAME and VERSION_NUM variables.
package version

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Build information that can be set at compile time via -ldflags
var (
	// Version is the semantic version of the application
	Version = "17.2.0"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"

	// BuildDate is the date when the binary was built
	BuildDate = "unknown"
)

// Info represents comprehensive version information
type Info struct {
	Version   string          `json:"version"`
	Name      string          `json:"name"`
	Num       int             `json:"num"`
	GitCommit string          `json:"gitCommit"`
	BuildDate string          `json:"buildDate"`
	GoVersion string          `json:"goVersion"`
	Platform  string          `json:"platform"`
	SemVer    *semver.Version `json:"-"`
}

// GetInfo returns comprehensive version information
func GetInfo() (*Info, error) {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}

	return &Info{
		Version:   Version,
		Name:      nameOf(sv),
		Num:       numOf(sv),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		SemVer:    sv,
	}, nil
}

// Name returns the short release name, "major.minor", as stored in VERSION_NAME.
// An unparsable Version is returned unchanged.
func Name() string {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return Version
	}
	return nameOf(sv)
}

// Major returns the major release number as a string, e.g. "17".
func Major() string {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return Version
	}
	return strconv.FormatUint(sv.Major(), 10)
}

// Num returns the release as one comparable integer, major*10000+minor,
// as stored in VERSION_NUM.
func Num() int {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return 0
	}
	return numOf(sv)
}

// Banner returns the long form stored in VERSION.
func Banner() string {
	return fmt.Sprintf("pgshell %s on %s/%s, compiled by %s", Name(), runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// Variables returns the VERSION* session variables in the order they are set.
func Variables() [][2]string {
	return [][2]string{
		{"VERSION", Banner()},
		{"VERSION_NAME", Name()},
		{"VERSION_NUM", strconv.Itoa(Num())},
	}
}

func nameOf(sv *semver.Version) string {
	name := fmt.Sprintf("%d.%d", sv.Major(), sv.Minor())
	if pre := sv.Prerelease(); pre != "" {
		name += "-" + pre
	}
	return name
}

func numOf(sv *semver.Version) int {
	return int(sv.Major())*10000 + int(sv.Minor())
}

// GetFormattedVersion returns the one-line form printed by --version.
func GetFormattedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("pgshell %s (invalid version)", Version)
	}

	parts := []string{fmt.Sprintf("pgshell (PostgreSQL-compatible) %s", info.Name)}

	if info.GitCommit != "unknown" && info.GitCommit != "" {
		shortCommit := info.GitCommit
		if len(shortCommit) > 7 {
			shortCommit = shortCommit[:7]
		}
		parts = append(parts, fmt.Sprintf("commit %s", shortCommit))
	}

	if info.BuildDate != "unknown" && info.BuildDate != "" {
		parts = append(parts, fmt.Sprintf("built %s", info.BuildDate))
	}

	return strings.Join(parts, ", ")
}

// GetDetailedVersion returns detailed version information for debugging
func GetDetailedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("pgshell %s (error: %v)", Version, err)
	}

	lines := []string{
		fmt.Sprintf("pgshell %s", info.Version),
		fmt.Sprintf("Version Name: %s", info.Name),
		fmt.Sprintf("Version Num: %d", info.Num),
		fmt.Sprintf("Git Commit: %s", info.GitCommit),
		fmt.Sprintf("Build Date: %s", info.BuildDate),
		fmt.Sprintf("Go Version: %s", info.GoVersion),
		fmt.Sprintf("Platform: %s", info.Platform),
	}
	return strings.Join(lines, "\n")
}

// ValidateVersion validates that the current version is a valid semantic version
func ValidateVersion() error {
	_, err := semver.NewVersion(Version)
	if err != nil {
		return fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}
	return nil
}

// IsDevelopment returns true if this appears to be a development build
func IsDevelopment() bool {
	return GitCommit == "unknown" || BuildDate == "unknown"
}

// SetBuildInfo sets build information (used for testing)
func SetBuildInfo(version, gitCommit, buildDate string) {
	Version = version
	GitCommit = gitCommit
	BuildDate = buildDate
}
