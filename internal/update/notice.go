// Package update tells the user when a newer release is available.
package update

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/redditdl/userfinder/internal/settings"
	"go.uber.org/zap"
)

// DefaultReleasesURL is the page users are sent to for downloads.
const DefaultReleasesURL = "https://github.com/redditdl/userfinder/releases"

// Notice describes an available update.
type Notice struct {
	Current     string
	Available   string
	ReleasesURL string
	DirectURL   string
}

// NewNotice creates a notice pointing at the default releases page.
func NewNotice(current, available string) Notice {
	return Notice{
		Current:     current,
		Available:   available,
		ReleasesURL: DefaultReleasesURL,
	}
}

// Message returns the text shown in the notice.
func (n Notice) Message() string {
	return fmt.Sprintf("A new version of the user finder is available.\n\nCurrent Version: %s\nNew Version: %s",
		n.Current, n.Available)
}

// LinkText returns the caption of the download link.
func (n Notice) LinkText() string {
	return "User Finder - Version " + n.Available
}

// Link returns the download page of the release, or the releases page
// when the release has none.
func (n Notice) Link() string {
	if n.DirectURL != "" {
		return n.DirectURL
	}
	return n.ReleasesURL
}

// ShouldNotify reports whether the user should see a notice for available.
// It is false when available is not newer than current or when the user
// opted out of notifications for exactly that version.
func ShouldNotify(s *settings.Settings, current, available string, logger *zap.Logger) bool {
	availableVersion, err := parseVersion(available)
	if err != nil {
		logger.Warn("Ignoring unparseable release version",
			zap.String("version", available),
			zap.Error(err))
		return false
	}

	currentVersion, err := parseVersion(current)
	if err != nil {
		// Development builds carry no usable version and always see updates
		logger.Debug("Current version is not semantic", zap.String("version", current))
	} else if !availableVersion.GreaterThan(currentVersion) {
		return false
	}

	if skipped := s.DoNotNotifyVersion(); skipped != "" {
		skippedVersion, err := parseVersion(skipped)
		if err == nil && skippedVersion.Equal(availableVersion) {
			return false
		}
	}

	return true
}

// Dismiss records the user's choice when a notice is closed. When
// doNotNotify is set the notice's version is suppressed from then on and
// the dialog geometry is saved with it.
func Dismiss(s *settings.Settings, notice Notice, doNotNotify bool, geometry []byte) error {
	if !doNotNotify {
		return nil
	}

	if err := s.SetDoNotNotifyVersion(notice.Available); err != nil {
		return fmt.Errorf("failed to store skipped version: %w", err)
	}
	if geometry != nil {
		if err := s.SetUpdateDialogGeometry(geometry); err != nil {
			return fmt.Errorf("failed to store dialog geometry: %w", err)
		}
	}

	return s.Flush()
}

// parseVersion parses a version with or without a leading "v".
func parseVersion(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimSpace(version))
}
