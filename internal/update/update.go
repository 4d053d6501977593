// Package update tells the user when a newer CLI release is published. The
// latest version is cached in ~/.tigris/update-check.json and refreshed in
// the background at most once per check interval; the notice is repeated at
// most once per notify interval.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/jsonc"

	"github.com/tigrisdata/cli/internal/constants"
	"github.com/tigrisdata/cli/internal/logging"
)

// Cache is the on-disk record of the last check. Times are Unix milliseconds.
type Cache struct {
	LatestVersion string `json:"latestVersion"`
	LastChecked   int64  `json:"lastChecked"`
	LastNotified  int64  `json:"lastNotified,omitempty"`
}

// DefaultCachePath returns ~/.tigris/update-check.json.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, constants.StateDirName, constants.UpdateCheckFileName), nil
}

// Checker compares the running version with the cached latest release.
type Checker struct {
	Current   string
	CachePath string
	URL       string
	Client    *http.Client
	Out       io.Writer
	Logger    *logging.Logger

	CheckInterval  time.Duration
	NotifyInterval time.Duration

	// Distribution is "package" for package-manager installs; anything else
	// is a standalone binary.
	Distribution string
	GOOS         string

	Now func() time.Time
}

// NewChecker returns a checker with the default endpoint, cache location
// and intervals.
func NewChecker(current string, out io.Writer, logger *logging.Logger) (*Checker, error) {
	path, err := DefaultCachePath()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Checker{
		Current:   current,
		CachePath: path,
		URL:       constants.ReleaseURL,
		Client: &http.Client{
			Timeout:   constants.UpdateCheckTimeout,
			Transport: logging.NewTransport(http.DefaultTransport, logger),
		},
		Out:            out,
		Logger:         logger,
		CheckInterval:  constants.UpdateCheckInterval,
		NotifyInterval: constants.UpdateNotifyInterval,
		Now:            time.Now,
	}, nil
}

func (c *Checker) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// ReadCache returns nil when the cache is missing or malformed.
func (c *Checker) ReadCache() *Cache {
	data, err := os.ReadFile(c.CachePath)
	if err != nil {
		return nil
	}
	var cache Cache
	if err := json.Unmarshal(jsonc.ToJSON(data), &cache); err != nil || cache.LatestVersion == "" || cache.LastChecked == 0 {
		return nil
	}
	return &cache
}

func (c *Checker) writeCache(cache *Cache) error {
	if err := os.MkdirAll(filepath.Dir(c.CachePath), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(cache)
	if err != nil {
		return err
	}
	return os.WriteFile(c.CachePath, data, 0o600)
}

// Due reports whether the cache is missing or older than the check interval.
func (c *Checker) Due() bool {
	cache := c.ReadCache()
	if cache == nil {
		return true
	}
	return c.now().Sub(time.UnixMilli(cache.LastChecked)) > c.CheckInterval
}

// Refresh asks the release endpoint for the latest version and caches it,
// keeping the last notification time.
func (c *Checker) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("release endpoint returned status %d", resp.StatusCode)
	}

	var release struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return fmt.Errorf("failed to parse release: %w", err)
	}
	if release.Version == "" {
		return errors.New("release has no version")
	}

	cache := c.ReadCache()
	if cache == nil {
		cache = &Cache{}
	}
	cache.LatestVersion = release.Version
	cache.LastChecked = c.now().UnixMilli()
	return c.writeCache(cache)
}

// Notify prints the update notice when the cached release is newer and the
// notice was not shown within the notify interval. It reports whether the
// notice was printed.
func (c *Checker) Notify() bool {
	cache := c.ReadCache()
	if cache == nil || !IsNewer(c.Current, cache.LatestVersion) {
		return false
	}
	if cache.LastNotified != 0 && c.now().Sub(time.UnixMilli(cache.LastNotified)) <= c.NotifyInterval {
		return false
	}

	fmt.Fprintf(c.Out, "\n%s\n\n", Notice(c.Current, cache.LatestVersion, c.upgradeHint()))
	cache.LastNotified = c.now().UnixMilli()
	if err := c.writeCache(cache); err != nil {
		c.Logger.Debug("update cache not written", logging.Fields{"error": err.Error()})
	}
	return true
}

func (c *Checker) upgradeHint() string {
	switch {
	case c.Distribution == "package":
		return "Run `npm install -g @tigrisdata/cli` to upgrade."
	case c.GOOS == "windows":
		return "Run `irm https://raw.githubusercontent.com/tigrisdata/cli/main/scripts/install.ps1 | iex`"
	default:
		return "Run `curl -fsSL https://raw.githubusercontent.com/tigrisdata/cli/main/scripts/install.sh | sh`"
	}
}

var noticeStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	Padding(1, 1)

// Notice renders the boxed update message.
func Notice(current, latest, hint string) string {
	return noticeStyle.Render(fmt.Sprintf("Update available: %s → %s\n%s", current, latest, hint))
}

// IsNewer reports whether latest is a newer release than current. Both must
// be major.minor.patch with an optional v prefix and prerelease suffix. A
// release is newer than a prerelease of the same version; two prereleases of
// the same version are never newer than each other.
func IsNewer(current, latest string) bool {
	cur, err := parse(current)
	if err != nil {
		return false
	}
	lat, err := parse(latest)
	if err != nil {
		return false
	}

	curBase := semver.New(cur.Major(), cur.Minor(), cur.Patch(), "", "")
	latBase := semver.New(lat.Major(), lat.Minor(), lat.Patch(), "", "")
	if c := latBase.Compare(curBase); c != 0 {
		return c > 0
	}
	return cur.Prerelease() != "" && lat.Prerelease() == ""
}

func parse(v string) (*semver.Version, error) {
	return semver.StrictNewVersion(strings.TrimPrefix(v, "v"))
}
