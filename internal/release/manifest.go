package release

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// DefaultKeep is how many versions a prerelease manifest retains per plugin
const DefaultKeep = 5

// Manifest is a plugin repository manifest
type Manifest []Plugin

// Plugin is one plugin entry of a manifest, newest version first
type Plugin struct {
	GUID        string    `json:"guid"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Overview    string    `json:"overview"`
	Owner       string    `json:"owner"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Versions    []Version `json:"versions"`
}

// Version is a single published build of a plugin
type Version struct {
	Version   string `json:"version"`
	Changelog string `json:"changelog"`
	TargetAbi string `json:"targetAbi"`
	SourceURL string `json:"sourceUrl"`
	Checksum  string `json:"checksum"`
	Timestamp string `json:"timestamp"`
}

// LoadManifest reads a manifest. A missing file is an empty manifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return Manifest{}, nil
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}

// Save writes the manifest with four space indentation
func (m Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Find returns the plugin with the given guid
func (m Manifest) Find(guid string) (*Plugin, bool) {
	for i := range m {
		if strings.EqualFold(m[i].GUID, guid) {
			return &m[i], true
		}
	}
	return nil, false
}

// AddVersion puts v first in the version list of the plugin described by
// meta, replacing an entry with the same version number. Unknown plugins are
// appended.
func (m Manifest) AddVersion(meta Plugin, v Version) Manifest {
	plugin, ok := m.Find(meta.GUID)
	if !ok {
		meta.Versions = []Version{v}
		return append(m, meta)
	}

	versions := make([]Version, 0, len(plugin.Versions)+1)
	versions = append(versions, v)
	for _, existing := range plugin.Versions {
		if existing.Version != v.Version {
			versions = append(versions, existing)
		}
	}
	plugin.Versions = versions
	return m
}

// Compact keeps only the newest keep versions of every plugin
func (m Manifest) Compact(keep int) {
	if keep < 0 {
		keep = 0
	}
	for i := range m {
		if len(m[i].Versions) > keep {
			m[i].Versions = m[i].Versions[:keep]
		}
	}
}

// Checksum returns the hex encoded md5 of the file at path
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash artifact: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ReleaseURL returns the download URL of a release archive on GitHub
func ReleaseURL(repo, tag, version string) string {
	return fmt.Sprintf("https://github.com/%s/releases/download/%s/shoko_%s.zip", repo, tag, version)
}
