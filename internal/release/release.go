package release

import (
	"errors"
	"log/slog"
	"time"
)

// Options describes one release run
type Options struct {
	Repo         string // owner/name on GitHub
	Version      string
	Tag          string
	Prerelease   bool
	Changelog    string
	ProjectFile  string
	BuildFile    string
	ManifestFile string
	Artifact     string // built plugin archive
	Keep         int    // versions kept on prerelease; zero means DefaultKeep, negative is rejected
}

// Result is what a release run produced
type Result struct {
	Framework string
	Version   Version
}

// Publish records a built plugin archive in the manifest. It refreshes the
// build.yaml changelog, hashes the archive, prepends the new version and, for
// prereleases, trims old versions.
func Publish(opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Repo == "" || opts.Version == "" || opts.Tag == "" {
		return nil, errors.New("repo, version and tag are required")
	}
	if opts.Keep < 0 {
		return nil, errors.New("keep must not be negative")
	}

	framework, err := TargetFramework(opts.ProjectFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("detected target framework", "framework", framework)

	updated, err := UpdateChangelog(opts.BuildFile, opts.Changelog)
	if err != nil {
		return nil, err
	}
	if updated {
		logger.Debug("updated build changelog", "file", opts.BuildFile)
	}

	meta, err := LoadBuildMeta(opts.BuildFile)
	if err != nil {
		return nil, err
	}

	checksum, err := Checksum(opts.Artifact)
	if err != nil {
		return nil, err
	}

	manifest, err := LoadManifest(opts.ManifestFile)
	if err != nil {
		return nil, err
	}

	version := Version{
		Version:   opts.Version,
		Changelog: meta.Changelog,
		TargetAbi: meta.TargetAbi,
		SourceURL: ReleaseURL(opts.Repo, opts.Tag, opts.Version),
		Checksum:  checksum,
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	}

	manifest = manifest.AddVersion(Plugin{
		GUID:        meta.GUID,
		Name:        meta.Name,
		Description: meta.Description,
		Overview:    meta.Overview,
		Owner:       meta.Owner,
		Category:    meta.Category,
	}, version)

	if opts.Prerelease {
		keep := opts.Keep
		if keep == 0 {
			keep = DefaultKeep
		}
		manifest.Compact(keep)
	}

	if err := manifest.Save(opts.ManifestFile); err != nil {
		return nil, err
	}

	logger.Info("release added to manifest",
		"version", opts.Version,
		"tag", opts.Tag,
		"prerelease", opts.Prerelease,
		"url", version.SourceURL)

	return &Result{Framework: framework, Version: version}, nil
}
