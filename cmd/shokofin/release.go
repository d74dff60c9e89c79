package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shokofin/shokofin/internal/release"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Add a built plugin archive to the repository manifest",
	Long: `Add a built plugin archive to manifest.json.

The changelog in build.yaml is refreshed from --changelog (or $CHANGELOG),
the archive checksum is computed and the new version is prepended to the
plugin entry. Prereleases keep only the newest --keep versions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := releaseOptions(cmd)
		if err != nil {
			return err
		}

		result, err := release.Publish(opts, logger)
		if err != nil {
			return err
		}

		fmt.Println(field("Version", result.Version.Version))
		fmt.Println(field("Framework", result.Framework))
		fmt.Println(field("Checksum", result.Version.Checksum))
		fmt.Println(field("Source", result.Version.SourceURL))
		return nil
	},
}

// releaseOptions reads the release flags of cmd
func releaseOptions(cmd *cobra.Command) (release.Options, error) {
	flags := cmd.Flags()
	opts := release.Options{}
	opts.Repo, _ = flags.GetString("repo")
	opts.Version, _ = flags.GetString("version")
	opts.Tag, _ = flags.GetString("tag")
	opts.Prerelease, _ = flags.GetBool("prerelease")
	opts.Changelog, _ = flags.GetString("changelog")
	opts.ProjectFile, _ = flags.GetString("project")
	opts.BuildFile, _ = flags.GetString("build-file")
	opts.ManifestFile, _ = flags.GetString("manifest")
	opts.Artifact, _ = flags.GetString("artifact")
	opts.Keep, _ = flags.GetInt("keep")

	if opts.Keep < 1 {
		return opts, fmt.Errorf("--keep must be at least 1, got %d", opts.Keep)
	}
	if opts.Artifact == "" {
		opts.Artifact = fmt.Sprintf("./artifacts/shoko_%s.zip", opts.Version)
	}
	return opts, nil
}

func init() {
	addReleaseFlags(releaseCmd)
	rootCmd.AddCommand(releaseCmd)
}

func addReleaseFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("repo", os.Getenv("GITHUB_REPOSITORY"), "GitHub repository (owner/name)")
	flags.String("version", "", "plugin version, e.g. 3.0.1.0")
	flags.String("tag", "", "release tag")
	flags.Bool("prerelease", false, "mark the release as a prerelease")
	flags.String("changelog", os.Getenv("CHANGELOG"), "changelog text")
	flags.String("project", "./Shokofin/Shokofin.csproj", "project file holding the target framework")
	flags.String("build-file", "./build.yaml", "build metadata file")
	flags.String("manifest", "./manifest.json", "repository manifest")
	flags.String("artifact", "", "built plugin archive (default: ./artifacts/shoko_<version>.zip)")
	flags.Int("keep", release.DefaultKeep, "versions kept for prereleases (at least 1)")
}
