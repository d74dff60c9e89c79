package release

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrNoTargetFramework is returned when a project file names no framework
var ErrNoTargetFramework = errors.New("no target framework found")

var (
	targetFrameworkRe  = regexp.MustCompile(`(?is)<TargetFramework>(.*?)</TargetFramework>`)
	targetFrameworksRe = regexp.MustCompile(`(?is)<TargetFrameworks>(.*?)</TargetFrameworks>`)
)

// TargetFramework returns the framework a .csproj builds for. A single
// <TargetFramework> wins; otherwise the first entry of <TargetFrameworks>.
func TargetFramework(csprojPath string) (string, error) {
	data, err := os.ReadFile(csprojPath)
	if err != nil {
		return "", fmt.Errorf("failed to read project file: %w", err)
	}
	return parseTargetFramework(string(data))
}

func parseTargetFramework(content string) (string, error) {
	if m := targetFrameworkRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1]), nil
	}
	if m := targetFrameworksRe.FindStringSubmatch(content); m != nil {
		first, _, _ := strings.Cut(m[1], ";")
		return strings.TrimSpace(first), nil
	}
	return "", ErrNoTargetFramework
}
