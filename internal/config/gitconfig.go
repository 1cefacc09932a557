package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// GitConfigPrefix is the git config section holding lazydiff settings.
const GitConfigPrefix = "ld."

// gitConfigMock allows tests to mock git config output.
var gitConfigMock func(args []string, repoPath string) (string, error)

func runGitConfig(args []string, repoPath string) (string, error) {
	if gitConfigMock != nil {
		return gitConfigMock(args, repoPath)
	}

	cmd := exec.Command("git", args...)
	if repoPath != "" {
		cmd.Dir = repoPath
	}

	output, err := cmd.Output()
	if err != nil {
		// exit code 1 means no matching key
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return string(output), nil
}

// parseGitConfigOutput parses "ld.key value" lines into a multi-value map.
func parseGitConfigOutput(output string) map[string][]string {
	configMap := make(map[string][]string)
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			// a key without value is a boolean set to true
			key, value = line, "true"
		}
		if !strings.HasPrefix(key, GitConfigPrefix) {
			continue
		}
		key = normalizeKey(strings.TrimPrefix(key, GitConfigPrefix))
		configMap[key] = append(configMap[key], value)
	}
	return configMap
}

// convertGitConfigToParseConfig turns multi-valued keys into lists.
func convertGitConfigToParseConfig(gitCfg map[string][]string) map[string]any {
	result := make(map[string]any)
	for key, values := range gitCfg {
		switch len(values) {
		case 0:
			continue
		case 1:
			result[key] = values[0]
		default:
			anySlice := make([]any, len(values))
			for i, v := range values {
				anySlice[i] = v
			}
			result[key] = anySlice
		}
	}
	return result
}

func loadGitConfig(globalOnly bool, repoPath string) (map[string]any, error) {
	args := []string{"config", "--get-regexp", `^ld\.`}
	if globalOnly {
		args = append(args, "--global")
	} else {
		args = append(args, "--local")
	}

	output, err := runGitConfig(args, repoPath)
	if err != nil {
		return nil, err
	}
	return convertGitConfigToParseConfig(parseGitConfigOutput(output)), nil
}

func isInGitRepo(path string) bool {
	if path == "" {
		return false
	}
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = path
	return cmd.Run() == nil
}

// determineRepoPath returns the repository used for the local git config lookup.
func determineRepoPath(repoDir string) string {
	if repoDir != "" && isInGitRepo(repoDir) {
		return repoDir
	}
	if wd, err := os.Getwd(); err == nil && isInGitRepo(wd) {
		return wd
	}
	return ""
}

// parseCLIConfigOverrides parses --config ld.key=value arguments.
func parseCLIConfigOverrides(overrides []string) (map[string]any, error) {
	gitCfg := make(map[string][]string)
	for _, override := range overrides {
		fullKey, value, ok := strings.Cut(override, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config override: %q, expected format: ld.key=value", override)
		}
		if !strings.HasPrefix(fullKey, GitConfigPrefix) {
			return nil, fmt.Errorf("config override key must start with %q: %q", GitConfigPrefix, fullKey)
		}
		key := normalizeKey(strings.TrimPrefix(fullKey, GitConfigPrefix))
		if key == "" {
			return nil, fmt.Errorf("empty config key in override: %q", override)
		}
		gitCfg[key] = append(gitCfg[key], value)
	}
	return convertGitConfigToParseConfig(gitCfg), nil
}
