package scanner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// ModuleInfo contains information from go.mod
type ModuleInfo struct {
	Path      string // Module path (e.g., "github.com/user/repo")
	GoVersion string // Go version requirement (e.g., "1.21")
}

// DetectModule reads go.mod and returns module information.
// Returns an error if go.mod doesn't exist or is invalid.
func DetectModule(rootPath string) (*ModuleInfo, error) {
	modPath := filepath.Join(rootPath, "go.mod")
	data, err := os.ReadFile(modPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("go.mod not found in %s: %w", rootPath, err)
		}
		return nil, fmt.Errorf("failed to read go.mod: %w", err)
	}

	modFile, err := modfile.Parse(modPath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if modFile.Module == nil {
		return nil, fmt.Errorf("go.mod in %s has no module directive", rootPath)
	}

	info := &ModuleInfo{Path: modFile.Module.Mod.Path}
	if modFile.Go != nil {
		info.GoVersion = modFile.Go.Version
	}
	return info, nil
}

// DetectProjectType inspects marker files in rootPath and returns a
// project_type value. "generic" is returned when nothing is recognized.
func DetectProjectType(rootPath string) string {
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(rootPath, name))
		return err == nil
	}

	if exists("go.mod") {
		return "go"
	}

	if exists("package.json") {
		deps := packageJSONDeps(filepath.Join(rootPath, "package.json"))
		switch {
		case deps["next"]:
			return "nextjs"
		case deps["react"]:
			return "react"
		case exists("tsconfig.json") || deps["typescript"]:
			return "typescript"
		default:
			return "node"
		}
	}

	if exists("manage.py") {
		return "django"
	}
	for _, name := range []string{"pyproject.toml", "requirements.txt", "setup.py", "Pipfile"} {
		data, err := os.ReadFile(filepath.Join(rootPath, name))
		if err != nil {
			continue
		}
		content := strings.ToLower(string(data))
		switch {
		case strings.Contains(content, "django"):
			return "django"
		case strings.Contains(content, "fastapi"):
			return "fastapi"
		case strings.Contains(content, "flask"):
			return "flask"
		}
		return "python"
	}

	return "generic"
}

// packageJSONDeps returns the union of dependencies and devDependencies
func packageJSONDeps(path string) map[string]bool {
	deps := map[string]bool{}

	data, err := os.ReadFile(path)
	if err != nil {
		return deps
	}
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return deps
	}

	for name := range pkg.Dependencies {
		deps[name] = true
	}
	for name := range pkg.DevDependencies {
		deps[name] = true
	}
	return deps
}
