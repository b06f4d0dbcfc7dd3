package scanner

import (
	"path"
	"sort"
	"strings"
)

var jsExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// resolver maps import specs to project files. All paths are slash-separated
// and relative to the project root.
type resolver struct {
	files   map[string]bool
	goPkgs  map[string]string // directory -> file standing in for the package
	module  string              // Go module path, empty when there is no go.mod
	pyRoots []string
}

func newResolver(paths []string, module string) *resolver {
	r := &resolver{
		files:   make(map[string]bool, len(paths)),
		goPkgs:  make(map[string]string),
		module:  module,
		pyRoots: []string{""},
	}

	hasSrc := false
	goDirs := make(map[string][]string)
	for _, p := range paths {
		r.files[p] = true
		if strings.HasSuffix(p, ".go") && !strings.HasSuffix(p, "_test.go") {
			dir := path.Dir(p)
			goDirs[dir] = append(goDirs[dir], p)
		}
		if strings.HasPrefix(p, "src/") {
			hasSrc = true
		}
	}
	for dir, files := range goDirs {
		r.goPkgs[dir] = packageFile(dir, module, files)
	}
	if hasSrc {
		r.pyRoots = append(r.pyRoots, "src")
	}
	return r
}

// resolve returns the project files imp refers to, or the name of the
// external package when it resolves outside the project. Both are empty
// for relative imports that point at nothing.
func (r *resolver) resolve(from string, lang Language, imp Import) (targets []string, external string) {
	switch lang {
	case LangGo:
		return r.resolveGo(imp.Spec)
	case LangPython:
		return r.resolvePython(from, imp)
	case LangJavaScript:
		return r.resolveJS(from, imp.Spec)
	}
	return nil, ""
}

func (r *resolver) resolveGo(spec string) ([]string, string) {
	if r.module != "" && (spec == r.module || strings.HasPrefix(spec, r.module+"/")) {
		dir := strings.TrimPrefix(strings.TrimPrefix(spec, r.module), "/")
		if dir == "" {
			dir = "."
		}
		if f, ok := r.goPkgs[dir]; ok {
			return []string{f}, ""
		}
		return nil, ""
	}
	return nil, spec
}

// packageFile picks the file an import of a Go package points at, so one
// import is one edge however many files the package has: the file named
// after the package directory when present, else the first by name.
func packageFile(dir, module string, files []string) string {
	sort.Strings(files)
	name := path.Base(dir)
	if dir == "." {
		name = path.Base(module)
	}
	want := path.Join(dir, name+".go")
	for _, f := range files {
		if f == want {
			return f
		}
	}
	return files[0]
}

func (r *resolver) resolvePython(from string, imp Import) ([]string, string) {
	spec := imp.Spec
	if strings.HasPrefix(spec, ".") {
		rest := strings.TrimLeft(spec, ".")
		dir := path.Dir(from)
		for i := 1; i < len(spec)-len(rest); i++ {
			dir = path.Dir(dir)
		}
		base := dir
		if rest != "" {
			base = path.Join(dir, strings.ReplaceAll(rest, ".", "/"))
		}
		return r.pythonModule(base, imp.Names), ""
	}

	roots := append(append([]string(nil), r.pyRoots...), path.Dir(from))
	for _, root := range roots {
		base := path.Join(root, strings.ReplaceAll(spec, ".", "/"))
		if targets := r.pythonModule(base, imp.Names); len(targets) > 0 {
			return targets, ""
		}
	}

	top, _, _ := strings.Cut(spec, ".")
	return nil, top
}

// pythonModule resolves base as a module or package, plus any imported
// names that are submodules of it
func (r *resolver) pythonModule(base string, names []string) []string {
	var targets []string
	var module string
	for _, c := range []string{base + ".py", path.Join(base, "__init__.py")} {
		if r.files[c] {
			module = c
			break
		}
	}

	usesModule := len(names) == 0
	for _, name := range names {
		if name == "*" {
			usesModule = true
			continue
		}
		sub := path.Join(base, name)
		switch {
		case r.files[sub+".py"]:
			targets = append(targets, sub+".py")
		case r.files[path.Join(sub, "__init__.py")]:
			targets = append(targets, path.Join(sub, "__init__.py"))
		default:
			usesModule = true
		}
	}

	if module != "" && usesModule {
		targets = append([]string{module}, targets...)
	}
	return targets
}

func (r *resolver) resolveJS(from, spec string) ([]string, string) {
	var bases []string
	switch {
	case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"), spec == ".", spec == "..":
		bases = []string{path.Join(path.Dir(from), spec)}
	case strings.HasPrefix(spec, "@/"), strings.HasPrefix(spec, "~/"):
		rest := spec[2:]
		bases = []string{path.Join("src", rest), rest}
	default:
		return nil, jsPackageName(spec)
	}

	for _, base := range bases {
		if target := r.jsFile(base); target != "" {
			return []string{target}, ""
		}
	}
	return nil, ""
}

func (r *resolver) jsFile(base string) string {
	if r.files[base] {
		return base
	}
	// ESM TypeScript imports name the compiled .js file
	if ext := path.Ext(base); ext == ".js" || ext == ".jsx" || ext == ".mjs" {
		stem := strings.TrimSuffix(base, ext)
		for _, e := range []string{".ts", ".tsx", ".mts"} {
			if r.files[stem+e] {
				return stem + e
			}
		}
	}
	for _, ext := range jsExtensions {
		if r.files[base+ext] {
			return base + ext
		}
	}
	for _, ext := range jsExtensions {
		if c := path.Join(base, "index"+ext); r.files[c] {
			return c
		}
	}
	return ""
}

// jsPackageName trims a bare specifier to its package ("@scope/pkg/x" -> "@scope/pkg")
func jsPackageName(spec string) string {
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") && len(parts) > 1 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
