package game

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveImports loads every import declared by the cinematic, merging
// the exposed defines into cin.Defines. Paths resolve relative to
// baseDir first, then against each library directory, with an implicit
// ".game" extension tried at every step. Import cycles are detected
// via the visited set and reported as errors.
func ResolveImports(cin *Cinematic, baseDir string, libDirs []string) error {
	visited := make(map[string]struct{})
	return resolveImports(cin, baseDir, libDirs, visited)
}

func resolveImports(cin *Cinematic, baseDir string, libDirs []string, visited map[string]struct{}) error {
	imports := cin.Imports
	cin.Imports = nil

	for _, imp := range imports {
		path, err := resolvePath(imp.Path, baseDir, libDirs)
		if err != nil {
			return err
		}

		canonical, err := filepath.Abs(path)
		if err != nil {
			canonical = path
		}
		if _, seen := visited[canonical]; seen {
			return fmt.Errorf("circular import detected: '%s'", imp.Path)
		}
		visited[canonical] = struct{}{}

		source, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("cannot read import '%s': %w", imp.Path, err)
		}

		tokens, lexErr := Lex(string(source))
		if lexErr != nil {
			return fmt.Errorf("in import '%s': %w", imp.Path, lexErr)
		}
		imported, parseErr := NewParser(tokens).Parse()
		if parseErr != nil {
			return fmt.Errorf("in import '%s': %w", imp.Path, parseErr)
		}

		// Resolve the imported file's own imports relative to its dir.
		if err := resolveImports(imported, filepath.Dir(path), libDirs, visited); err != nil {
			return err
		}

		defines, err := extractDefines(imported, imp)
		if err != nil {
			return err
		}
		cin.Defines = append(cin.Defines, defines...)

		// A file may be reached again through a different chain; only
		// cycles through the current chain are errors.
		delete(visited, canonical)
	}

	return nil
}

func extractDefines(imported *Cinematic, imp ImportDecl) ([]*DefineBlock, error) {
	if len(imp.Names) == 1 && imp.Names[0] == "ALL" {
		return imported.Defines, nil
	}

	var out []*DefineBlock
	for _, name := range imp.Names {
		found := false
		for _, def := range imported.Defines {
			if def.Name == name {
				out = append(out, def)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("import '%s' does not define '%s'", imp.Path, name)
		}
	}
	return out, nil
}

func resolvePath(path, baseDir string, libDirs []string) (string, error) {
	candidate := filepath.Join(baseDir, path)
	if fileExists(candidate) {
		return candidate, nil
	}
	if fileExists(candidate + ".game") {
		return candidate + ".game", nil
	}
	for _, lib := range libDirs {
		candidate := filepath.Join(lib, path)
		if fileExists(candidate) {
			return candidate, nil
		}
		if fileExists(candidate + ".game") {
			return candidate + ".game", nil
		}
	}
	return "", fmt.Errorf("cannot resolve import '%s': file not found", path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
