// Package snapshot_test provides golden snapshot tests for the
// compiler's WGSL output.
//
// For each .game input in testdata/in/, the test compiles the full
// shader and compares it to the golden file in testdata/golden/. A
// missing golden file is written on first run.
//
// To regenerate golden files after intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
package snapshot_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	gamec "github.com/runyourempire/game-compiler"
)

func TestSnapshots(t *testing.T) {
	inputs, err := filepath.Glob("testdata/in/*.game")
	if err != nil {
		t.Fatal(err)
	}
	if len(inputs) == 0 {
		t.Fatal("no input files found in testdata/in/")
	}

	update := os.Getenv("UPDATE_GOLDEN") != ""

	for _, input := range inputs {
		name := strings.TrimSuffix(filepath.Base(input), ".game")
		t.Run(name, func(t *testing.T) {
			source, err := os.ReadFile(input)
			if err != nil {
				t.Fatal(err)
			}
			shader, err := gamec.Compile(string(source))
			if err != nil {
				t.Fatalf("compile %s: %v", input, err)
			}

			golden := filepath.Join("testdata", "golden", name+".wgsl")
			want, err := os.ReadFile(golden)
			if os.IsNotExist(err) || update {
				if err := os.MkdirAll(filepath.Dir(golden), 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(golden, []byte(shader), 0o644); err != nil {
					t.Fatal(err)
				}
				t.Logf("wrote golden file %s", golden)
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			if shader != string(want) {
				t.Errorf("output differs from %s; run with UPDATE_GOLDEN=1 to regenerate", golden)
			}
		})
	}
}
