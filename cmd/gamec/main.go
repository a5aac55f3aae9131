// Command gamec compiles .game cinematic files to WGSL.
//
// Usage:
//
//	gamec [flags] input.game
//
// By default the shader is written to stdout. -meta prints the compile
// metadata as JSON, -xray writes one shader per pipeline stage, and
// -check only reports errors and warnings.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gamec "github.com/runyourempire/game-compiler"
	"github.com/runyourempire/game-compiler/game"
)

func main() {
	var (
		output  = flag.String("o", "", "write the shader to this file instead of stdout")
		check   = flag.Bool("check", false, "parse and analyze only; print warnings, emit nothing")
		strict  = flag.Bool("strict", false, "treat warnings as errors")
		xray    = flag.Bool("xray", false, "emit one shader per pipeline stage into a directory")
		meta    = flag.Bool("meta", false, "print compile metadata as JSON")
		libDirs multiFlag
	)
	flag.Var(&libDirs, "lib", "library directory for import resolution (repeatable)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gamec [flags] input.game")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if *xray {
		if err := runXray(path, *output); err != nil {
			fail(err)
		}
		return
	}

	var out *gamec.CompileOutput
	var err error
	if *strict {
		out, err = gamec.CompileFileStrict(path, libDirs)
	} else {
		out, err = gamec.CompileFile(path, libDirs)
	}
	if err != nil {
		fail(err)
	}

	for _, w := range out.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if *check {
		fmt.Fprintf(os.Stderr, "%s: ok (%d warning(s))\n", path, len(out.Warnings))
		return
	}

	if *meta {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metadata(out)); err != nil {
			fail(err)
		}
		return
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(out.WGSL), 0o644); err != nil {
			fail(err)
		}
		return
	}
	fmt.Print(out.WGSL)
}

func runXray(path, outDir string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	variants, err := gamec.CompileXrayVariants(string(source))
	if err != nil {
		return err
	}
	if outDir == "" {
		outDir = strings.TrimSuffix(path, filepath.Ext(path)) + "-xray"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for i, v := range variants {
		name := fmt.Sprintf("%02d-layer%d-%s.wgsl", i, v.LayerIndex, v.StageName)
		if err := os.WriteFile(filepath.Join(outDir, name), []byte(v.WGSL), 0o644); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "wrote %d variants to %s\n", len(variants), outDir)
	return nil
}

// metadata trims CompileOutput to the JSON surface hosts consume.
func metadata(out *gamec.CompileOutput) map[string]any {
	params := make([]map[string]any, len(out.Params))
	for i, p := range out.Params {
		params[i] = map[string]any{
			"name":          p.Name,
			"uniform_field": p.UniformField,
			"buffer_index":  p.BufferIndex,
			"base_value":    p.BaseValue,
			"mod_js":        p.ModJS,
		}
	}
	return map[string]any{
		"title":               out.Title,
		"audio_file":          out.AudioFile,
		"params":              params,
		"uses_audio":          out.UsesAudio,
		"uses_mouse":          out.UsesMouse,
		"uses_data":           out.UsesData,
		"data_fields":         out.DataFields,
		"uniform_float_count": out.UniformFloatCount,
		"layer_count":         out.LayerCount,
		"arc_moments":         len(out.ArcMoments),
		"warnings":            out.Warnings,
	}
}

func fail(err error) {
	if se, ok := err.(*game.SourceError); ok && se.Source != "" {
		fmt.Fprintln(os.Stderr, se.FormatWithContext())
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

// multiFlag collects repeated -lib values.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
