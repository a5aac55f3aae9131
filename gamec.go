// Package gamec compiles .game cinematic sources into WGSL shaders and
// the JavaScript glue that drives them: param modulation, resonance,
// input reactions, and the arc timeline.
//
// The one-call entry points are Compile (shader only) and CompileFull
// (shader plus host metadata). CompileFile adds import resolution
// against library directories.
package gamec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/runyourempire/game-compiler/game"
	"github.com/runyourempire/game-compiler/ir"
	"github.com/runyourempire/game-compiler/js"
	"github.com/runyourempire/game-compiler/wgsl"
)

// CompileOutput is everything a host needs to run a cinematic.
type CompileOutput struct {
	WGSL              string
	Title             string
	AudioFile         string
	Params            []ir.Param
	UsesAudio         bool
	UsesMouse         bool
	UsesData          bool
	DataFields        []string
	RenderMode        ir.RenderMode
	UniformFloatCount int
	LayerCount        int
	ArcMoments        []ir.Moment
	ArcJS             string
	ResonanceJS       string
	ReactJS           string
	Warnings          []string
}

// Compile turns source into a WGSL shader.
func Compile(source string) (string, error) {
	out, err := CompileFull(source)
	if err != nil {
		return "", err
	}
	return out.WGSL, nil
}

// CompileFull compiles source and returns the shader plus all host
// metadata. Warnings are collected, not fatal.
func CompileFull(source string) (*CompileOutput, error) {
	cin, err := parseSource(source)
	if err != nil {
		return nil, err
	}
	return compileCinematic(cin)
}

// CompileFullStrict is CompileFull with warnings promoted to errors.
func CompileFullStrict(source string) (*CompileOutput, error) {
	out, err := CompileFull(source)
	if err != nil {
		return nil, err
	}
	if err := strictCheck(out.Warnings); err != nil {
		return nil, err
	}
	return out, nil
}

// CompileFile compiles a .game file from disk, resolving its imports
// relative to the file and then against libDirs.
func CompileFile(path string, libDirs []string) (*CompileOutput, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read '%s': %w", path, err)
	}
	cin, err := parseSource(string(source))
	if err != nil {
		return nil, err
	}
	if err := game.ResolveImports(cin, filepath.Dir(path), libDirs); err != nil {
		return nil, err
	}
	return compileCinematic(cin)
}

// CompileFileStrict is CompileFile with warnings promoted to errors.
func CompileFileStrict(path string, libDirs []string) (*CompileOutput, error) {
	out, err := CompileFile(path, libDirs)
	if err != nil {
		return nil, err
	}
	if err := strictCheck(out.Warnings); err != nil {
		return nil, err
	}
	return out, nil
}

// CompileXrayVariants builds one debug shader per pipeline stage.
func CompileXrayVariants(source string) ([]wgsl.XrayVariant, error) {
	cin, err := parseSource(source)
	if err != nil {
		return nil, err
	}
	game.ExpandDefines(cin)
	params := collectAllParams(cin)
	mode := ir.DetermineRenderMode(cin)
	return wgsl.GenerateXray(cin, params, mode)
}

func parseSource(source string) (*game.Cinematic, error) {
	tokens, err := game.Lex(source)
	if err != nil {
		if se, ok := err.(*game.SourceError); ok {
			se.Source = source
		}
		return nil, err
	}
	cin, err := game.NewParser(tokens).Parse()
	if err != nil {
		if se, ok := err.(*game.SourceError); ok {
			se.Source = source
		}
		return nil, err
	}
	return cin, nil
}

// collectAllParams flattens user params and appends one synthetic param
// per data.* field so external data rides the same uniform path.
func collectAllParams(cin *game.Cinematic) []ir.Param {
	params, _ := ir.CollectParams(cin)
	return appendDataParams(params, cin)
}

func appendDataParams(params []ir.Param, cin *game.Cinematic) []ir.Param {
	for _, field := range ir.CollectDataFields(cin) {
		params = append(params, ir.Param{
			Name:         "data_" + field,
			UniformField: "p_data_" + field,
			BufferIndex:  ir.SystemFloatCount + len(params),
		})
	}
	return params
}

func compileCinematic(cin *game.Cinematic) (*CompileOutput, error) {
	game.ExpandDefines(cin)

	params, warnings := ir.CollectParams(cin)
	params = appendDataParams(params, cin)
	mode := ir.DetermineRenderMode(cin)

	warnings = append(warnings, wgsl.ValidateIdentifiers(cin, params)...)

	shader, genWarnings, err := wgsl.Generate(cin, params, mode)
	warnings = append(warnings, genWarnings...)
	if err != nil {
		return nil, err
	}

	for i := range params {
		if params[i].Modulation == nil {
			continue
		}
		modJS, err := js.CompileExpr(params[i].Modulation)
		if err != nil {
			return nil, err
		}
		params[i].ModJS = modJS
	}

	resonanceJS, resWarnings, err := js.GenerateResonance(cin.Resonance, params)
	warnings = append(warnings, resWarnings...)
	if err != nil {
		return nil, err
	}

	reactJS, reactWarnings := js.GenerateReact(cin.React, params)
	warnings = append(warnings, reactWarnings...)

	moments := ir.ResolveArc(cin.Arc, params)

	title := cin.Name
	if title == "" {
		title = "Untitled"
	}

	return &CompileOutput{
		WGSL:              shader,
		Title:             title,
		AudioFile:         ir.AudioFile(cin),
		Params:            params,
		UsesAudio:         ir.UsesAudio(cin),
		UsesMouse:         ir.UsesMouse(cin),
		UsesData:          ir.UsesData(cin),
		DataFields:        ir.CollectDataFields(cin),
		RenderMode:        mode,
		UniformFloatCount: ir.UniformFloatCount(params),
		LayerCount:        len(cin.Layers),
		ArcMoments:        moments,
		ArcJS:             js.GenerateArc(moments),
		ResonanceJS:       resonanceJS,
		ReactJS:           reactJS,
		Warnings:          warnings,
	}, nil
}

func strictCheck(warnings []string) error {
	if len(warnings) == 0 {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "strict mode: %d warning(s):", len(warnings))
	for _, w := range warnings {
		sb.WriteString("\n  - ")
		sb.WriteString(w)
	}
	return game.Errorf("%s", sb.String())
}

// DeriveTagName turns a .game file path into a custom-element tag name:
// the file stem, leading order prefixes (digits and dashes) stripped,
// with a "game-" prefix added when the result has no hyphen.
//
//	loading-ring.game -> loading-ring
//	spinner.game      -> game-spinner
//	001-hello.game    -> game-hello
func DeriveTagName(path string) string {
	stem := filepath.Base(path)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))

	trimmed := strings.TrimLeft(stem, "0123456789-")
	if trimmed == "" {
		trimmed = stem
	}
	if !strings.Contains(trimmed, "-") {
		return "game-" + trimmed
	}
	return trimmed
}
