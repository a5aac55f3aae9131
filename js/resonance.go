package js

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/runyourempire/game-compiler/game"
	"github.com/runyourempire/game-compiler/ir"
)

// DefaultDamping is applied when the resonate block declares none.
const DefaultDamping = 0.95

// GenerateResonance emits the per-frame resonance integrator. Each
// binding accumulates its source signal into a velocity-like delta that
// decays by the damping factor; params expose the result as
// base + delta. Declared damping is clamped to [0, 1].
func GenerateResonance(res *game.ResonanceBlock, params []ir.Param) (string, []string, error) {
	if res == nil || len(res.Bindings) == 0 {
		return "", nil, nil
	}

	damping := DefaultDamping
	if res.Damping != nil {
		damping = *res.Damping
		if damping < 0 {
			damping = 0
		}
		if damping > 1 {
			damping = 1
		}
	}

	index := make(map[string]int, len(params))
	for i, p := range params {
		index[p.Name] = i
	}

	var warnings []string
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("const resonanceDeltas = new Float64Array(%d);\n", len(params)))
	sb.WriteString("(function resonanceUpdate(params, dt) {\n")
	sb.WriteString(fmt.Sprintf("  const damp = %s;\n", FormatNumber(damping)))

	// Accumulate every binding before applying any delta, so a binding
	// reading another param sees last frame's value, not a half-updated
	// one.
	for _, b := range res.Bindings {
		name := b.Target
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		idx, ok := index[name]
		if !ok {
			warnings = append(warnings, fmt.Sprintf(
				"resonance target '%s' does not match any declared param", b.Target))
			continue
		}

		src, err := CompileExpr(b.Source)
		if err != nil {
			return "", warnings, err
		}
		src = RewriteParamRefs(src, params)
		src = RewriteAudioBands(src)

		sb.WriteString(fmt.Sprintf("  resonanceDeltas[%d] += (%s) * damp * dt;\n", idx, src))
	}

	sb.WriteString("  for (let i = 0; i < params.length; i++) {\n")
	sb.WriteString("    resonanceDeltas[i] *= damp;\n")
	sb.WriteString("    params[i].value = params[i].base + resonanceDeltas[i];\n")
	sb.WriteString("  }\n")
	sb.WriteString("})(params, 1/60);\n")
	return sb.String(), warnings, nil
}

// audioBands maps bare band identifiers, usable directly as resonance
// sources, to their runtime variables.
var audioBands = [...][2]string{
	{"bass", "audioBass"},
	{"mid", "audioMid"},
	{"treble", "audioTreble"},
	{"energy", "audioEnergy"},
	{"beat", "audioBeat"},
}

// RewriteAudioBands replaces whole-word audio band names with their
// runtime variables, so `scale ~ bass * 0.5` reads the analyser data.
func RewriteAudioBands(src string) string {
	for _, band := range audioBands {
		re := regexp.MustCompile(`\b` + band[0] + `\b`)
		src = re.ReplaceAllString(src, band[1])
	}
	return src
}

// RewriteParamRefs replaces whole-word param names in a JS expression
// with their params[N].value accessors. Longest names rewrite first so
// a param named "glow" cannot clobber one named "glow_amt".
func RewriteParamRefs(src string, params []ir.Param) string {
	ordered := make([]ir.Param, len(params))
	copy(ordered, params)
	sort.Slice(ordered, func(i, j int) bool {
		return len(ordered[i].Name) > len(ordered[j].Name)
	})

	for _, p := range ordered {
		idx := 0
		for i := range params {
			if params[i].Name == p.Name {
				idx = i
				break
			}
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(p.Name) + `\b`)
		src = re.ReplaceAllString(src, fmt.Sprintf("params[%d].value", idx))
	}
	return src
}
