package wgsl

import (
	"github.com/runyourempire/game-compiler/game"
	"github.com/runyourempire/game-compiler/ir"
)

// XrayVariant is one debug shader showing the pipeline truncated after
// a stage, so each step of a chain can be seen in isolation.
type XrayVariant struct {
	LayerIndex int
	LayerName  string // empty for anonymous layers
	StageIndex int
	StageName  string
	WGSL       string
}

// GenerateXray builds one shader per stage per layer. Every variant
// keeps the full uniform struct so the host can reuse one buffer
// across all of them.
func GenerateXray(cin *game.Cinematic, params []ir.Param, mode ir.RenderMode) ([]XrayVariant, error) {
	var variants []XrayVariant

	for li, layer := range cin.Layers {
		if layer.Chain == nil {
			continue
		}
		for si := range layer.Chain.Stages {
			truncated := truncateChains(cin, li, si+1)
			wgsl, _, err := Generate(truncated, params, mode)
			if err != nil {
				return nil, err
			}
			variants = append(variants, XrayVariant{
				LayerIndex: li,
				LayerName:  layer.Name,
				StageIndex: si,
				StageName:  layer.Chain.Stages[si].Name,
				WGSL:       wgsl,
			})
		}
	}
	return variants, nil
}

// truncateChains copies the cinematic with one layer's chain cut to its
// first n stages. Other layers keep their full chains so compositing
// context stays visible.
func truncateChains(cin *game.Cinematic, layerIndex, n int) *game.Cinematic {
	out := *cin
	out.Layers = make([]*game.Layer, len(cin.Layers))
	for i, layer := range cin.Layers {
		if i != layerIndex {
			out.Layers[i] = layer
			continue
		}
		copied := *layer
		copied.Chain = &game.PipeChain{Stages: layer.Chain.Stages[:n]}
		out.Layers[i] = &copied
	}
	return &out
}
