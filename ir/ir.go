// Package ir holds the analyzed, render-ready form of a cinematic:
// flattened parameters with uniform slots, the render mode, and the
// resolved arc timeline. It sits between the game frontend and the
// wgsl/js backends.
package ir

import "github.com/runyourempire/game-compiler/game"

// SystemFloatCount is the number of uniform float slots reserved for
// system inputs before user parameters begin.
//
// Layout:
//
//	0: time          4: audio_energy   8: mouse.x
//	1: audio_bass    5: audio_beat     9: mouse.y
//	2: audio_mid     6: resolution.x
//	3: audio_treble  7: resolution.y
const SystemFloatCount = 10

// Param is a user parameter flattened into the uniform buffer.
type Param struct {
	Name         string
	UniformField string // field name in the WGSL uniform struct, "p_" + Name
	BufferIndex  int    // float slot: SystemFloatCount + ordinal
	BaseValue    float64
	Modulation   game.Expr // nil when the param is static
	ModJS        string    // JS modulation expression, filled by the js backend
}

// RenderModeKind selects the fragment shader architecture.
type RenderModeKind uint8

const (
	// RenderFlat is the 2D SDF pipeline.
	RenderFlat RenderModeKind = iota
	// RenderRaymarch lifts layer fields into a raymarched heightfield.
	RenderRaymarch
)

// RenderMode carries the kind plus raymarch camera settings.
type RenderMode struct {
	Kind      RenderModeKind
	CamRadius float64
	CamHeight float64
	CamSpeed  float64
}

// Moment is one resolved point on the arc timeline.
type Moment struct {
	TimeSeconds float64
	Name        string
	Transitions []Transition
}

// Transition retargets one parameter at a moment.
type Transition struct {
	ParamIndex   int
	TargetValue  float64
	IsAnimated   bool
	Easing       string   // always set; "linear" when unspecified
	DurationSecs *float64 // nil means "until the next moment"
}
