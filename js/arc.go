package js

import (
	"fmt"
	"strings"

	"github.com/runyourempire/game-compiler/ir"
)

// EasingFunctionsJS is the easing library shared by every arc driver.
const EasingFunctionsJS = `const easingFns = {
  linear: t => t,
  expo_in: t => t === 0 ? 0 : Math.pow(2, 10 * (t - 1)),
  expo_out: t => t === 1 ? 1 : 1 - Math.pow(2, -10 * t),
  cubic_in_out: t => t < 0.5 ? 4 * t * t * t : 1 - Math.pow(-2 * t + 2, 3) / 2,
  smooth: t => t * t * (3 - 2 * t),
  elastic: t => {
    if (t === 0 || t === 1) return t;
    return Math.pow(2, -10 * t) * Math.sin((t * 10 - 0.75) * (2 * Math.PI / 3)) + 1;
  },
  bounce: t => {
    const n = 7.5625, d = 2.75;
    if (t < 1 / d) return n * t * t;
    if (t < 2 / d) { t -= 1.5 / d; return n * t * t + 0.75; }
    if (t < 2.5 / d) { t -= 2.25 / d; return n * t * t + 0.9375; }
    t -= 2.625 / d;
    return n * t * t + 0.984375;
  },
};
`

// GenerateArc emits the timeline driver. Each animated transition whose
// duration is unset runs until the next moment (one second past the
// last). arcUpdate(time) snapshots each param's from-value the first
// time a moment becomes active, then eases toward the target.
func GenerateArc(moments []ir.Moment) string {
	if len(moments) == 0 {
		return "function arcUpdate() {}\n"
	}

	var sb strings.Builder
	sb.WriteString(EasingFunctionsJS)
	sb.WriteString("\nconst arcTimeline = [\n")
	for i, m := range moments {
		sb.WriteString(fmt.Sprintf("  { t: %s, name: '%s', transitions: [\n",
			FormatNumber(m.TimeSeconds), escapeSingle(m.Name)))
		for _, tr := range m.Transitions {
			dur := resolveDuration(moments, i, tr)
			sb.WriteString(fmt.Sprintf("    { pi: %d, to: %s, anim: %t, ease: '%s', dur: %s },\n",
				tr.ParamIndex, FormatNumber(tr.TargetValue), tr.IsAnimated,
				tr.Easing, FormatNumber(dur)))
		}
		sb.WriteString("  ] },\n")
	}
	sb.WriteString("];\n\n")

	sb.WriteString(`const arcState = new Map();
function arcUpdate(time) {
  for (const moment of arcTimeline) {
    if (time < moment.t) break;
    for (const tr of moment.transitions) {
      const key = moment.t + ':' + tr.pi;
      if (!arcState.has(key)) {
        arcState.set(key, params[tr.pi].base);
      }
      if (!tr.anim) {
        params[tr.pi].base = tr.to;
        continue;
      }
      const from = arcState.get(key);
      const progress = Math.min(Math.max((time - moment.t) / tr.dur, 0), 1);
      const ease = easingFns[tr.ease] || easingFns.linear;
      params[tr.pi].base = from + (tr.to - from) * ease(progress);
    }
  }
}
`)
	return sb.String()
}

// resolveDuration fills unset durations: run until the next moment, or
// one second when this is the last.
func resolveDuration(moments []ir.Moment, i int, tr ir.Transition) float64 {
	if tr.DurationSecs != nil {
		return *tr.DurationSecs
	}
	if i+1 < len(moments) {
		return moments[i+1].TimeSeconds - moments[i].TimeSeconds
	}
	return 1.0
}

func escapeSingle(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
