package enhance

import (
	"errors"
	"regexp"
	"strings"
)

// Rule rewrites code on behalf of one module.
type Rule struct {
	// Description is appended to the applied list on success.
	Description string
	Rewrite     func(code string) (string, error)
}

var (
	errNoCanvas        = errors.New("no canvas element found")
	errNoStyles        = errors.New("no fill or stroke styles to enhance")
	errNoAnimationLoop = errors.New("no animation loop found")

	lengthLoopPattern = regexp.MustCompile(`for\s*\(\s*(?:let|var)\s+(\w+)\s*=\s*([^;]+?)\s*;\s*(\w+)\s*<\s*([\w.$\[\]]+)\.length\s*;`)
	canvasPattern     = regexp.MustCompile(`canvas|getContext`)
	stylePattern      = regexp.MustCompile(`fillStyle|strokeStyle`)
	rafPattern        = regexp.MustCompile(`requestAnimationFrame|setInterval`)
)

// DefaultRules returns the rewrite rules for the built-in module catalog.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		"performance": {
			Description: "cached loop bounds and enabled strict mode",
			Rewrite:     rewritePerformance,
		},
		"colors": {
			Description: "added a harmonised palette helper",
			Rewrite:     rewriteColors,
		},
		"animations": {
			Description: "added delta-time frame smoothing",
			Rewrite:     rewriteAnimations,
		},
		"responsive": {
			Description: "resized the canvas to the viewport and device pixel ratio",
			Rewrite:     rewriteResponsive,
		},
		"accessibility": {
			Description: "honoured prefers-reduced-motion",
			Rewrite:     appendBlock(reducedMotionBlock),
		},
		"ai-prediction": {
			Description: "scheduled frames from a moving average of frame cost",
			Rewrite:     appendBlock(frameSchedulerBlock),
		},
		"smart-adaptation": {
			Description: "scaled render quality from the measured frame rate",
			Rewrite:     appendBlock(adaptiveQualityBlock),
		},
	}
}

func rewritePerformance(code string) (string, error) {
	out := lengthLoopPattern.ReplaceAllStringFunc(code, func(loop string) string {
		m := lengthLoopPattern.FindStringSubmatch(loop)
		if m[1] != m[3] {
			return loop
		}
		return "for (let " + m[1] + " = " + m[2] + ", " + m[1] + "Len = " + m[4] + ".length; " + m[1] + " < " + m[1] + "Len;"
	})
	if !strings.Contains(out, "'use strict'") && !strings.Contains(out, `"use strict"`) {
		out = "'use strict';\n" + out
	}
	return out, nil
}

func rewriteColors(code string) (string, error) {
	if !stylePattern.MatchString(code) {
		return "", errNoStyles
	}
	return appendBlock(paletteBlock)(code)
}

func rewriteAnimations(code string) (string, error) {
	if !rafPattern.MatchString(code) {
		return "", errNoAnimationLoop
	}
	return appendBlock(frameSmoothingBlock)(code)
}

func rewriteResponsive(code string) (string, error) {
	if !canvasPattern.MatchString(code) {
		return "", errNoCanvas
	}
	return appendBlock(responsiveBlock)(code)
}

func appendBlock(block string) func(string) (string, error) {
	return func(code string) (string, error) {
		if strings.Contains(code, block) {
			return code, nil
		}
		return strings.TrimRight(code, "\n") + "\n\n" + block, nil
	}
}

const paletteBlock = `// Palette
const palette = ['#0b132b', '#1c2541', '#3a506b', '#5bc0be', '#f4f4f9'];
function paletteColor(index, alpha = 1) {
  const hex = palette[((index % palette.length) + palette.length) % palette.length];
  const n = parseInt(hex.slice(1), 16);
  return 'rgba(' + (n >> 16) + ',' + ((n >> 8) & 255) + ',' + (n & 255) + ',' + alpha + ')';
}
`

const frameSmoothingBlock = `// Frame smoothing
const frameClock = { last: 0, delta: 16.67 };
function smoothDelta(now) {
  const raw = frameClock.last ? now - frameClock.last : 16.67;
  frameClock.last = now;
  frameClock.delta = frameClock.delta * 0.9 + Math.min(raw, 100) * 0.1;
  return frameClock.delta;
}
`

const responsiveBlock = `// Responsive canvas
function fitCanvas(canvas) {
  const ratio = window.devicePixelRatio || 1;
  canvas.width = Math.floor(canvas.clientWidth * ratio);
  canvas.height = Math.floor(canvas.clientHeight * ratio);
  const context = canvas.getContext('2d');
  if (context) {
    context.setTransform(ratio, 0, 0, ratio, 0, 0);
  }
}
window.addEventListener('resize', () => document.querySelectorAll('canvas').forEach(fitCanvas));
`

const reducedMotionBlock = `// Reduced motion
const reducedMotion = window.matchMedia && window.matchMedia('(prefers-reduced-motion: reduce)').matches;
`

const frameSchedulerBlock = `// Predictive frame scheduling
const frameCost = { average: 0, samples: 0 };
function recordFrameCost(ms) {
  frameCost.samples = Math.min(frameCost.samples + 1, 30);
  frameCost.average += (ms - frameCost.average) / frameCost.samples;
}
function shouldSkipFrame(budgetMs = 16.67) {
  return frameCost.average > budgetMs * 1.5;
}
`

const adaptiveQualityBlock = `// Adaptive quality
const quality = { level: 1, fps: 60 };
function adaptQuality(fps) {
  quality.fps = quality.fps * 0.8 + fps * 0.2;
  if (quality.fps < 45 && quality.level > 0.5) {
    quality.level -= 0.1;
  } else if (quality.fps > 58 && quality.level < 1) {
    quality.level += 0.05;
  }
  return quality.level;
}
`
