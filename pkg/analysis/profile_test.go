package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_CanvasAnimation(t *testing.T) {
	code := `const canvas = document.getElementById('c');
const ctx = canvas.getContext('2d');
const particles = [];
function loop() {
  for (let i = 0; i < particles.length; i++) {
    particles[i].x += Math.sin(i) * 2;
  }
  ctx.rotate(0.1);
  requestAnimationFrame(loop);
}`

	p := Extract(code)
	assert.True(t, p.Has2DCanvas)
	assert.True(t, p.HasAnimationLoop)
	assert.True(t, p.HasComplexMath)
	assert.True(t, p.HasParticleSystem)
	assert.True(t, p.Has3DTransforms)
	assert.True(t, p.HasPerformanceIssues)
	assert.Equal(t, 10, p.LineCount)
}

func TestExtract_PlainCode(t *testing.T) {
	p := Extract("var x = 1;")
	assert.False(t, p.Has2DCanvas)
	assert.False(t, p.HasAnimationLoop)
	assert.False(t, p.HasComplexMath)
	assert.False(t, p.HasParticleSystem)
	assert.False(t, p.Has3DTransforms)
	assert.False(t, p.HasPerformanceIssues)
	assert.Empty(t, p.ActiveFeatures())
}

func TestExtract_ParticleIsCaseSensitive(t *testing.T) {
	assert.True(t, Extract("new Particle()").HasParticleSystem)
	assert.True(t, Extract("particle.x").HasParticleSystem)
	assert.False(t, Extract("PARTICLE").HasParticleSystem)
}

func TestExtract_LargeSourceIsPerformanceRisk(t *testing.T) {
	code := strings.Repeat("x++;\n", 500) + "done();"
	p := Extract(code)
	assert.Equal(t, 501, p.LineCount)
	assert.True(t, p.HasPerformanceIssues)
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, CountLines(""))
	assert.Equal(t, 1, CountLines("a"))
	assert.Equal(t, 3, CountLines("a\nb\nc"))
}
