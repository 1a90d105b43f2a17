package main

import (
	"testing"

	"github.com/gekko3d/particles"
	"github.com/gekko3d/particles/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameStats_CountsBothPaths(t *testing.T) {
	system := particles.NewParticleSystemBuilder().WithInitialParticles(10).Build()
	provider := &gputest.Provider{}
	require.NoError(t, system.Initialize(provider))
	camera := particles.DefaultConfig().Camera.NewCamera()
	system.Update(0.1, camera, nil, nil)

	stats := &frameStats{}
	require.NoError(t, system.Render(stats, provider, stats, camera, false))
	assert.Equal(t, 10, stats.draws)
	assert.Equal(t, 13, stats.binds)
	assert.Zero(t, stats.dispatches)

	stats.reset()
	require.NoError(t, system.Render(stats, provider, stats, camera, true))
	assert.Zero(t, stats.draws)
	assert.Equal(t, 1, stats.dispatches)
	assert.Equal(t, uint32(10), stats.groups)
	assert.Same(t, system.Transforms(), stats.last)
}
