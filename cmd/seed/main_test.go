package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lee_Forum/internal/model"
)

func TestLoadSeedFile(t *testing.T) {
	defs, err := loadSeed("../../config/seed.yaml")
	require.NoError(t, err)
	require.Len(t, defs, 2)

	community := defs[0]
	assert.Equal(t, "Community", community.Name)
	assert.True(t, community.Live)
	require.Len(t, community.Channels, 2)
	assert.Equal(t, model.ChannelTemplates, community.Channels[1].Type)
	require.NotNil(t, community.Channels[0].Welcome)
	assert.Equal(t, "Welcome to General", community.Channels[0].Welcome.Title)

	library := defs[1]
	assert.False(t, library.Live)
	require.Len(t, library.Channels, 1)
	assert.Empty(t, library.Channels[0].Welcome.Body)
}

func TestLoadSeedMissingFile(t *testing.T) {
	_, err := loadSeed("does-not-exist.yaml")
	assert.Error(t, err)
}
