package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMSAASampleCountValid(t *testing.T) {
	for _, c := range []MSAASampleCount{MSAAOff, MSAA4x, MSAA8x, MSAA16x} {
		assert.True(t, c.Valid(), "%d", c)
	}
	assert.False(t, MSAASampleCount(0).Valid())
	assert.False(t, MSAASampleCount(2).Valid())
}

func TestPresentModeString(t *testing.T) {
	assert.Equal(t, "VSync", PresentModeVSync.String())
	assert.Equal(t, "Uncapped", PresentModeUncapped.String())
	assert.Equal(t, "PresentMode(7)", PresentMode(7).String())
}
