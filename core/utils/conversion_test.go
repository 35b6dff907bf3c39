package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "dc-east", ToString("dc-east"))
	assert.Equal(t, "raw", ToString([]byte("raw")))

	// JSON numbers decode as float64
	assert.Equal(t, "42", ToString(float64(42)))
	assert.Equal(t, "3.5", ToString(3.5))
	assert.Equal(t, "true", ToString(true))
}
