package solver

import (
	"encoding/base64"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(Config{APIKey: "secret"})
	require.NoError(t, err)
	assert.IsType(t, &TwoCaptcha{}, s)

	s, err = New(Config{Backend: "OpenAI", OpenAIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &Vision{}, s)

	_, err = New(Config{Backend: "anticaptcha", APIKey: "secret"})
	assert.ErrorContains(t, err, "unknown solver backend")
}

func TestSolutionFirst(t *testing.T) {
	_, err := (&Solution{ID: "1"}).First()
	assert.ErrorIs(t, err, ErrNoPoints)

	var nilSolution *Solution
	_, err = nilSolution.First()
	assert.ErrorIs(t, err, ErrNoPoints)

	_, err = (&Solution{ID: "1", Points: []Point{{X: math.NaN(), Y: 1}}}).First()
	assert.Error(t, err)

	p, err := (&Solution{ID: "1", Points: []Point{{X: 3, Y: 4}, {X: 5, Y: 6}}}).First()
	require.NoError(t, err)
	assert.Equal(t, Point{X: 3, Y: 4}, p)
}

func TestLoadInstructionImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imginstructions.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG fake"), 0644))

	encoded, err := LoadInstructionImage(path)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("\x89PNG fake")), encoded)

	_, err = LoadInstructionImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
