package main

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	var buf bytes.Buffer
	cfg := genConfig{rows: 200, start: time.Date(2004, 3, 10, 18, 0, 0, 0, time.UTC), seed: 7, missing: 0.1, malformed: 0.1}

	s, err := generate(&buf, cfg)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 201)
	assert.True(t, strings.HasPrefix(lines[0], "Date;Time;CO(GT);"))
	assert.Equal(t, 200, s.rows)
	assert.Positive(t, s.malformed)
	assert.Less(t, s.malformed, 60)
	assert.LessOrEqual(t, s.aqiValid, s.rows-s.malformed)
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := genConfig{rows: 50, start: time.Date(2004, 3, 10, 0, 0, 0, 0, time.UTC), seed: 42, missing: 0.05}

	var a, b bytes.Buffer
	_, err := generate(&a, cfg)
	require.NoError(t, err)
	_, err = generate(&b, cfg)
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
}

func TestReading(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	assert.Equal(t, "-200", reading(rng, 1.1, 0, 1, 1))

	v := reading(rng, 0, 10, 20, 2)
	assert.Regexp(t, `^1\d,\d\d$|^20,00$`, v)
}
