package ssa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderFinalStateReportIncludesSpeciesTable(t *testing.T) {
	net := buildDecayNetwork(t, 1.0, 100)

	markdown, html := RenderFinalStateReport("run-1", net, 42, 3.14)

	require.Contains(t, markdown, "run-1")
	require.Contains(t, markdown, "Firings: 42")
	require.Contains(t, markdown, "| A | 100 |")
	require.Contains(t, markdown, "| B | 0 |")

	require.Contains(t, string(html), "<table>")
	require.True(t, strings.Contains(string(html), "run-1") || strings.Contains(string(html), "Run run-1"))
}

func TestRenderFinalStateReportSpeciesSortedLexicographically(t *testing.T) {
	net := NewNetwork()
	require.NoError(t, net.AddSpecies(Species{Name: "Z", Count: 1}))
	require.NoError(t, net.AddSpecies(Species{Name: "A", Count: 2}))
	require.NoError(t, net.Init())

	markdown, _ := RenderFinalStateReport("run-2", net, 0, 0)
	idxA := strings.Index(markdown, "| A |")
	idxZ := strings.Index(markdown, "| Z |")
	require.Greater(t, idxA, 0)
	require.Greater(t, idxZ, idxA)
}
