package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const decayNetworkJSON = `{
  "name": "decay",
  "species": [
    {"name": "A", "count": 50},
    {"name": "B", "count": 0}
  ],
  "reactions": [
    {
      "id": "decay",
      "reactants": [{"species": "A", "stoichiometry": 1}],
      "products": [{"species": "B", "stoichiometry": 1}],
      "rate_law": {"kind": "mass_action", "k": 1.0}
    }
  ]
}`

func writeNetworkFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "network.json")
	require.NoError(t, os.WriteFile(path, []byte(decayNetworkJSON), 0o644))
	return path
}

func TestRunRequiresNetworkFile(t *testing.T) {
	require.Equal(t, 2, run([]string{}))
}

func TestRunRejectsUnknownMethod(t *testing.T) {
	networkFile := writeNetworkFile(t)
	code := run([]string{"-network-file", networkFile, "-method", "next-reaction"})
	require.Equal(t, 2, code)
}

func TestRunFinalStateSummaryExitsZero(t *testing.T) {
	networkFile := writeNetworkFile(t)
	code := run([]string{"-network-file", networkFile, "-seed", "42", "-max-iter", "50"})
	require.Equal(t, 0, code)
}

func TestRunTracingWritesTrajectoryFile(t *testing.T) {
	networkFile := writeNetworkFile(t)
	outfile := filepath.Join(t.TempDir(), "trace.csv")

	code := run([]string{
		"-network-file", networkFile,
		"-seed", "7",
		"-max-iter", "50",
		"-tracing",
		"-outfile", outfile,
	})
	require.Equal(t, 0, code)
	require.FileExists(t, outfile)

	data, err := os.ReadFile(outfile)
	require.NoError(t, err)
	require.Contains(t, string(data), "sim_time,reaction")
}

func TestRunSamplingWritesSampleFile(t *testing.T) {
	networkFile := writeNetworkFile(t)
	outfile := filepath.Join(t.TempDir(), "samples.csv")

	code := run([]string{
		"-network-file", networkFile,
		"-seed", "7",
		"-max-iter", "50",
		"-sampling",
		"-time-interval", "0.1",
		"-outfile", outfile,
	})
	require.Equal(t, 0, code)
	require.FileExists(t, outfile)
}

func TestRunReportsSetupFailureForMissingFile(t *testing.T) {
	code := run([]string{"-network-file", filepath.Join(t.TempDir(), "missing.json")})
	require.Equal(t, 1, code)
}
