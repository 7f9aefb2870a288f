package main

import (
	"testing"

	"github.com/daniacca/achem-ssa/internal/ssa"
	"github.com/stretchr/testify/require"
)

func TestSecurityMonitoringNetworkBuilds(t *testing.T) {
	cfg := securityMonitoringNetwork()
	require.NoError(t, ssa.ValidateNetworkConfig(cfg))

	net, err := ssa.BuildNetworkFromConfig(cfg, true)
	require.NoError(t, err)

	count, ok := net.SpeciesCount("LoginFailure")
	require.True(t, ok)
	require.Equal(t, int64(200), count)
}

func TestSecurityMonitoringNetworkRunsToCompletion(t *testing.T) {
	net, err := ssa.BuildNetworkFromConfig(securityMonitoringNetwork(), true)
	require.NoError(t, err)

	sched, err := ssa.NewScheduler(ssa.SchedulerConfig{
		Net:     net,
		Seed:    7,
		MaxIter: 50_000,
		MaxTime: ssa.UnboundedTime,
		Logger:  &ssa.NoOpLogger{},
	})
	require.NoError(t, err)
	require.NoError(t, sched.Init())

	firings, simTime, err := sched.Run()
	require.NoError(t, err)
	require.Greater(t, firings, int64(0))
	require.Greater(t, simTime, 0.0)

	loginFailures, _ := net.SpeciesCount("LoginFailure")
	require.Equal(t, int64(0), loginFailures, "LoginFailure is never replenished so it must drain to zero")
}
