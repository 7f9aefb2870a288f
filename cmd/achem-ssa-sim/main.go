// Command achem-ssa-sim runs a reaction network headlessly to completion
// and writes either a trajectory (tracing or sampling) or a final-state
// summary, per the configuration table in the core's external interface.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/daniacca/achem-ssa/internal/ssa"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("achem-ssa-sim", flag.ContinueOnError)
	var (
		networkFile  = fs.String("network-file", "", "path to network JSON/YAML file (required)")
		method       = fs.String("method", "direct", "scheduling method: direct (only one implemented)")
		maxIter      = fs.Int64("max-iter", ssa.UnboundedIter, "maximum number of firings (0 halts immediately without firing; omit for unbounded, bounded by max-time instead)")
		maxTime      = fs.Float64("max-time", ssa.UnboundedTime, "maximum simulation time (0 halts immediately without firing; omit for unbounded, bounded by max-iter instead)")
		seed         = fs.Uint64("seed", 0, "RNG seed (0 = seed from entropy)")
		tracing      = fs.Bool("tracing", false, "write a full per-firing trajectory")
		sampling     = fs.Bool("sampling", false, "write species counts sampled at fixed intervals")
		timeInterval = fs.Float64("time-interval", 1.0, "sampling interval in simulation time (used when -sampling and -iter-interval is 0)")
		iterInterval = fs.Int("iter-interval", 0, "sampling interval in firings (used when -sampling and > 0)")
		outfile      = fs.String("outfile", "trajectory.csv", "trajectory output file (stem/ext used for fragment naming)")
		fragSize     = fs.Int("frag-size", 0, "rows per trajectory fragment (0 = single file, no rollover)")
		reuseProgram = fs.Bool("reuse-compiled-formula", true, "reuse a compiled formula program across identical formula text")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: achem-ssa-sim -network-file <path> [flags]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *networkFile == "" {
		fmt.Fprintln(os.Stderr, "error: -network-file is required")
		fs.Usage()
		return 2
	}
	if *method != "direct" {
		fmt.Fprintf(os.Stderr, "error: unknown method %q\n", *method)
		return 2
	}

	cfg, err := ssa.LoadNetworkConfig(*networkFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	net, err := ssa.BuildNetworkFromConfig(cfg, *reuseProgram)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	recorder, err := buildRecorder(*tracing, *sampling, *timeInterval, *iterInterval, *outfile, *fragSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	sched, err := ssa.NewScheduler(ssa.SchedulerConfig{
		Net:      net,
		Seed:     *seed,
		MaxIter:  *maxIter,
		MaxTime:  *maxTime,
		Recorder: recorder,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if err := sched.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	_, _, runErr := sched.Run()
	if flushErr := recorder.Flush(); flushErr != nil {
		fmt.Fprintf(os.Stderr, "error: final flush failed: %v\n", flushErr)
		return 1
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		return 1
	}

	if !*tracing && !*sampling {
		printFinalState(net)
	}
	return 0
}

func buildRecorder(tracing, sampling bool, timeInterval float64, iterInterval int, outfile string, fragSize int) (ssa.Recorder, error) {
	switch {
	case tracing:
		return ssa.NewFullTraceRecorder(outfile, fragSize)
	case sampling && iterInterval > 0:
		return ssa.NewIterSampler(outfile, iterInterval, fragSize)
	case sampling:
		return ssa.NewTimeSampler(outfile, timeInterval, fragSize)
	default:
		return ssa.NewNoOpRecorder(), nil
	}
}

func printFinalState(net *ssa.Network) {
	species := net.SpeciesList()
	sort.Slice(species, func(i, j int) bool { return species[i] < species[j] })

	names := make([]string, len(species))
	counts := make([]int64, len(species))
	for i, s := range species {
		names[i] = string(s)
		c, _ := net.SpeciesCount(s)
		counts[i] = c
	}

	fmt.Print("Species:")
	for _, n := range names {
		fmt.Printf(" %s", n)
	}
	fmt.Println()

	fmt.Print("FinalState:")
	for _, c := range counts {
		fmt.Printf(" %d", c)
	}
	fmt.Println()
}
