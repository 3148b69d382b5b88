// Command voteensemble runs the bundled examples: MoVE and ROVE on a
// toy linear program, and ROVE on subsampled linear regression.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/voteensemble"
	"github.com/hupe1980/voteensemble/learner/linprog"
	"github.com/hupe1980/voteensemble/learner/linreg"
	"gonum.org/v1/gonum/mat"
)

func main() {
	var (
		example     = flag.String("example", "LP", "example to run: LR (linear regression) or LP (linear program)")
		n           = flag.Int("n", 10000, "number of sample rows to generate")
		dataSeed    = flag.Int64("data-seed", 888, "seed for data generation")
		algSeed     = flag.Int64("alg-seed", 999, "seed for the ensemble's random source")
		workers     = flag.Int("workers", 1, "number of parallel workers")
		resultsDir  = flag.String("results-dir", "", "spill candidates to this directory instead of memory")
		keepResults = flag.Bool("keep-results", false, "keep spilled candidates after the run")
		verbose     = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := voteensemble.NewTextLogger(level)

	start := time.Now()

	var err error
	switch *example {
	case "LR":
		err = runLRExample(*n, *dataSeed, *algSeed, *workers, *resultsDir, *keepResults, logger)
	case "LP":
		err = runLPExample(*n, *dataSeed, *algSeed, *workers, *resultsDir, *keepResults, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown example %q, available: LR, LP\n", *example)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("voteensemble %s completed in %s\n", *example, time.Since(start))
}

func ensembleOptions(algSeed int64, workers int, resultsDir string, keepResults bool, logger *voteensemble.Logger) []voteensemble.Option {
	opts := []voteensemble.Option{
		voteensemble.WithRandomSeed(algSeed),
		voteensemble.WithNumWorkers(workers),
		voteensemble.WithLogger(logger),
	}
	if resultsDir != "" {
		opts = append(opts,
			voteensemble.WithSubsampleResultDir(resultsDir),
			voteensemble.WithDeleteSubsampleResults(!keepResults),
		)
	}
	return opts
}

func runLRExample(n int, dataSeed, algSeed int64, workers int, resultsDir string, keepResults bool, logger *voteensemble.Logger) error {
	fmt.Printf("Generating regression data (n=%d, p=10, noise=5.0, seed=%d)...\n", n, dataSeed)
	sample, trueBeta := linreg.GenerateData(n, 10, 5.0, dataSeed)
	printCandidate("True beta", trueBeta)

	baseLearner := linreg.New()

	for _, split := range []bool{false, true} {
		name := "ROVE"
		if split {
			name = "ROVEs"
		}
		opts := ensembleOptions(algSeed, workers, resultsDir, keepResults, logger)
		opts = append(opts, voteensemble.WithDataSplit(split))

		rove, err := voteensemble.NewROVE(baseLearner, opts...)
		if err != nil {
			return err
		}
		if err := runROVE(name, rove, sample); err != nil {
			return err
		}
	}
	return nil
}

func runLPExample(n int, dataSeed, algSeed int64, workers int, resultsDir string, keepResults bool, logger *voteensemble.Logger) error {
	fmt.Printf("Generating linear program data (n=%d, mean=[0.0 0.2], noise=2.0, seed=%d)...\n", n, dataSeed)
	sample := linprog.GenerateData(n, [2]float64{0.0, 0.2}, 2.0, dataSeed)
	printCandidate("True solution", voteensemble.Candidate{1, 0})

	baseLearner := linprog.New()

	move, err := voteensemble.NewMoVE(baseLearner, ensembleOptions(algSeed, workers, resultsDir, keepResults, logger)...)
	if err != nil {
		return err
	}
	if err := runMoVE("MoVE", move, sample); err != nil {
		return err
	}

	for _, split := range []bool{false, true} {
		name := "ROVE"
		if split {
			name = "ROVEs"
		}
		opts := ensembleOptions(algSeed, workers, resultsDir, keepResults, logger)
		opts = append(opts, voteensemble.WithDataSplit(split))

		rove, err := voteensemble.NewROVE(baseLearner, opts...)
		if err != nil {
			return err
		}
		if err := runROVE(name, rove, sample); err != nil {
			return err
		}
	}
	return nil
}

func runMoVE(name string, move *voteensemble.MoVE, sample *mat.Dense) error {
	start := time.Now()
	c, err := move.Run(context.Background(), sample)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	fmt.Printf("%s finished in %s\n", name, time.Since(start))
	printCandidate(name+" output", c)
	return nil
}

func runROVE(name string, rove *voteensemble.ROVE, sample *mat.Dense) error {
	start := time.Now()
	c, err := rove.Run(context.Background(), sample)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	fmt.Printf("%s finished in %s\n", name, time.Since(start))
	printCandidate(name+" output", c)
	return nil
}

func printCandidate(label string, c voteensemble.Candidate) {
	fmt.Printf("%s: [", label)
	for i, v := range c {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Printf("%.4f", v)
	}
	fmt.Println("]")
}
