// Package voteensemble implements the MoVE and ROVE vote-ensemble
// procedures for stabilizing noisy base learners.
//
// Both procedures repeatedly re-fit a caller-supplied base learner on
// random subsamples of the data and aggregate the resulting candidate
// solutions through voting:
//
//   - MoVE (Majority Vote Ensemble): deduplicates the B candidates and
//     returns the one appearing most often. Requires a learner with a
//     duplicate predicate (discrete solution spaces).
//   - ROVE (Ranked Vote Ensemble): generates candidates in phase I,
//     then in phase II estimates each candidate's probability of being
//     epsilon-optimal across evaluation subsamples and returns the
//     maximizer. Works for continuous solution spaces; epsilon can be
//     chosen automatically by bisection.
//
// # Quick start
//
//	l := linprog.New()
//	move, err := voteensemble.NewMoVE(l,
//	    voteensemble.WithRandomSeed(999),
//	    voteensemble.WithNumWorkers(4),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	solution, err := move.Run(ctx, sample)
//
// ROVE with data splitting and external candidate storage:
//
//	rove, err := voteensemble.NewROVE(l,
//	    voteensemble.WithDataSplit(true),
//	    voteensemble.WithSubsampleResultDir("./results"),
//	)
//	solution, err := rove.Run(ctx, sample, func(o *voteensemble.ROVERunOptions) {
//	    o.B1 = 100
//	    o.Epsilon = 0.05
//	})
//
// Candidate solutions can be kept in memory (default) or spilled to a
// resultstore backend (local directory, S3, MinIO, DynamoDB) so that
// the B fitted candidates never have to be resident at once.
//
// All parallelism is intra-process: each learning or evaluation round
// partitions its work across a bounded pool of goroutines and
// reassembles results by logical index, so runs are reproducible for a
// fixed seed and a single worker.
package voteensemble
