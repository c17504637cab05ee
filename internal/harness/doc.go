// Package harness runs reproducible search experiments.
//
// An experiment names a problem, the solver settings and a number of
// replicates. The harness runs the replicates in parallel, records them in
// the run log when a store is attached, and checks the experiment's
// expectations.
//
// # Experiment Format
//
// Experiments are YAML files validated against an embedded CUE schema
// (schema.cue) before they are decoded:
//
//	name: onemax_point
//	description: "Hill climbing reaches the all-ones string"
//	problem: onemax
//	params:
//	  size: 10
//	solver:
//	  algorithm: hill_climber
//	  mutation: point
//	  generations: 200
//	replicates: 20
//	seed: 1
//	workers: 4
//	expect:
//	  min_success_rate: 0.9
//	  target: 10
//
// Unknown keys are rejected. Problem, mutation, crossover and namer names
// must be registered.
//
// # Determinism
//
// Replicate i of an experiment always draws from
// search.ReplicateRand(seed, i), so results do not depend on the number of
// workers. Stored best traces can be replayed with Replay, which checks the
// recorded fitness is reproduced.
//
// # Usage
//
//	exp, err := harness.LoadExperiment("experiments/onemax.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.New(harness.WithStore(st)).Run(ctx, exp)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
