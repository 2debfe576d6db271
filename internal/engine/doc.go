// Package engine drives per-node evaluators over a compiled expression DAG.
//
// The engine is the dispatcher between a finalized ir.Graph and the jet
// arena. It owns one evaluator per node and invokes them strictly in
// topological order for a requested time coefficient and jet degree.
//
// ARCHITECTURE:
//
// Evaluation Flow:
// 1. The caller (usually Function) writes inputs into leaf blocks
// 2. Engine.Eval(d, k) steps every node at coefficient k, degrees 0..d
// 3. Results accumulate in the arena owned by the jet.Indexer
// 4. The caller reads output blocks by node id
//
// Coefficients must be requested in increasing order: coefficient k of a
// node reads coefficients 0..k-1 of itself and 0..k of its operands.
//
// Reallocation:
// Indexer.Resize discards the arena and bumps its generation. Every
// evaluator holds slices into the old arena, so the engine refuses to run
// (STALE_EVALUATORS) until Rebuild is called. Function does this for you.
//
// CRITICAL PATTERNS:
//
// Single-threaded, synchronous evaluation. Engine and Function are not
// safe for concurrent use. Clock and the run-ID generators are.
//
// Errors are *RuntimeError values carrying the failing node and opcode.
// Numeric singularities that IEEE-754 can represent (division by zero,
// log of zero) are not errors.
package engine
