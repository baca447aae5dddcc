// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"strconv"

	"cogentcore.org/core/tensor"
	"cogentcore.org/core/tensor/table"
)

// InputSource provides a sequence of external input patterns, one set
// per timestep, keyed by layer name.  Step advances to the next
// pattern and reports false when the sequence is exhausted; State
// returns the current pattern for the named layer, or nil if the
// source has no input for it.
type InputSource interface {
	Init(run int)
	Step() bool
	State(element string) tensor.Tensor
}

// TableSource is an InputSource over a table with one column per input
// layer (column name = layer name) and one row per timestep.
type TableSource struct {

	// table of patterns: column per input layer, row per timestep
	Table *table.Table

	// current row; -1 before the first Step
	Row int
}

// NewTableSource returns a TableSource over the given table
func NewTableSource(dt *table.Table) *TableSource {
	ts := &TableSource{Table: dt}
	ts.Init(0)
	return ts
}

func (ts *TableSource) Init(run int) {
	ts.Row = -1
}

func (ts *TableSource) Step() bool {
	ts.Row++
	return ts.Row < ts.Table.Rows
}

func (ts *TableSource) State(element string) tensor.Tensor {
	col, err := ts.Table.ColumnByName(element)
	if err != nil {
		return nil
	}
	return col.SubSpace([]int{ts.Row})
}

// StepFunc is called after each completed timestep, with the network
// state as of the end of that step
type StepFunc func(nt *Network, ctx *Context)

// RunTime drives the network over the given input source: for each
// pattern the source yields, it applies the pattern to the input
// layers, advances the network one timestep, and invokes the post-step
// callback.  A source of length N produces exactly N steps and N
// callback invocations.  Returns the number of completed steps and the
// first error, stopping at the step that caused it.
func RunTime(nt *Network, ctx *Context, src InputSource, post StepFunc) (int, error) {
	ins := nt.InputLayers()
	n := 0
	for src.Step() {
		for _, ly := range ins {
			st := src.State(ly.Name)
			if st == nil {
				continue
			}
			if err := ly.ApplyExt(st); err != nil {
				return n, err
			}
		}
		if err := nt.Step(ctx); err != nil {
			return n, err
		}
		if post != nil {
			post(nt, ctx)
		}
		n++
	}
	nt.SetMetaData("StepsRun", strconv.Itoa(ctx.Step))
	return n, nil
}

// RunSteps advances the network the given number of timesteps with the
// current external inputs, invoking the post-step callback after each.
// Returns the number of completed steps and the first error.
func RunSteps(nt *Network, ctx *Context, steps int, post StepFunc) (int, error) {
	for n := 0; n < steps; n++ {
		if err := nt.Step(ctx); err != nil {
			return n, err
		}
		if post != nil {
			post(nt, ctx)
		}
	}
	nt.SetMetaData("StepsRun", strconv.Itoa(ctx.Step))
	return steps, nil
}

// BuildNetwork finalizes a constructed network in one call: applies
// defaults, builds the connectivity, and initializes weights and state
func BuildNetwork(nt *Network) error {
	nt.Defaults()
	if err := nt.Build(); err != nil {
		return err
	}
	nt.InitWeights()
	return nil
}
