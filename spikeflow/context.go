// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import "github.com/emer/emergent/v2/etime"

// spikeflow.Context contains all the timing state and parameter
// information for running a model: the discrete timestep counter, the
// simulation-time step size, and the evaluation mode.
type Context struct {

	// accumulated amount of time the network has been running,
	// in simulation-time (not real world time), in msec.
	Time float32

	// timestep counter: number of discrete steps taken since the last
	// Reset.  All spike times and delays are expressed in these units.
	Step int

	// amount of simulation time per timestep, in msec.  Fixed for the
	// duration of a run: integration is strictly fixed-step.
	DT float32 `def:"1"`

	// current evaluation mode, e.g., Train, Test, etc
	Mode etime.Modes
}

// NewContext returns a new Context struct with default parameters
func NewContext() *Context {
	ctx := &Context{}
	ctx.Defaults()
	return ctx
}

// Defaults sets default values
func (ctx *Context) Defaults() {
	ctx.DT = 1
	ctx.Mode = etime.Train
}

// Reset resets the counters all back to zero
func (ctx *Context) Reset() {
	ctx.Time = 0
	ctx.Step = 0
	if ctx.DT == 0 {
		ctx.Defaults()
	}
}

// StepInc increments the timestep counter and simulation time
func (ctx *Context) StepInc() {
	ctx.Step++
	ctx.Time += ctx.DT
}
