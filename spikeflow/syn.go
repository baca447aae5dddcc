// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"cogentcore.org/core/base/randx"
)

// SynTypes enumerates the synapse model variants, which determine how a
// presynaptic spike is transformed into a postsynaptic current
// contribution.
type SynTypes int32

// The synapse model types
const (
	// SimpleSyn delivers Wt * spike(t-1): an instantaneous pulse one
	// timestep after the presynaptic spike, no persistence.
	SimpleSyn SynTypes = iota

	// DecaySyn maintains a per-synapse trace that accumulates
	// Wt * spike and decays geometrically by the Decay factor each
	// step; the contribution is the trace itself.
	DecaySyn

	// DelaySyn delivers Wt * spike(t-Delay): an instantaneous pulse
	// Delay timesteps after the presynaptic spike.
	DelaySyn

	SynTypesN
)

var synTypeNames = [...]string{"Simple", "Decay", "Delay"}

func (st SynTypes) String() string {
	if st < 0 || st >= SynTypesN {
		return "SynTypesInvalid"
	}
	return synTypeNames[st]
}

//////////////////////////////////////////////////////////////////////////////////////
//  WtInitParams

// WtInitParams are the initial random weight distribution parameters:
// weights are drawn from Mean +- Var uniform by default, then clipped
// to the learning rule's weight range at init.
type WtInitParams struct {
	randx.RandParams

	// symmetry: if true, reciprocal recurrent weights are initialized
	// to the same value in both directions where both synapses exist
	Sym bool
}

func (wi *WtInitParams) Defaults() {
	wi.Mean = 0.5
	wi.Var = 0.25
	wi.Dist = randx.Uniform
	wi.Sym = false
}

//////////////////////////////////////////////////////////////////////////////////////
//  SynParams

// spikeflow.SynParams contains the synapse model params for one
// pathway: the kernel type and its per-type constants.  All synapses in
// a pathway share one SynParams.
type SynParams struct {

	// synapse kernel type
	Type SynTypes

	// geometric retention factor in [0, 1) for the Decay kernel:
	// trace *= Decay each step.  0 reduces Decay to Simple.
	Decay float32 `def:"0.7" min:"0" max:"0.999"`

	// delivery delay in timesteps for the Delay kernel, >= 1.
	// Must not exceed the network spike history depth.
	Delay int `def:"1" min:"1"`

	// initial weight distribution
	WtInit WtInitParams `display:"inline"`
}

func (sp *SynParams) Defaults() {
	sp.Type = SimpleSyn
	sp.Decay = 0.7
	sp.Delay = 1
	sp.WtInit.Defaults()
	sp.Update()
}

func (sp *SynParams) Update() {
}

// SpikeLag returns how many steps back in the presynaptic spike history
// this kernel reads
func (sp *SynParams) SpikeLag() int {
	if sp.Type == DelaySyn {
		return sp.Delay
	}
	return 1
}

// Contribution computes this synapse's current contribution given the
// lagged presynaptic spike value (0 or 1), updating the trace for the
// Decay kernel.  Spike values are read from committed history, so the
// result is independent of within-step update order.
func (sp *SynParams) Contribution(sy *Synapse, spike float32) float32 {
	switch sp.Type {
	case SimpleSyn, DelaySyn:
		return sy.Wt * spike
	case DecaySyn:
		sy.Trace = sy.Trace*sp.Decay + sy.Wt*spike
		return sy.Trace
	}
	return 0
}
