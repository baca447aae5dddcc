// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"cogentcore.org/core/math32"
	"cogentcore.org/core/math32/minmax"
)

// LearnRules enumerates the synaptic learning rules.
type LearnRules int32

// The learning rules
const (
	// NoLearn disables learning on a pathway: weights stay fixed.
	NoLearn LearnRules = iota

	// HebbRule is spike-coincidence Hebbian learning: the weight
	// change is proportional to the product of presynaptic and
	// postsynaptic spiking in the same delivery step, with a
	// proportional decay term keeping weights bounded.
	HebbRule

	// STDPAsymRule is asymmetric spike-timing-dependent plasticity:
	// pre-before-post pairs within the timing window potentiate and
	// post-before-pre pairs depress (or the reverse if
	// LTPPreBeforePost is off), with exponentially decaying magnitude
	// in the pair interval.
	STDPAsymRule

	// STDPSymRule is symmetric STDP: pairs within the window change
	// the weight by the same sign regardless of spike order, with
	// magnitude decaying in the absolute pair interval.
	STDPSymRule

	LearnRulesN
)

var learnRuleNames = [...]string{"NoLearn", "Hebb", "STDPAsym", "STDPSym"}

func (lr LearnRules) String() string {
	if lr < 0 || lr >= LearnRulesN {
		return "LearnRulesInvalid"
	}
	return learnRuleNames[lr]
}

//////////////////////////////////////////////////////////////////////////////////////
//  HebbParams

// HebbParams are the Hebbian coincidence rule parameters.
type HebbParams struct {

	// decay applied in proportion to the current weight on each
	// postsynaptic spike, preventing unbounded growth.  0 gives the
	// pure coincidence rule.
	Decay float32 `def:"0" min:"0" max:"1"`
}

func (hp *HebbParams) Defaults() {
	hp.Decay = 0
}

func (hp *HebbParams) Update() {
}

// DWt computes the raw Hebbian weight change for the given delivered
// presynaptic spike, postsynaptic spike, and current weight
func (hp *HebbParams) DWt(pre, post, wt float32) float32 {
	return post * (pre - hp.Decay*wt)
}

//////////////////////////////////////////////////////////////////////////////////////
//  STDPParams

// STDPParams are the spike-timing-dependent plasticity parameters,
// shared by the asymmetric and symmetric rules.  Pair interactions are
// evaluated over a bounded window of recent spike history; the window
// sets the pathway's history requirement at build time.
type STDPParams struct {

	// potentiation amplitude for a zero-interval pair
	APlus float32 `def:"0.01" min:"0"`

	// depression amplitude for a zero-interval pair (asymmetric rule)
	AMinus float32 `def:"0.011" min:"0"`

	// potentiation time constant in timesteps
	TauPlus float32 `def:"10" min:"1"`

	// depression time constant in timesteps
	TauMinus float32 `def:"10" min:"1"`

	// pair window in timesteps: spike pairs separated by more than
	// this do not interact
	Window int `def:"20" min:"1"`

	// potentiation polarity for the asymmetric rule: if true
	// (default), pre-before-post potentiates and post-before-pre
	// depresses; if false the polarity is reversed
	LTPPreBeforePost bool `def:"true"`

	// precomputed potentiation kernel, indexed by pair interval
	KPlus []float32 `edit:"-" display:"-"`

	// precomputed depression kernel, indexed by pair interval
	KMinus []float32 `edit:"-" display:"-"`
}

func (sp *STDPParams) Defaults() {
	sp.APlus = 0.01
	sp.AMinus = 0.011
	sp.TauPlus = 10
	sp.TauMinus = 10
	sp.Window = 20
	sp.LTPPreBeforePost = true
	sp.Update()
}

// Update recomputes the exponential pair kernels
func (sp *STDPParams) Update() {
	if sp.Window < 1 {
		sp.Window = 1
	}
	sp.KPlus = make([]float32, sp.Window+1)
	sp.KMinus = make([]float32, sp.Window+1)
	for d := 0; d <= sp.Window; d++ {
		sp.KPlus[d] = sp.APlus * math32.FastExp(-float32(d)/sp.TauPlus)
		sp.KMinus[d] = sp.AMinus * math32.FastExp(-float32(d)/sp.TauMinus)
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  LearnParams

// spikeflow.LearnParams manages learning for one pathway: the rule
// selection, learning rate, weight range clamp, and update cadence.
type LearnParams struct {

	// enable learning for this pathway
	Learn bool

	// which learning rule to apply
	Rule LearnRules

	// learning rate multiplying all weight changes
	Lrate float32 `def:"0.04" min:"0"`

	// if true, accumulated weight changes are applied to the weights
	// within the same timestep they are computed; if false they
	// accumulate in DWt until WtFromDWt is called explicitly
	Online bool `def:"true"`

	// allowed weight range: weights are clamped into this range after
	// every update, so a single large change cannot escape it
	WtRange minmax.F32 `display:"inline"`

	// Hebbian rule parameters
	Hebb HebbParams `display:"inline"`

	// STDP rule parameters (both asymmetric and symmetric rules)
	STDP STDPParams `display:"inline"`
}

func (lp *LearnParams) Defaults() {
	lp.Learn = false
	lp.Rule = HebbRule
	lp.Lrate = 0.04
	lp.Online = true
	lp.WtRange.Set(0, 1)
	lp.Hebb.Defaults()
	lp.STDP.Defaults()
	lp.Update()
}

// Update must be called after any changes to parameters
func (lp *LearnParams) Update() {
	lp.Hebb.Update()
	lp.STDP.Update()
}

// HistSteps returns how many steps of spike history this pathway's
// learning needs beyond the current step
func (lp *LearnParams) HistSteps() int {
	if !lp.Learn {
		return 0
	}
	switch lp.Rule {
	case STDPAsymRule, STDPSymRule:
		return lp.STDP.Window
	}
	return 1
}

// PostPairDWt returns the weight change from one (pre at t-lag,
// post at t) pair.  lag >= 0.
func (lp *LearnParams) PostPairDWt(lag int) float32 {
	if lag > lp.STDP.Window {
		return 0
	}
	switch lp.Rule {
	case STDPAsymRule:
		if lp.STDP.LTPPreBeforePost {
			return lp.STDP.KPlus[lag]
		}
		return -lp.STDP.KMinus[lag]
	case STDPSymRule:
		return lp.STDP.KPlus[lag]
	}
	return 0
}

// PrePairDWt returns the weight change from one (post at t-lag,
// pre at t) pair.  lag >= 1: the zero-interval pair is counted once,
// on the post side.
func (lp *LearnParams) PrePairDWt(lag int) float32 {
	if lag > lp.STDP.Window {
		return 0
	}
	switch lp.Rule {
	case STDPAsymRule:
		if lp.STDP.LTPPreBeforePost {
			return -lp.STDP.KMinus[lag]
		}
		return lp.STDP.KPlus[lag]
	case STDPSymRule:
		return lp.STDP.KPlus[lag]
	}
	return 0
}

// WtFromDWt applies the accumulated weight change to the weight,
// clamped into WtRange, and clears the accumulator
func (lp *LearnParams) WtFromDWt(sy *Synapse) {
	if sy.DWt == 0 {
		return
	}
	sy.Wt = lp.WtRange.ClipValue(sy.Wt + sy.DWt)
	sy.DWt = 0
}
