// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"testing"
)

// makeLearnNet makes the standard A -> B pair net with learning
// enabled under the given rule
func makeLearnNet(t *testing.T, rule LearnRules, cfg func(pj *Path)) (*Network, *Path) {
	t.Helper()
	return makePairNet(t, func(pj *Path) {
		pj.Learn.Learn = true
		pj.Learn.Rule = rule
		if cfg != nil {
			cfg(pj)
		}
	})
}

// TestHebbCoincidence: a presynaptic spike delivered in the same step
// as a postsynaptic spike increments the weight by Lrate.
func TestHebbCoincidence(t *testing.T) {
	nt, pj := makeLearnNet(t, HebbRule, nil)
	ctx := NewContext()

	forceSpike(t, nt, ctx, "A") // A spikes, delivered to B next step
	forceSpike(t, nt, ctx, "B") // B spikes in the delivery step
	sy := &pj.Syns[0]
	CmprFloats([]float32{sy.Wt, sy.CoAct}, []float32{0.5 + pj.Learn.Lrate, 1}, "hebb coincidence", t)

	// non-coincident spikes leave the weight alone
	quietStep(t, nt, ctx, 3)
	forceSpike(t, nt, ctx, "A")
	quietStep(t, nt, ctx, 3)
	forceSpike(t, nt, ctx, "B")
	CmprFloats([]float32{sy.Wt}, []float32{0.5 + pj.Learn.Lrate}, "hebb non-coincidence", t)
}

// TestHebbDeferred: with Online off, changes accumulate in DWt and only
// reach the weight on an explicit WtFromDWt.
func TestHebbDeferred(t *testing.T) {
	nt, pj := makeLearnNet(t, HebbRule, func(pj *Path) {
		pj.Learn.Online = false
	})
	ctx := NewContext()

	forceSpike(t, nt, ctx, "A")
	forceSpike(t, nt, ctx, "B")
	sy := &pj.Syns[0]
	CmprFloats([]float32{sy.Wt, sy.DWt}, []float32{0.5, pj.Learn.Lrate}, "deferred accumulate", t)

	nt.WtFromDWt()
	CmprFloats([]float32{sy.Wt, sy.DWt}, []float32{0.5 + pj.Learn.Lrate, 0}, "deferred apply", t)
}

// TestSTDPAsym: pre-before-post potentiates and post-before-pre
// depresses, with magnitude from the exponential pair kernel.
func TestSTDPAsym(t *testing.T) {
	nt, pj := makeLearnNet(t, STDPAsymRule, nil)
	ctx := NewContext()

	// pre at t, post at t+2
	forceSpike(t, nt, ctx, "A")
	quietStep(t, nt, ctx, 1)
	forceSpike(t, nt, ctx, "B")
	sy := &pj.Syns[0]
	trg := 0.5 + pj.Learn.Lrate*pj.Learn.STDP.KPlus[2]
	CmprFloats([]float32{sy.Wt}, []float32{trg}, "stdp asym pre-before-post", t)
	if sy.Wt <= 0.5 {
		t.Errorf("pre-before-post should potentiate")
	}

	// fresh net: post at t, pre at t+2
	nt2, pj2 := makeLearnNet(t, STDPAsymRule, nil)
	ctx2 := NewContext()
	forceSpike(t, nt2, ctx2, "B")
	quietStep(t, nt2, ctx2, 1)
	forceSpike(t, nt2, ctx2, "A")
	sy2 := &pj2.Syns[0]
	trg2 := 0.5 - pj2.Learn.Lrate*pj2.Learn.STDP.KMinus[2]
	CmprFloats([]float32{sy2.Wt}, []float32{trg2}, "stdp asym post-before-pre", t)
	if sy2.Wt >= 0.5 {
		t.Errorf("post-before-pre should depress")
	}
}

// TestSTDPAsymPolarity: with LTPPreBeforePost off the pair polarities
// are reversed.
func TestSTDPAsymPolarity(t *testing.T) {
	nt, pj := makeLearnNet(t, STDPAsymRule, func(pj *Path) {
		pj.Learn.STDP.LTPPreBeforePost = false
	})
	ctx := NewContext()

	forceSpike(t, nt, ctx, "A")
	quietStep(t, nt, ctx, 1)
	forceSpike(t, nt, ctx, "B")
	sy := &pj.Syns[0]
	trg := 0.5 - pj.Learn.Lrate*pj.Learn.STDP.KMinus[2]
	CmprFloats([]float32{sy.Wt}, []float32{trg}, "stdp asym reversed polarity", t)
}

// TestSTDPSym: the symmetric rule potentiates regardless of spike order.
func TestSTDPSym(t *testing.T) {
	for _, order := range [][2]string{{"A", "B"}, {"B", "A"}} {
		nt, pj := makeLearnNet(t, STDPSymRule, nil)
		ctx := NewContext()
		forceSpike(t, nt, ctx, order[0])
		quietStep(t, nt, ctx, 1)
		forceSpike(t, nt, ctx, order[1])
		sy := &pj.Syns[0]
		trg := 0.5 + pj.Learn.Lrate*pj.Learn.STDP.KPlus[2]
		CmprFloats([]float32{sy.Wt}, []float32{trg}, "stdp sym "+order[0]+" first", t)
	}
}

// TestSTDPWindow: spike pairs separated by more than the window do not
// interact.
func TestSTDPWindow(t *testing.T) {
	nt, pj := makeLearnNet(t, STDPAsymRule, func(pj *Path) {
		pj.Learn.STDP.Window = 3
	})
	ctx := NewContext()

	forceSpike(t, nt, ctx, "A")
	quietStep(t, nt, ctx, 4)
	forceSpike(t, nt, ctx, "B")
	sy := &pj.Syns[0]
	CmprFloats([]float32{sy.Wt}, []float32{0.5}, "stdp outside window", t)
}

// TestWtClamp: a single update cannot take the weight outside WtRange.
func TestWtClamp(t *testing.T) {
	nt, pj := makeLearnNet(t, HebbRule, func(pj *Path) {
		pj.Learn.Lrate = 10
	})
	ctx := NewContext()
	forceSpike(t, nt, ctx, "A")
	forceSpike(t, nt, ctx, "B")
	sy := &pj.Syns[0]
	if sy.Wt != pj.Learn.WtRange.Max {
		t.Errorf("weight should clamp at %v, got %v", pj.Learn.WtRange.Max, sy.Wt)
	}

	nt2, pj2 := makeLearnNet(t, STDPAsymRule, func(pj *Path) {
		pj.Learn.Lrate = 100
	})
	ctx2 := NewContext()
	forceSpike(t, nt2, ctx2, "B")
	quietStep(t, nt2, ctx2, 1)
	forceSpike(t, nt2, ctx2, "A")
	sy2 := &pj2.Syns[0]
	if sy2.Wt != pj2.Learn.WtRange.Min {
		t.Errorf("weight should clamp at %v, got %v", pj2.Learn.WtRange.Min, sy2.Wt)
	}
}
