// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

// SpikeHistory is a bounded per-layer record of committed spike values,
// stored as a flat ring of Depth steps x NNeurons values.  Readers only
// ever see fully committed steps: the current step's spikes are written
// in one Commit call after all layers have integrated, which is what
// makes delayed and recurrent reads independent of layer update order.
//
// Steps older than Depth are discarded; reads beyond the recorded
// history return 0, consistent with a quiescent past.
type SpikeHistory struct {

	// number of past steps retained
	Depth int

	// number of neurons per step
	NNeurons int

	// flat ring storage, Depth * NNeurons
	Buf []float32

	// ring slot holding the most recently committed step
	cur int

	// total steps committed since Init
	committed int
}

// Init allocates the ring for the given depth and neuron count and
// clears it.  Depth is clamped to at least 1.
func (sh *SpikeHistory) Init(depth, nneurons int) {
	if depth < 1 {
		depth = 1
	}
	sh.Depth = depth
	sh.NNeurons = nneurons
	sh.Buf = make([]float32, depth*nneurons)
	sh.cur = depth - 1
	sh.committed = 0
}

// Reset clears all recorded history without reallocating
func (sh *SpikeHistory) Reset() {
	for i := range sh.Buf {
		sh.Buf[i] = 0
	}
	sh.cur = sh.Depth - 1
	sh.committed = 0
}

// Steps returns the number of committed steps available (up to Depth)
func (sh *SpikeHistory) Steps() int {
	if sh.committed > sh.Depth {
		return sh.Depth
	}
	return sh.committed
}

// Commit records the given per-neuron spike values as the next step.
// len(spikes) must equal NNeurons.
func (sh *SpikeHistory) Commit(spikes []float32) {
	sh.cur++
	if sh.cur >= sh.Depth {
		sh.cur = 0
	}
	copy(sh.Buf[sh.cur*sh.NNeurons:(sh.cur+1)*sh.NNeurons], spikes)
	sh.committed++
}

// Spike returns neuron ni's committed spike value back steps ago:
// back = 1 is the most recently committed step.  Reads past the
// recorded history (back > Steps or back > Depth) return 0.
func (sh *SpikeHistory) Spike(back, ni int) float32 {
	if back < 1 || back > sh.Depth || back > sh.committed {
		return 0
	}
	slot := sh.cur - (back - 1)
	if slot < 0 {
		slot += sh.Depth
	}
	return sh.Buf[slot*sh.NNeurons+ni]
}
