// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chans

import (
	"testing"

	"cogentcore.org/core/math32"
)

const difTol = float32(1.0e-6)

func TestRateSingularities(t *testing.T) {
	// the linear-over-expm1 forms have analytic limits at their
	// singular voltages, and must be continuous through them
	for _, vm := range []float32{-40.001, -40, -39.999} {
		a := MAlpha(vm)
		if math32.Abs(a-1) > 1e-3 {
			t.Errorf("MAlpha near -40: got %v, want ~1", a)
		}
	}
	for _, vm := range []float32{-55.001, -55, -54.999} {
		a := NAlpha(vm)
		if math32.Abs(a-0.1) > 1e-4 {
			t.Errorf("NAlpha near -55: got %v, want ~0.1", a)
		}
	}
}

func TestRestingGates(t *testing.T) {
	gt := RestingGates(-65)
	// classic steady-state values at -65 mV rest
	if math32.Abs(gt.M-0.053) > 0.005 {
		t.Errorf("resting M: got %v, want ~0.053", gt.M)
	}
	if math32.Abs(gt.H-0.596) > 0.01 {
		t.Errorf("resting H: got %v, want ~0.596", gt.H)
	}
	if math32.Abs(gt.N-0.318) > 0.005 {
		t.Errorf("resting N: got %v, want ~0.318", gt.N)
	}

	// steady state is a fixed point of the gate update
	for i := 0; i < 100; i++ {
		GateUpdate(&gt.M, MAlpha(-65), MBeta(-65), 0.02)
		GateUpdate(&gt.H, HAlpha(-65), HBeta(-65), 0.02)
		GateUpdate(&gt.N, NAlpha(-65), NBeta(-65), 0.02)
	}
	rg := RestingGates(-65)
	if math32.Abs(gt.M-rg.M) > difTol || math32.Abs(gt.H-rg.H) > difTol || math32.Abs(gt.N-rg.N) > difTol {
		t.Errorf("resting gates drifted under update: %v vs %v", gt, rg)
	}
}

func TestGateUpdateRelaxation(t *testing.T) {
	// a perturbed gate relaxes monotonically back toward steady state
	vm := float32(-65)
	ss := MAlpha(vm) / (MAlpha(vm) + MBeta(vm))
	g := ss + 0.3
	prev := g
	for i := 0; i < 500; i++ {
		GateUpdate(&g, MAlpha(vm), MBeta(vm), 0.02)
		if g > prev {
			t.Fatalf("gate moved away from steady state at iter %d", i)
		}
		prev = g
	}
	if math32.Abs(g-ss) > 0.01 {
		t.Errorf("gate did not relax to steady state: %v vs %v", g, ss)
	}
}
