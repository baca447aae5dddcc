// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package chans provides ion channel conductances for computing point-neuron
and Hodgkin-Huxley style membrane equations based on the standard
equivalent RC circuit model of a neuron (i.e., basic Ohms law equations).
Includes sodium, potassium, and leak channels, plus the voltage-dependent
gate kinetics used by the Hodgkin-Huxley model.
*/
package chans

import "cogentcore.org/core/math32"

// Chans are ion channel conductances (or reversal potentials) for the
// channels used in computing membrane currents.
type Chans struct {

	// sodium (Na) channels -- fast depolarizing
	Na float32

	// potassium (K) channels -- repolarizing / hyperpolarizing
	K float32

	// leak channels -- determines resting potential together with reversals
	L float32
}

// SetAll sets all the values
func (ch *Chans) SetAll(na, k, l float32) {
	ch.Na, ch.K, ch.L = na, k, l
}

// Gates are the Hodgkin-Huxley gating variables: activation and
// inactivation of the sodium channel (M, H) and activation of the
// potassium channel (N).  Each evolves by first-order kinetics between
// voltage-dependent opening (alpha) and closing (beta) rates.
type Gates struct {

	// sodium channel activation gate
	M float32

	// sodium channel inactivation gate
	H float32

	// potassium channel activation gate
	N float32
}

// SetAll sets all the gate values
func (gt *Gates) SetAll(m, h, n float32) {
	gt.M, gt.H, gt.N = m, h, n
}

// Rate functions use the standard Hodgkin-Huxley (1952) parameterization
// with voltages in mV and a -65 mV resting potential.  The 0/0
// singularities at vm = -40 and vm = -55 are resolved by the analytic
// limit of the linear-over-expm1 form.

// MAlpha returns the opening rate for the M gate at membrane potential vm
func MAlpha(vm float32) float32 {
	dv := vm + 40
	if math32.Abs(dv) < 1e-4 {
		return 1
	}
	return 0.1 * dv / (1 - math32.FastExp(-dv/10))
}

// MBeta returns the closing rate for the M gate at membrane potential vm
func MBeta(vm float32) float32 {
	return 4 * math32.FastExp(-(vm+65)/18)
}

// HAlpha returns the opening rate for the H gate at membrane potential vm
func HAlpha(vm float32) float32 {
	return 0.07 * math32.FastExp(-(vm+65)/20)
}

// HBeta returns the closing rate for the H gate at membrane potential vm
func HBeta(vm float32) float32 {
	return 1 / (1 + math32.FastExp(-(vm+35)/10))
}

// NAlpha returns the opening rate for the N gate at membrane potential vm
func NAlpha(vm float32) float32 {
	dv := vm + 55
	if math32.Abs(dv) < 1e-4 {
		return 0.1
	}
	return 0.01 * dv / (1 - math32.FastExp(-dv/10))
}

// NBeta returns the closing rate for the N gate at membrane potential vm
func NBeta(vm float32) float32 {
	return 0.125 * math32.FastExp(-(vm+65)/80)
}

// GateUpdate advances gate value g by explicit Euler over dt (msec)
// given opening rate alpha and closing rate beta.
func GateUpdate(g *float32, alpha, beta, dt float32) {
	*g += dt * (alpha*(1-*g) - beta**g)
}

// RestingGates returns the steady-state gate values at membrane potential
// vm, used to initialize a neuron at rest.
func RestingGates(vm float32) Gates {
	var gt Gates
	gt.M = MAlpha(vm) / (MAlpha(vm) + MBeta(vm))
	gt.H = HAlpha(vm) / (HAlpha(vm) + HBeta(vm))
	gt.N = NAlpha(vm) / (NAlpha(vm) + NBeta(vm))
	return gt
}
