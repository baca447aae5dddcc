// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"cogentcore.org/core/math32"

	"github.com/wbshw/spikeflow/chans"
)

///////////////////////////////////////////////////////////////////////
//  act.go contains the neuron model params and integration functions

// NeuronTypes enumerates the neuron model variants.
// The variant set is closed: each Layer is tagged with one type and
// dispatches through ActParams.Integrate.
type NeuronTypes int32

// The neuron model types
const (
	// LIFNeuron is the leaky integrate-and-fire model: linear leak
	// toward rest, hard threshold, reset to rest, absolute refractory
	// period during which input is ignored.
	LIFNeuron NeuronTypes = iota

	// IzhiNeuron is the Izhikevich two-variable model (membrane
	// potential v and recovery u), capturing diverse spiking and
	// bursting regimes at low cost.
	IzhiNeuron

	// HHNeuron is the Hodgkin-Huxley conductance-based model with
	// Na / K / leak channels and M, H, N gate kinetics.  Has no
	// explicit reset: a spike is an upward crossing of the spike
	// threshold on the continuous trajectory.
	HHNeuron

	NeuronTypesN
)

var neuronTypeNames = [...]string{"LIF", "Izhi", "HH"}

func (nt NeuronTypes) String() string {
	if nt < 0 || nt >= NeuronTypesN {
		return "NeuronTypesInvalid"
	}
	return neuronTypeNames[nt]
}

//////////////////////////////////////////////////////////////////////////////////////
//  LIFParams

// LIFParams are the leaky integrate-and-fire model parameters.
// Potentials are normalized: rest = 0, threshold = 1 by default.
type LIFParams struct {

	// resting potential, which is also the post-spike reset potential
	Rest float32 `def:"0"`

	// spike threshold: a spike is emitted when Vm >= Thr,
	// tested exactly once per timestep
	Thr float32 `def:"1"`

	// membrane time constant in timesteps -- how long it takes the
	// potential to leak back toward rest (1.4x the half-life)
	Tau float32 `def:"10" min:"1"`

	// input resistance multiplying the net input current
	R float32 `def:"1"`

	// number of timesteps after a spike during which input is ignored
	// and the potential is held at Rest
	Refrac float32 `def:"2" min:"0"`
}

func (lp *LIFParams) Defaults() {
	lp.Rest = 0
	lp.Thr = 1
	lp.Tau = 10
	lp.R = 1
	lp.Refrac = 2
}

func (lp *LIFParams) Update() {
}

// Integrate advances the neuron by one Euler step of size dt,
// returning true if it spiked.
func (lp *LIFParams) Integrate(nrn *Neuron, dt float32) bool {
	if nrn.RefracLeft > 0 {
		nrn.RefracLeft--
		nrn.Vm = lp.Rest
		if nrn.RefracLeft == 0 {
			nrn.ClearFlag(NeurRefrac)
		}
		return false
	}
	nrn.Vm += (dt / lp.Tau) * (lp.Rest - nrn.Vm + lp.R*nrn.Isyn)
	if nrn.Vm >= lp.Thr {
		nrn.Vm = lp.Rest
		nrn.RefracLeft = lp.Refrac
		if nrn.RefracLeft > 0 {
			nrn.SetFlag(NeurRefrac)
		}
		return true
	}
	return false
}

//////////////////////////////////////////////////////////////////////////////////////
//  IzhiParams

// IzhiParams are the Izhikevich (2003) model parameters.  The defaults
// produce regular spiking; other named regimes (fast spiking, bursting)
// are obtained by the standard A, B, C, D settings.  Potentials in mV,
// dt in msec.
type IzhiParams struct {

	// recovery time scale: smaller = slower recovery
	A float32 `def:"0.02"`

	// recovery sensitivity to subthreshold Vm fluctuations
	B float32 `def:"0.2"`

	// post-spike reset value of Vm (mV)
	C float32 `def:"-65"`

	// post-spike increment of the recovery variable
	D float32 `def:"8"`

	// spike cutoff potential (mV): spike and reset when Vm >= Thr
	Thr float32 `def:"30"`
}

func (iz *IzhiParams) Defaults() {
	iz.A = 0.02
	iz.B = 0.2
	iz.C = -65
	iz.D = 8
	iz.Thr = 30
}

func (iz *IzhiParams) Update() {
}

// Integrate advances the neuron by one Euler step of size dt (msec),
// returning true if it spiked.
func (iz *IzhiParams) Integrate(nrn *Neuron, dt float32) bool {
	v := nrn.Vm
	u := nrn.Rec
	nrn.Vm = v + dt*(0.04*v*v+5*v+140-u+nrn.Isyn)
	nrn.Rec = u + dt*iz.A*(iz.B*v-u)
	if nrn.Vm >= iz.Thr {
		nrn.Vm = iz.C
		nrn.Rec += iz.D
		return true
	}
	return false
}

//////////////////////////////////////////////////////////////////////////////////////
//  HHParams

// HHParams are the Hodgkin-Huxley (1952) model parameters: maximal
// channel conductances, reversal potentials, membrane capacitance, and
// the inner Euler step size.  The gate equations are stiff, so each
// network timestep (dt msec) is integrated as fixed-size inner Euler
// steps of Dt msec -- still a fixed-step scheme, no adaptive sizing.
type HHParams struct {

	// maximal conductances (mS/cm^2) for Na, K, leak channels
	Gbar chans.Chans `display:"inline"`

	// reversal potentials (mV) for Na, K, leak channels
	Erev chans.Chans `display:"inline"`

	// membrane capacitance (uF/cm^2)
	Cm float32 `def:"1"`

	// spike detection threshold (mV): a spike is the upward crossing
	// of this value, registered once per network timestep
	Thr float32 `def:"0"`

	// resting potential (mV) used for initialization
	Vrest float32 `def:"-65"`

	// inner Euler step in msec; dt / Dt inner steps are taken per
	// network timestep
	Dt float32 `def:"0.02" min:"0.001"`
}

func (hh *HHParams) Defaults() {
	hh.Gbar.SetAll(120, 36, 0.3)
	hh.Erev.SetAll(50, -77, -54.387)
	hh.Cm = 1
	hh.Thr = 0
	hh.Vrest = -65
	hh.Dt = 0.02
}

func (hh *HHParams) Update() {
}

// Inet returns the net membrane current at the given state
func (hh *HHParams) Inet(nrn *Neuron) float32 {
	gna := hh.Gbar.Na * nrn.GateM * nrn.GateM * nrn.GateM * nrn.GateH
	gk := hh.Gbar.K * nrn.GateN * nrn.GateN * nrn.GateN * nrn.GateN
	return gna*(hh.Erev.Na-nrn.Vm) + gk*(hh.Erev.K-nrn.Vm) + hh.Gbar.L*(hh.Erev.L-nrn.Vm) + nrn.Isyn
}

// Integrate advances the neuron by one network timestep of size dt
// (msec) using inner Euler steps, returning true if the trajectory
// crossed Thr upward within the step.  There is no reset.
func (hh *HHParams) Integrate(nrn *Neuron, dt float32) bool {
	prev := nrn.Vm
	nsub := int(dt/hh.Dt + 0.5)
	if nsub < 1 {
		nsub = 1
	}
	for i := 0; i < nsub; i++ {
		nrn.Vm += (hh.Dt / hh.Cm) * hh.Inet(nrn)
		chans.GateUpdate(&nrn.GateM, chans.MAlpha(nrn.Vm), chans.MBeta(nrn.Vm), hh.Dt)
		chans.GateUpdate(&nrn.GateH, chans.HAlpha(nrn.Vm), chans.HBeta(nrn.Vm), hh.Dt)
		chans.GateUpdate(&nrn.GateN, chans.NAlpha(nrn.Vm), chans.NBeta(nrn.Vm), hh.Dt)
	}
	return prev < hh.Thr && nrn.Vm >= hh.Thr
}

//////////////////////////////////////////////////////////////////////////////////////
//  ActParams

// spikeflow.ActParams contains all the neuron model params and
// integration functions, at the neuron level.  This is included in
// spikeflow.Layer to drive the computation; the layer's NeuronTypes tag
// selects which variant is active.
type ActParams struct {

	// leaky integrate-and-fire parameters
	LIF LIFParams `display:"inline"`

	// Izhikevich model parameters
	Izhi IzhiParams `display:"inline"`

	// Hodgkin-Huxley model parameters
	HH HHParams `display:"inline"`

	// time constant in timesteps for the running-average firing rate
	// (ActAvg), used by structural plasticity statistics
	ActAvgTau float32 `def:"100" min:"1"`

	// rate = 1 / tau
	ActAvgDt float32 `edit:"-" display:"-"`
}

func (ac *ActParams) Defaults() {
	ac.LIF.Defaults()
	ac.Izhi.Defaults()
	ac.HH.Defaults()
	ac.ActAvgTau = 100
	ac.Update()
}

// Update must be called after any changes to parameters
func (ac *ActParams) Update() {
	ac.LIF.Update()
	ac.Izhi.Update()
	ac.HH.Update()
	ac.ActAvgDt = 1 / ac.ActAvgTau
}

// InitActs initializes the neuron state to the given variant's resting
// point: membrane potential at rest, gates at steady state, no spikes.
func (ac *ActParams) InitActs(typ NeuronTypes, nrn *Neuron) {
	nrn.Isyn = 0
	nrn.Ext = 0
	nrn.Spike = 0
	nrn.SpikeT = -1
	nrn.RefracLeft = 0
	nrn.ClearFlag(NeurRefrac)
	nrn.ActAvg = 0
	nrn.Rec = 0
	nrn.GateM = 0
	nrn.GateH = 0
	nrn.GateN = 0
	switch typ {
	case LIFNeuron:
		nrn.Vm = ac.LIF.Rest
	case IzhiNeuron:
		nrn.Vm = ac.Izhi.C
		nrn.Rec = ac.Izhi.B * ac.Izhi.C
	case HHNeuron:
		nrn.Vm = ac.HH.Vrest
		gt := chans.RestingGates(ac.HH.Vrest)
		nrn.GateM = gt.M
		nrn.GateH = gt.H
		nrn.GateN = gt.N
	}
}

// Integrate advances neuron state by one timestep of size dt for the
// given model variant, returning true if the neuron spiked.  The
// threshold test happens exactly once per step, so a neuron can never
// register more than one spike per timestep.
func (ac *ActParams) Integrate(typ NeuronTypes, nrn *Neuron, dt float32) bool {
	switch typ {
	case LIFNeuron:
		return ac.LIF.Integrate(nrn, dt)
	case IzhiNeuron:
		return ac.Izhi.Integrate(nrn, dt)
	case HHNeuron:
		return ac.HH.Integrate(nrn, dt)
	}
	return false
}

// StateFinite returns true if the neuron's integrated state is finite
func (ac *ActParams) StateFinite(nrn *Neuron) bool {
	return !(math32.IsNaN(nrn.Vm) || math32.IsInf(nrn.Vm, 0) ||
		math32.IsNaN(nrn.Rec) || math32.IsInf(nrn.Rec, 0))
}

// AvgFromSpike updates the running-average firing rate from the current
// step's spike value
func (ac *ActParams) AvgFromSpike(nrn *Neuron) {
	nrn.ActAvg += ac.ActAvgDt * (nrn.Spike - nrn.ActAvg)
}
