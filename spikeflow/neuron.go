// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"fmt"
	"unsafe"

	"cogentcore.org/core/math32"
)

// NeuronVarStart is the byte offset of fields in the Neuron structure
// where the float32 named variables start.
// Note: all non-float32 infrastructure variables must be at the start!
const NeuronVarStart = 4

// spikeflow.Neuron holds all of the neuron (unit) level state variables.
// One flat struct covers all neuron model variants: each variant reads
// and writes only its own subset, and the unused fields stay at their
// initial values.  All variables accessible via the named-variable
// interface must be float32 and start at NeuronVarStart, in contiguous
// order.
type Neuron struct {

	// bit flags for binary state variables
	Flags NeurFlags

	////////////////////////////
	// Integration

	// membrane potential -- integrates synaptic and external current
	// over time.  Units are model-specific: normalized for LIF, mV for
	// Izhikevich and Hodgkin-Huxley.
	Vm float32

	// recovery variable (u) for the Izhikevich model
	Rec float32

	// sodium channel activation gate (m) for Hodgkin-Huxley
	GateM float32

	// sodium channel inactivation gate (h) for Hodgkin-Huxley
	GateH float32

	// potassium channel activation gate (n) for Hodgkin-Huxley
	GateN float32

	// net input current driving this step's integration: summed synaptic
	// contributions (inhibitory paths subtract) plus external input
	Isyn float32

	// external input current applied this step (from ApplyExt)
	Ext float32

	////////////////////////////
	// Spiking

	// whether the neuron spiked on the last committed step (0 or 1)
	Spike float32

	// time of last spike, in timesteps; -1 if never spiked
	SpikeT float32

	// number of remaining refractory timesteps during which input is
	// ignored and Vm is held at reset (LIF only)
	RefracLeft float32

	////////////////////////////
	// Stats

	// running-average firing rate (spikes per step), updated at commit
	// with ActAvgDt rate constant; drives structural plasticity stats
	ActAvg float32
}

var NeuronVars = []string{
	"Vm", "Rec", "GateM", "GateH", "GateN", "Isyn", "Ext",
	"Spike", "SpikeT", "RefracLeft", "ActAvg",
}

var NeuronVarsMap map[string]int

var NeuronVarProps = map[string]string{
	"Vm":         `cat:"Integ"`,
	"Rec":        `cat:"Integ"`,
	"GateM":      `cat:"Integ" min:"0" max:"1"`,
	"GateH":      `cat:"Integ" min:"0" max:"1"`,
	"GateN":      `cat:"Integ" min:"0" max:"1"`,
	"Isyn":       `cat:"Integ"`,
	"Ext":        `cat:"Integ"`,
	"Spike":      `cat:"Spike"`,
	"SpikeT":     `cat:"Spike"`,
	"RefracLeft": `cat:"Spike"`,
	"ActAvg":     `cat:"Stats" min:"0" max:"1"`,
}

func init() {
	NeuronVarsMap = make(map[string]int, len(NeuronVars))
	for i, v := range NeuronVars {
		NeuronVarsMap[v] = i
	}
}

func (nrn *Neuron) VarNames() []string {
	return NeuronVars
}

// NeuronVarIndexByName returns the index of the variable in the Neuron, or error
func NeuronVarIndexByName(varNm string) (int, error) {
	i, ok := NeuronVarsMap[varNm]
	if !ok {
		return -1, fmt.Errorf("Neuron VarByName: variable name: %v not valid", varNm)
	}
	return i, nil
}

// VarByIndex returns variable using index (0 = first variable in NeuronVars list)
func (nrn *Neuron) VarByIndex(idx int) float32 {
	fv := (*float32)(unsafe.Pointer(uintptr(unsafe.Pointer(nrn)) + uintptr(NeuronVarStart+4*idx)))
	return *fv
}

// SetVarByIndex sets variable using index (0 = first variable in NeuronVars list)
func (nrn *Neuron) SetVarByIndex(idx int, val float32) {
	fv := (*float32)(unsafe.Pointer(uintptr(unsafe.Pointer(nrn)) + uintptr(NeuronVarStart+4*idx)))
	*fv = val
}

// VarByName returns variable by name, or error
func (nrn *Neuron) VarByName(varNm string) (float32, error) {
	i, err := NeuronVarIndexByName(varNm)
	if err != nil {
		return math32.NaN(), err
	}
	return nrn.VarByIndex(i), nil
}

func (nrn *Neuron) HasFlag(f NeurFlags) bool {
	return nrn.Flags&f != 0
}

func (nrn *Neuron) SetFlag(f NeurFlags) {
	nrn.Flags |= f
}

func (nrn *Neuron) ClearFlag(f NeurFlags) {
	nrn.Flags &^= f
}

// IsOff returns true if the neuron has been turned off (pruned or lesioned).
// Off neurons never integrate, spike, or carry live synapses.
func (nrn *Neuron) IsOff() bool {
	return nrn.HasFlag(NeurOff)
}

// NeurFlags are bit-flags encoding relevant binary state for neurons
type NeurFlags uint32

// The neuron flags
const (
	// NeurOff flag indicates that this neuron has been turned off:
	// pruned by structural plasticity, or its slot is awaiting reuse
	// by neurogenesis
	NeurOff NeurFlags = 1 << iota

	// NeurHasExt means the neuron has external input in its Ext field
	NeurHasExt

	// NeurRefrac means the neuron is within its refractory period
	NeurRefrac
)
