// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"fmt"
	"unsafe"

	"cogentcore.org/core/math32"
)

// spikeflow.Synapse holds state for the synaptic connection between two
// neurons.  All variables must be float32 and contiguous, for the
// named-variable access interface.
type Synapse struct {

	// synaptic weight value -- always non-negative; inhibitory paths
	// subtract their contribution instead of carrying negative weights
	Wt float32

	// change in synaptic weight, accumulated by learning rules and
	// applied (then cleared) by WtFromDWt
	DWt float32

	// exponential activity trace for decay synapses: the post-synaptic
	// contribution that persists and decays between pre-synaptic spikes
	Trace float32

	// co-active spike pairs recorded by the learning rule since the
	// last structural plasticity pass; any co-activity exempts the
	// synapse from pruning at that pass
	CoAct float32

	// number of consecutive plasticity checks for which this synapse was
	// below the pruning threshold; pruned when it reaches PruneWin
	LowCnt float32
}

var SynapseVars = []string{"Wt", "DWt", "Trace", "CoAct", "LowCnt"}

var SynapseVarsMap map[string]int

var SynapseVarProps = map[string]string{
	"Wt":     `cat:"Wts"`,
	"DWt":    `cat:"Wts" auto-scale:"+"`,
	"Trace":  `cat:"Wts"`,
	"CoAct":  `cat:"Plast"`,
	"LowCnt": `cat:"Plast"`,
}

func init() {
	SynapseVarsMap = make(map[string]int, len(SynapseVars))
	for i, v := range SynapseVars {
		SynapseVarsMap[v] = i
	}
}

func (sy *Synapse) VarNames() []string {
	return SynapseVars
}

// SynapseVarByName returns the index of the variable in the Synapse, or error
func SynapseVarByName(varNm string) (int, error) {
	i, ok := SynapseVarsMap[varNm]
	if !ok {
		return -1, fmt.Errorf("Synapse VarByName: variable name: %v not valid", varNm)
	}
	return i, nil
}

// VarByIndex returns variable using index (0 = first variable in SynapseVars list)
func (sy *Synapse) VarByIndex(idx int) float32 {
	fv := (*float32)(unsafe.Pointer(uintptr(unsafe.Pointer(sy)) + uintptr(4*idx)))
	return *fv
}

// SetVarByIndex sets variable using index (0 = first variable in SynapseVars list)
func (sy *Synapse) SetVarByIndex(idx int, val float32) {
	fv := (*float32)(unsafe.Pointer(uintptr(unsafe.Pointer(sy)) + uintptr(4*idx)))
	*fv = val
}

// VarByName returns variable by name, or error
func (sy *Synapse) VarByName(varNm string) (float32, error) {
	i, err := SynapseVarByName(varNm)
	if err != nil {
		return math32.NaN(), err
	}
	return sy.VarByIndex(i), nil
}
