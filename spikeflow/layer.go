// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"fmt"
	"log"
	"math"

	"cogentcore.org/core/math32"
	"cogentcore.org/core/math32/minmax"
	"cogentcore.org/core/tensor"
	"github.com/emer/emergent/v2/params"
)

// Layer manages a group of neurons sharing one neuron model and its
// parameters, with a flat list of neurons and a committed spike
// history that pathways read from.
type Layer struct {

	// our parent network; set when added by network
	Network *Network `copier:"-" json:"-" display:"-"`

	// name of the layer, unique within the network
	Name string

	// space-separated list of parameter style classes
	Class string

	// position within the network's layer list; set when added
	Index int `display:"-"`

	// inactivate this layer: skipped during stepping
	Off bool

	// neuron model type for all neurons in this layer
	Type NeuronTypes

	// if true, this layer receives the external input values given to
	// Network.StepInputs / RunTime; by convention the first layer
	// added to a network is the input layer
	Input bool

	// shape of the layer: arbitrary dimensions, neurons stored flat
	// in row-major order
	Shape tensor.Shape

	// list of receiving pathways into this layer from other layers
	RecvPaths []*Path

	// list of sending pathways from this layer to other layers
	SendPaths []*Path

	// neuron model parameters and integration methods
	Act ActParams `display:"add-fields"`

	// slice of neurons for this layer, as a flat list of
	// len = Shape.Len(). Must iterate over index and use pointer
	// to modify values.
	Neurons []Neuron

	// committed spike history for this layer, read by pathways for
	// delayed, recurrent, and learning access.  Depth is set by the
	// network at build time from the pathway requirements.
	History SpikeHistory `display:"-"`

	// average and maximum spike value over the layer for the current
	// step, for monitoring
	SpkAvgMax minmax.AvgMax32 `edit:"-" display:"inline"`

	// scratch buffer for committing the current step's spikes
	spikes []float32
}

// params.Styler interface

func (ly *Layer) StyleType() string  { return "Layer" }
func (ly *Layer) StyleClass() string { return ly.Type.String() + " " + ly.Class }
func (ly *Layer) StyleName() string  { return ly.Name }
func (ly *Layer) StyleObject() any   { return ly }

func (ly *Layer) TypeName() string { return ly.Type.String() }

// NNeurons returns the number of neurons in the layer
func (ly *Layer) NNeurons() int { return ly.Shape.Len() }

func (ly *Layer) Defaults() {
	ly.Act.Defaults()
	for _, pj := range ly.RecvPaths {
		pj.Defaults()
	}
}

// UpdateParams updates all params given any changes that might have
// been made to individual values, including those in the receiving
// pathways of this layer
func (ly *Layer) UpdateParams() {
	ly.Act.Update()
	for _, pj := range ly.RecvPaths {
		pj.UpdateParams()
	}
}

// ApplyParams applies given parameter style Sheet to this layer and its
// recv pathways.  Calls UpdateParams on anything set to ensure derived
// parameters are all updated.
// If setMsg is true, then a message is printed to confirm each
// parameter that is set. It always prints a message if a parameter
// fails to be set.
// Returns true if any params were set, and error if there were any errors.
func (ly *Layer) ApplyParams(pars *params.Sheet, setMsg bool) (bool, error) {
	applied := false
	var rerr error
	app, err := pars.Apply(ly, setMsg)
	if app {
		ly.UpdateParams()
		applied = true
	}
	if err != nil {
		rerr = err
	}
	for _, pj := range ly.RecvPaths {
		app, err = pj.ApplyParams(pars, setMsg)
		if app {
			applied = true
		}
		if err != nil {
			rerr = err
		}
	}
	return applied, rerr
}

// RecvPathBySendName returns the receiving pathway from the layer with
// the given name, or nil, error if not found
func (ly *Layer) RecvPathBySendName(sender string) (*Path, error) {
	for _, pj := range ly.RecvPaths {
		if pj.Send.Name == sender {
			return pj, nil
		}
	}
	return nil, fmt.Errorf("layer %s: no receiving pathway from sender %s", ly.Name, sender)
}

//////////////////////////////////////////////////////////////////////////////////////
//  Unit variable access

// UnitVarNames returns a list of variable names available on the units in this layer
func (ly *Layer) UnitVarNames() []string {
	return NeuronVars
}

// UnitVarProps returns properties for variables
func (ly *Layer) UnitVarProps() map[string]string {
	return NeuronVarProps
}

// UnitVarIndex returns the index of given variable within the Neuron,
// or -1 and error message if not found.
func (ly *Layer) UnitVarIndex(varNm string) (int, error) {
	return NeuronVarIndexByName(varNm)
}

// UnitVarNum returns the number of Neuron-level variables for this layer
func (ly *Layer) UnitVarNum() int {
	return len(NeuronVars)
}

// UnitValue1D returns value of given variable index on given unit,
// using 1-dimensional index. Returns NaN on invalid index.
func (ly *Layer) UnitValue1D(varIndex int, idx int) float32 {
	if idx < 0 || idx >= len(ly.Neurons) {
		return math32.NaN()
	}
	if varIndex < 0 || varIndex >= ly.UnitVarNum() {
		return math32.NaN()
	}
	nrn := &ly.Neurons[idx]
	return nrn.VarByIndex(varIndex)
}

// UnitValues fills in values of given variable name on unit,
// for each unit in the layer, into given float32 slice (only resized
// if not big enough). Returns error on invalid var name.
func (ly *Layer) UnitValues(vals *[]float32, varNm string) error {
	nn := len(ly.Neurons)
	if *vals == nil || cap(*vals) < nn {
		*vals = make([]float32, nn)
	} else if len(*vals) < nn {
		*vals = (*vals)[0:nn]
	}
	vidx, err := ly.UnitVarIndex(varNm)
	if err != nil {
		nan := math32.NaN()
		for i := range ly.Neurons {
			(*vals)[i] = nan
		}
		return err
	}
	for i := range ly.Neurons {
		(*vals)[i] = ly.UnitValue1D(vidx, i)
	}
	return nil
}

// UnitValuesTensor returns values of given variable name on unit
// for each unit in the layer, as a float32 tensor in same shape as
// layer units.
func (ly *Layer) UnitValuesTensor(tsr tensor.Tensor, varNm string) error {
	if tsr == nil {
		err := fmt.Errorf("spikeflow.UnitValuesTensor: Tensor is nil")
		log.Println(err)
		return err
	}
	tsr.SetShape(ly.Shape.Sizes, ly.Shape.Names...)
	vidx, err := ly.UnitVarIndex(varNm)
	if err != nil {
		nan := math.NaN()
		for i := range ly.Neurons {
			tsr.SetFloat1D(i, nan)
		}
		return err
	}
	for i := range ly.Neurons {
		v := ly.UnitValue1D(vidx, i)
		if math32.IsNaN(v) {
			tsr.SetFloat1D(i, math.NaN())
		} else {
			tsr.SetFloat1D(i, float64(v))
		}
	}
	return nil
}

// UnitValue returns value of given variable name on given unit,
// using shape-based dimensional index
func (ly *Layer) UnitValue(varNm string, idx []int) float32 {
	vidx, err := ly.UnitVarIndex(varNm)
	if err != nil {
		return math32.NaN()
	}
	fidx := ly.Shape.Offset(idx)
	return ly.UnitValue1D(vidx, fidx)
}

// SetUnitValue sets value of given variable name on given unit,
// using shape-based dimensional index
func (ly *Layer) SetUnitValue(varNm string, idx []int, val float32) error {
	vidx, err := ly.UnitVarIndex(varNm)
	if err != nil {
		return err
	}
	fidx := ly.Shape.Offset(idx)
	if fidx < 0 || fidx >= len(ly.Neurons) {
		return fmt.Errorf("spikeflow.SetUnitValue: index %v out of range for layer %s", idx, ly.Name)
	}
	ly.Neurons[fidx].SetVarByIndex(vidx, val)
	return nil
}

// SpikesAt returns the committed spike state for each unit as of back
// steps ago, where back = 1 is the most recently committed step.
// Uncommitted or out-of-range history reads as 0.
func (ly *Layer) SpikesAt(back int, vals *[]float32) {
	nn := len(ly.Neurons)
	if *vals == nil || cap(*vals) < nn {
		*vals = make([]float32, nn)
	} else if len(*vals) < nn {
		*vals = (*vals)[0:nn]
	}
	for i := range ly.Neurons {
		(*vals)[i] = ly.History.Spike(back, i)
	}
}

// VarRange returns the min / max values for given variable
func (ly *Layer) VarRange(varNm string) (min, max float32, err error) {
	sz := len(ly.Neurons)
	if sz == 0 {
		return
	}
	vidx := 0
	vidx, err = NeuronVarIndexByName(varNm)
	if err != nil {
		return
	}
	v0 := ly.Neurons[0].VarByIndex(vidx)
	min = v0
	max = v0
	for i := 1; i < sz; i++ {
		vl := ly.Neurons[i].VarByIndex(vidx)
		if vl < min {
			min = vl
		}
		if vl > max {
			max = vl
		}
	}
	return
}

//////////////////////////////////////////////////////////////////////////////////////
//  Build

// HistDepth returns the number of committed history steps this layer's
// outgoing pathways require: the maximum over sending pathways of the
// synapse kernel lag plus the learning window
func (ly *Layer) HistDepth() int {
	depth := 1
	for _, pj := range ly.SendPaths {
		if pj.Off {
			continue
		}
		d := pj.Syn.SpikeLag() + pj.Learn.HistSteps()
		if d > depth {
			depth = d
		}
	}
	// recv-side learning also reads this layer's history as post
	for _, pj := range ly.RecvPaths {
		if pj.Off {
			continue
		}
		d := 1 + pj.Learn.HistSteps()
		if d > depth {
			depth = d
		}
	}
	return depth
}

// Build constructs the layer state, including calling Build on the
// pathways. The spike history is sized from the pathway requirements.
func (ly *Layer) Build() error {
	nu := ly.Shape.Len()
	if nu == 0 {
		return ConfigErrorf("Build", ly.Name, "no units specified in Shape")
	}
	ly.Neurons = make([]Neuron, nu)
	ly.spikes = make([]float32, nu)
	ly.History.Init(ly.HistDepth(), nu)
	emsg := ""
	for _, pj := range ly.RecvPaths {
		if pj.Off {
			continue
		}
		err := pj.Build()
		if err != nil {
			emsg += err.Error() + "\n"
		}
	}
	if emsg != "" {
		return ConfigErrorf("Build", ly.Name, "%s", emsg)
	}
	return nil
}

//////////////////////////////////////////////////////////////////////////////////////
//  Init

// InitActs fully initializes neuron state to the model variant's
// resting point and clears the spike history
func (ly *Layer) InitActs() {
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		ly.Act.InitActs(ly.Type, nrn)
	}
	ly.History.Reset()
	ly.SpkAvgMax.Init()
	for _, pj := range ly.RecvPaths {
		pj.InitGInc()
	}
}

// InitExt initializes external input state on all neurons
func (ly *Layer) InitExt() {
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		nrn.Ext = 0
		nrn.ClearFlag(NeurHasExt)
	}
}

// ApplyExt applies external input current to this layer's neurons from
// the given tensor, which must have the same number of values as the
// layer has neurons
func (ly *Layer) ApplyExt(ext tensor.Tensor) error {
	if ext.Len() != len(ly.Neurons) {
		return ConfigErrorf("ApplyExt", ly.Name,
			"input has %d values but layer has %d neurons", ext.Len(), len(ly.Neurons))
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		nrn.Ext = float32(ext.Float1D(ni))
		nrn.SetFlag(NeurHasExt)
	}
	return nil
}

// ApplyExt1D applies external input from a flat float32 slice
func (ly *Layer) ApplyExt1D(ext []float32) error {
	if len(ext) != len(ly.Neurons) {
		return ConfigErrorf("ApplyExt1D", ly.Name,
			"input has %d values but layer has %d neurons", len(ext), len(ly.Neurons))
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		nrn.Ext = ext[ni]
		nrn.SetFlag(NeurHasExt)
	}
	return nil
}

//////////////////////////////////////////////////////////////////////////////////////
//  Stepping

// GatherInputs accumulates synaptic input from all receiving pathways
// into each neuron's Isyn, plus any external input.  Pathways read only
// committed spike history, so the result does not depend on the order
// layers are processed within a step.
func (ly *Layer) GatherInputs() {
	for _, pj := range ly.RecvPaths {
		if pj.Off {
			continue
		}
		pj.GatherSpikes()
	}
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			continue
		}
		isyn := float32(0)
		if nrn.HasFlag(NeurHasExt) {
			isyn += nrn.Ext
		}
		for _, pj := range ly.RecvPaths {
			if pj.Off {
				continue
			}
			isyn += pj.GInc[ni]
		}
		nrn.Isyn = isyn
	}
}

// StepNeurons integrates all neurons one timestep, recording spikes.
// Returns a NumericError if any neuron's state becomes non-finite.
func (ly *Layer) StepNeurons(ctx *Context) error {
	ly.SpkAvgMax.Init()
	for ni := range ly.Neurons {
		nrn := &ly.Neurons[ni]
		if nrn.IsOff() {
			nrn.Spike = 0
			continue
		}
		spiked := ly.Act.Integrate(ly.Type, nrn, ctx.DT)
		if !ly.Act.StateFinite(nrn) {
			return &NumericError{Layer: ly.Name, Neuron: ni, Step: ctx.Step}
		}
		if spiked {
			nrn.Spike = 1
			nrn.SpikeT = float32(ctx.Step)
		} else {
			nrn.Spike = 0
		}
		ly.Act.AvgFromSpike(nrn)
		ly.SpkAvgMax.UpdateValue(nrn.Spike, int32(ni))
	}
	ly.SpkAvgMax.CalcAvg()
	return nil
}

// CommitSpikes records the current step's spikes into the committed
// history, making them visible to pathway reads on subsequent steps
func (ly *Layer) CommitSpikes() {
	for ni := range ly.Neurons {
		ly.spikes[ni] = ly.Neurons[ni].Spike
	}
	ly.History.Commit(ly.spikes)
}

// DWt computes weight changes on all receiving pathways with learning
// enabled
func (ly *Layer) DWt(ctx *Context) {
	for _, pj := range ly.RecvPaths {
		if pj.Off {
			continue
		}
		pj.DWt(ctx)
	}
}

// WtFromDWt applies accumulated weight changes on all receiving
// pathways (used when Learn.Online is off)
func (ly *Layer) WtFromDWt() {
	for _, pj := range ly.RecvPaths {
		if pj.Off {
			continue
		}
		pj.WtFromDWt()
	}
}
