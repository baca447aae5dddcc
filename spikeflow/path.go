// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"log"

	"cogentcore.org/core/math32"
	"cogentcore.org/core/math32/minmax"
	"cogentcore.org/core/tensor"
	"github.com/emer/emergent/v2/params"
	"github.com/emer/emergent/v2/paths"
)

// Path is a pathway connecting two layers: a connectivity pattern, the
// synapse kernel and learning parameters shared by all its synapses,
// and the synaptic state itself, ordered by the sending layer.
type Path struct {

	// name of the pathway, by convention SendToRecv; may be overridden
	Name string

	// space-separated list of parameter style classes
	Class string

	// inactivate this pathway: skipped during stepping and learning
	Off bool

	// pattern of connectivity between sending and receiving units
	Pattern paths.Pattern

	// sending layer for this pathway
	Send *Layer

	// receiving layer for this pathway
	Recv *Layer

	// type of pathway
	Type PathTypes

	// synapse kernel parameters, shared by all synapses
	Syn SynParams `display:"add-fields"`

	// learning rule parameters, shared by all synapses
	Learn LearnParams `display:"add-fields"`

	// synaptic state values, ordered by the sending layer
	// units which owns them -- one-to-one with SConIndex array
	Syns []Synapse

	// local per-recv unit accumulator for synaptic input from sending
	// units; added to (or subtracted from, for Inhib) the receiver's
	// input current
	GInc []float32

	// number of recv connections for each neuron in the receiving
	// layer, as a flat list
	RConN []int32 `display:"-"`

	// average and maximum number of recv connections in the receiving layer
	RConNAvgMax minmax.AvgMax32 `edit:"-" display:"inline"`

	// starting index into ConIndex list for each neuron in
	// receiving layer; list incremented by ConN
	RConIndexSt []int32 `display:"-"`

	// index of other neuron on sending side of pathway,
	// ordered by the receiving layer's order of units as the
	// outer loop (each start is in ConIndexSt),
	// and then by the sending layer's units within that
	RConIndex []int32 `display:"-"`

	// index of synaptic state values for each recv unit x connection,
	// for the receiver pathway which does not own the synapses,
	// and instead indexes into sender-ordered list
	RSynIndex []int32 `display:"-"`

	// number of sending connections for each neuron in the
	// sending layer, as a flat list
	SConN []int32 `display:"-"`

	// average and maximum number of sending connections
	// in the sending layer
	SConNAvgMax minmax.AvgMax32 `edit:"-" display:"inline"`

	// starting index into ConIndex list for each neuron in
	// sending layer; list incremented by ConN
	SConIndexSt []int32 `display:"-"`

	// index of other neuron on receiving side of pathway,
	// ordered by the sending layer's order of units as the
	// outer loop (each start is in ConIndexSt), and then
	// by the sending layer's units within that
	SConIndex []int32 `display:"-"`
}

// params.Styler interface

func (pt *Path) StyleType() string  { return "Path" }
func (pt *Path) StyleClass() string { return pt.Type.String() + " " + pt.Class }
func (pt *Path) StyleName() string  { return pt.Name }
func (pt *Path) StyleObject() any   { return pt }

func (pt *Path) TypeName() string { return pt.Type.String() }

func (pt *Path) Defaults() {
	pt.Syn.Defaults()
	pt.Learn.Defaults()
	switch pt.Type {
	case RecurrentPath:
		pt.Syn.WtInit.Sym = true
	}
}

// UpdateParams updates all params given any changes that might have been made to individual values
func (pt *Path) UpdateParams() {
	pt.Syn.Update()
	pt.Learn.Update()
}

// ApplyParams applies given parameter style Sheet to this pathway.
// Calls UpdateParams if anything set to ensure derived parameters are
// all updated.
// If setMsg is true, then a message is printed to confirm each
// parameter that is set. It always prints a message if a parameter
// fails to be set.
// Returns true if any params were set, and error if there were any errors.
func (pt *Path) ApplyParams(pars *params.Sheet, setMsg bool) (bool, error) {
	app, err := pars.Apply(pt, setMsg)
	if app {
		pt.UpdateParams()
	}
	return app, err
}

// Connect sets the connectivity between two layers and the pattern to use in interconnecting them
func (pt *Path) Connect(slay, rlay *Layer, pat paths.Pattern, typ PathTypes) {
	pt.Send = slay
	pt.Recv = rlay
	pt.Pattern = pat
	pt.Type = typ
	pt.Name = pt.Send.Name + "To" + pt.Recv.Name
}

// Validate tests the pathway settings, returning a ConfigError or nil
// if there are no problems (and logs them if logmsg = true)
func (pt *Path) Validate(logmsg bool) error {
	emsg := ""
	if pt.Pattern == nil {
		emsg += "Pattern is nil; "
	}
	if pt.Recv == nil {
		emsg += "Recv is nil; "
	}
	if pt.Send == nil {
		emsg += "Send is nil; "
	}
	if pt.Syn.Type == DelaySyn && pt.Syn.Delay < 1 {
		emsg += "Delay must be >= 1; "
	}
	if pt.Syn.Decay < 0 || pt.Syn.Decay >= 1 {
		emsg += "Decay must be in [0, 1); "
	}
	if emsg != "" {
		err := ConfigErrorf("Validate", pt.Name, "%s", emsg)
		if logmsg {
			log.Println(err)
		}
		return err
	}
	return nil
}

// Build constructs the full connectivity among the layers
// as specified in this pathway.
// Calls Validate and returns error if invalid.
// Pattern.Connect is called to get the pattern of the connection.
// Then the connection indexes are configured according to that pattern.
func (pt *Path) Build() error {
	if pt.Off {
		return nil
	}
	err := pt.Validate(true)
	if err != nil {
		return err
	}
	ssh := &pt.Send.Shape
	rsh := &pt.Recv.Shape
	sendn, recvn, cons := pt.Pattern.Connect(ssh, rsh, pt.Recv == pt.Send)
	slen := ssh.Len()
	rlen := rsh.Len()
	tcons := pt.SetNIndexSt(&pt.SConN, &pt.SConNAvgMax, &pt.SConIndexSt, sendn)
	tconr := pt.SetNIndexSt(&pt.RConN, &pt.RConNAvgMax, &pt.RConIndexSt, recvn)
	if tconr != tcons {
		log.Printf("%v programmer error: total recv cons %v != total send cons %v\n", pt.String(), tconr, tcons)
	}
	pt.RConIndex = make([]int32, tconr)
	pt.RSynIndex = make([]int32, tconr)
	pt.SConIndex = make([]int32, tcons)

	sconN := make([]int32, slen) // temporary mem needed to tracks cur n of sending cons

	cbits := cons.Values
	for ri := 0; ri < rlen; ri++ {
		rbi := ri * slen     // recv bit index
		rtcn := pt.RConN[ri] // number of cons
		rst := pt.RConIndexSt[ri]
		rci := int32(0)
		for si := 0; si < slen; si++ {
			if !cbits.Index(rbi + si) { // no connection
				continue
			}
			sst := pt.SConIndexSt[si]
			if rci >= rtcn {
				log.Printf("%v programmer error: recv target total con number: %v exceeded at recv idx: %v, send idx: %v\n", pt.String(), rtcn, ri, si)
				break
			}
			pt.RConIndex[rst+rci] = int32(si)

			sci := sconN[si]
			stcn := pt.SConN[si]
			if sci >= stcn {
				log.Printf("%v programmer error: send target total con number: %v exceeded at recv idx: %v, send idx: %v\n", pt.String(), stcn, ri, si)
				break
			}
			pt.SConIndex[sst+sci] = int32(ri)
			pt.RSynIndex[rst+rci] = sst + sci
			(sconN[si])++
			rci++
		}
	}
	pt.Syns = make([]Synapse, len(pt.SConIndex))
	pt.GInc = make([]float32, rlen)
	return nil
}

// SetNIndexSt sets the *ConN and *ConIndexSt values given n tensor from Pattern.
// Returns total number of connections for this direction.
func (pt *Path) SetNIndexSt(n *[]int32, avgmax *minmax.AvgMax32, idxst *[]int32, tn *tensor.Int32) int32 {
	ln := tn.Len()
	tnv := tn.Values
	*n = make([]int32, ln)
	*idxst = make([]int32, ln)
	idx := int32(0)
	avgmax.Init()
	for i := 0; i < ln; i++ {
		nv := tnv[i]
		(*n)[i] = nv
		(*idxst)[i] = idx
		idx += nv
		avgmax.UpdateValue(float32(nv), int32(i))
	}
	avgmax.CalcAvg()
	return idx
}

// String satisfies fmt.Stringer for path
func (pt *Path) String() string {
	str := ""
	if pt.Recv == nil {
		str += "recv=nil; "
	} else {
		str += pt.Recv.Name + " <- "
	}
	if pt.Send == nil {
		str += "send=nil"
	} else {
		str += pt.Send.Name
	}
	if pt.Pattern == nil {
		str += " Pattern=nil"
	} else {
		str += " Pattern=" + pt.Pattern.Name()
	}
	return str
}

///////////////////////////////////////////////////////////////////////
//  Synapse variable access

func (pt *Path) SynVarNames() []string {
	return SynapseVars
}

// SynIndex returns the index of the synapse between given send, recv unit indexes
// (1D, flat indexes). Returns -1 if synapse not found between these two neurons.
// Requires searching within connections for sending unit.
func (pt *Path) SynIndex(sidx, ridx int) int {
	if sidx < 0 || sidx >= len(pt.SConN) {
		return -1
	}
	nc := int(pt.SConN[sidx])
	st := int(pt.SConIndexSt[sidx])
	for ci := 0; ci < nc; ci++ {
		ri := int(pt.SConIndex[st+ci])
		if ri != ridx {
			continue
		}
		return int(st + ci)
	}
	return -1
}

// SynVarIndex returns the index of given variable within the synapse,
// or -1 and error message if not found.
func (pt *Path) SynVarIndex(varNm string) (int, error) {
	return SynapseVarByName(varNm)
}

// SynVarNum returns the number of synapse-level variables for this path
func (pt *Path) SynVarNum() int {
	return len(SynapseVars)
}

// NumSyns returns the number of synapses for this path
func (pt *Path) NumSyns() int {
	return len(pt.Syns)
}

// SynValue1D returns value of given variable index (from SynVarIndex)
// on given SynIndex.  Returns NaN on invalid index.
func (pt *Path) SynValue1D(varIndex int, synIndex int) float32 {
	if synIndex < 0 || synIndex >= len(pt.Syns) {
		return math32.NaN()
	}
	if varIndex < 0 || varIndex >= pt.SynVarNum() {
		return math32.NaN()
	}
	sy := &pt.Syns[synIndex]
	return sy.VarByIndex(varIndex)
}

// SynValues sets values of given variable name for each synapse,
// using the natural (sender-based) ordering of the synapses,
// into given float32 slice (only resized if not big enough).
// Returns error on invalid var name.
func (pt *Path) SynValues(vals *[]float32, varNm string) error {
	vidx, err := pt.SynVarIndex(varNm)
	if err != nil {
		return err
	}
	ns := len(pt.Syns)
	if *vals == nil || cap(*vals) < ns {
		*vals = make([]float32, ns)
	} else if len(*vals) < ns {
		*vals = (*vals)[0:ns]
	}
	for i := range pt.Syns {
		(*vals)[i] = pt.SynValue1D(vidx, i)
	}
	return nil
}

// SynValue returns value of given variable name on the synapse
// between given send, recv unit indexes (1D, flat indexes).
// Returns math32.NaN() for access errors.
func (pt *Path) SynValue(varNm string, sidx, ridx int) float32 {
	vidx, err := pt.SynVarIndex(varNm)
	if err != nil {
		return math32.NaN()
	}
	synIndex := pt.SynIndex(sidx, ridx)
	return pt.SynValue1D(vidx, synIndex)
}

// SetSynValue sets value of given variable name on the synapse
// between given send, recv unit indexes (1D, flat indexes).
// Returns error for access errors.
func (pt *Path) SetSynValue(varNm string, sidx, ridx int, val float32) error {
	vidx, err := pt.SynVarIndex(varNm)
	if err != nil {
		return err
	}
	synIndex := pt.SynIndex(sidx, ridx)
	if synIndex < 0 || synIndex >= len(pt.Syns) {
		return ConfigErrorf("SetSynValue", pt.Name,
			"no synapse between send %d and recv %d", sidx, ridx)
	}
	sy := &pt.Syns[synIndex]
	sy.SetVarByIndex(vidx, val)
	if varNm == "Wt" {
		sy.Wt = pt.Learn.WtRange.ClipValue(sy.Wt)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////
//  Init

// InitWeightsSyn initializes weight values based on WtInit randomness
// parameters for an individual synapse, clipped into the learning
// weight range, and clears all accumulated state
func (pt *Path) InitWeightsSyn(syn *Synapse) {
	syn.Wt = pt.Learn.WtRange.ClipValue(float32(pt.Syn.WtInit.Gen()))
	syn.DWt = 0
	syn.Trace = 0
	syn.CoAct = 0
	syn.LowCnt = 0
}

// InitWeights initializes weight values according to Syn.WtInit params
func (pt *Path) InitWeights() {
	for si := range pt.Syns {
		sy := &pt.Syns[si]
		pt.InitWeightsSyn(sy)
	}
	pt.InitGInc()
}

// InitWtSym initializes weight symmetry -- is given the reciprocal
// pathway where the Send and Recv layers are reversed (may be this same
// pathway for a self-recurrent one)
func (pt *Path) InitWtSym(rpt *Path) {
	ns := len(pt.Send.Neurons)
	for si := 0; si < ns; si++ {
		nc := int(pt.SConN[si])
		st := int(pt.SConIndexSt[si])
		for ci := 0; ci < nc; ci++ {
			sy := &pt.Syns[st+ci]
			ri := int(pt.SConIndex[st+ci])
			if rpt == pt && ri <= si {
				continue // only copy upper triangle for self-path
			}
			// find the reciprocal synapse: ri sends back to si
			rsnc := int(rpt.SConN[ri])
			rsst := int(rpt.SConIndexSt[ri])
			for rci := 0; rci < rsnc; rci++ {
				rri := int(rpt.SConIndex[rsst+rci])
				if rri == si {
					rsy := &rpt.Syns[rsst+rci]
					rsy.Wt = sy.Wt
				}
			}
		}
	}
}

// InitGInc initializes the per-pathway increment accumulator
func (pt *Path) InitGInc() {
	for ri := range pt.GInc {
		pt.GInc[ri] = 0
	}
}

///////////////////////////////////////////////////////////////////////
//  Stepping

// GatherSpikes computes the per-recv unit synaptic input for the
// current step, reading only the sending layer's committed spike
// history at the kernel's lag.  Inhib pathways negate the result.
// A lesioned sending layer contributes nothing: its history is no
// longer advancing, so reading it would replay its final spikes.
func (pt *Path) GatherSpikes() {
	if pt.Send.Off {
		pt.InitGInc()
		return
	}
	lag := pt.Syn.SpikeLag()
	hist := &pt.Send.History
	rn := len(pt.Recv.Neurons)
	for ri := 0; ri < rn; ri++ {
		nc := int(pt.RConN[ri])
		st := int(pt.RConIndexSt[ri])
		g := float32(0)
		for ci := 0; ci < nc; ci++ {
			si := int(pt.RConIndex[st+ci])
			sy := &pt.Syns[pt.RSynIndex[st+ci]]
			g += pt.Syn.Contribution(sy, hist.Spike(lag, si))
		}
		if pt.Type == InhibPath {
			g = -g
		}
		pt.GInc[ri] = g
	}
}

// DWt computes weight changes from the current step's committed spikes,
// per the learning rule.  Runs after all layers have committed the
// step, so both pre and post spikes for the step are read from history.
// If Learn.Online, the changes are applied to the weights immediately;
// otherwise they accumulate in DWt until WtFromDWt.
func (pt *Path) DWt(ctx *Context) {
	if !pt.Learn.Learn || pt.Learn.Rule == NoLearn || pt.Send.Off {
		return
	}
	switch pt.Learn.Rule {
	case HebbRule:
		pt.DWtHebb()
	case STDPAsymRule, STDPSymRule:
		pt.DWtSTDP()
	}
	if pt.Learn.Online {
		pt.WtFromDWt()
	}
}

// DWtHebb computes the Hebbian coincidence weight change: the
// presynaptic spike that was delivered this step (at the kernel's lag)
// paired with the postsynaptic spike this step
func (pt *Path) DWtHebb() {
	preBack := pt.Syn.SpikeLag() + 1 // +1: history now includes current step
	shist := &pt.Send.History
	rhist := &pt.Recv.History
	rn := len(pt.Recv.Neurons)
	for ri := 0; ri < rn; ri++ {
		post := rhist.Spike(1, ri)
		if post == 0 {
			continue
		}
		nc := int(pt.RConN[ri])
		st := int(pt.RConIndexSt[ri])
		for ci := 0; ci < nc; ci++ {
			si := int(pt.RConIndex[st+ci])
			sy := &pt.Syns[pt.RSynIndex[st+ci]]
			pre := shist.Spike(preBack, si)
			sy.CoAct += pre * post
			sy.DWt += pt.Learn.Lrate * pt.Learn.Hebb.DWt(pre, post, sy.Wt)
		}
	}
}

// DWtSTDP computes the spike-timing-dependent weight change: each spike
// this step is paired against the other side's spikes over the timing
// window, using the committed history on both sides
func (pt *Path) DWtSTDP() {
	win := pt.Learn.STDP.Window
	shist := &pt.Send.History
	rhist := &pt.Recv.History
	rn := len(pt.Recv.Neurons)
	for ri := 0; ri < rn; ri++ {
		post := rhist.Spike(1, ri)
		nc := int(pt.RConN[ri])
		st := int(pt.RConIndexSt[ri])
		for ci := 0; ci < nc; ci++ {
			si := int(pt.RConIndex[st+ci])
			pre := shist.Spike(1, si)
			if post == 0 && pre == 0 {
				continue
			}
			sy := &pt.Syns[pt.RSynIndex[st+ci]]
			dwt := float32(0)
			if post > 0 { // pairs with pre at this and earlier steps
				for d := 0; d <= win; d++ {
					if spk := shist.Spike(d+1, si); spk > 0 {
						dwt += pt.Learn.PostPairDWt(d)
						sy.CoAct += post * spk
					}
				}
			}
			if pre > 0 { // pairs with post at strictly earlier steps
				for d := 1; d <= win; d++ {
					if rhist.Spike(d+1, ri) > 0 {
						dwt += pt.Learn.PrePairDWt(d)
					}
				}
			}
			sy.DWt += pt.Learn.Lrate * dwt
		}
	}
}

// WtFromDWt applies accumulated weight changes to the weights, clamped
// into the learning weight range
func (pt *Path) WtFromDWt() {
	for si := range pt.Syns {
		pt.Learn.WtFromDWt(&pt.Syns[si])
	}
}
