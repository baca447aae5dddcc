// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"log"

	"cogentcore.org/core/base/randx"
	"cogentcore.org/core/math32/minmax"
	"github.com/emer/emergent/v2/paths"
)

// EditOps enumerates the structural edit operations.
type EditOps int32

// The structural edit operations
const (
	// AddSyn creates a new synapse between two connected layers'
	// units, initialized from the pathway's WtInit params
	AddSyn EditOps = iota

	// RemoveSyn removes an existing synapse
	RemoveSyn

	// OffNeuron tombstones a neuron: it stops integrating and spiking,
	// and all synapses on all its pathways are removed with it.  The
	// layer's shape and indexing are unchanged.
	OffNeuron

	// OnNeuron revives a tombstoned neuron at its resting state; it
	// starts with no synapses
	OnNeuron

	EditOpsN
)

var editOpNames = [...]string{"AddSyn", "RemoveSyn", "OffNeuron", "OnNeuron"}

func (eo EditOps) String() string {
	if eo < 0 || eo >= EditOpsN {
		return "EditOpsInvalid"
	}
	return editOpNames[eo]
}

// EditOp is one structural edit.  For synapse ops, Path names the
// pathway and Send / Recv are flat unit indexes within its layers.
// For neuron ops, Layer names the layer and Neuron is the flat index.
type EditOp struct {
	Op     EditOps
	Path   string
	Send   int
	Recv   int
	Layer  string
	Neuron int
}

// EditBatch is a set of structural edits applied atomically between
// steps: the whole batch is validated against the current structure
// first, and an invalid batch is rejected as a whole with an
// IntegrityError, leaving the network untouched.
type EditBatch struct {
	Ops []EditOp
}

//////////////////////////////////////////////////////////////////////////////////////
//  PlastParams

// spikeflow.PlastParams are the automatic structural plasticity
// parameters: periodic pruning of persistently weak synapses and
// probabilistic growth of new ones, applied through the same atomic
// edit machinery as user edits.
type PlastParams struct {

	// enable automatic structural plasticity
	On bool

	// number of timesteps between structural passes
	Interval int `def:"100" min:"1"`

	// weight threshold: a synapse below this at a structural pass,
	// with no co-activity since the previous pass, has its low count
	// incremented; weight at or above, or any co-activity, resets it
	PruneThr float32 `def:"0.05" min:"0"`

	// number of consecutive structural passes a synapse must stay
	// below PruneThr before it is pruned
	PruneWin int `def:"5" min:"1"`

	// per absent connection probability of growing a new synapse at a
	// structural pass, on pathways with learning enabled
	GrowthP float32 `def:"0" min:"0" max:"1"`

	// scale the growth probability by the product of the sender and
	// receiver running activity averages, favoring co-active pairs
	GrowCoAct bool
}

func (pp *PlastParams) Defaults() {
	pp.On = false
	pp.Interval = 100
	pp.PruneThr = 0.05
	pp.PruneWin = 5
	pp.GrowthP = 0
	pp.GrowCoAct = false
}

func (pp *PlastParams) Update() {
}

//////////////////////////////////////////////////////////////////////////////////////
//  Network edit application

// QueueEdits queues a batch of structural edits to be applied atomically
// at the end of the current or next step.  Errors from an invalid batch
// are returned by the Step that attempts to apply it.
func (nt *Network) QueueEdits(ops ...EditOp) {
	nt.pendingEdits = append(nt.pendingEdits, EditBatch{Ops: ops})
}

// ApplyEdits validates and applies one batch of structural edits.
// May only be called between steps.  If any op in the batch is invalid
// against the current structure, an IntegrityError is returned and the
// network is left untouched.
func (nt *Network) ApplyEdits(batch EditBatch) error {
	if nt.Phase != PhaseIdle && nt.Phase != PhasePlast {
		return IntegrityErrorf("ApplyEdits", nt.Nm, "edits may only be applied between steps (phase %s)", nt.Phase)
	}
	if !nt.built {
		return IntegrityErrorf("ApplyEdits", nt.Nm, "network has not been built")
	}
	pathAdds := map[*Path]map[[2]int32]bool{}
	pathRems := map[*Path]map[[2]int32]bool{}
	offNeurs := map[*Layer]map[int]bool{}
	onNeurs := map[*Layer]map[int]bool{}

	for _, op := range batch.Ops {
		switch op.Op {
		case AddSyn, RemoveSyn:
			pj, err := nt.PathByNameTry(op.Path)
			if err != nil {
				return IntegrityErrorf("ApplyEdits", op.Path, "unknown pathway")
			}
			if op.Send < 0 || op.Send >= pj.Send.NNeurons() {
				return IntegrityErrorf("ApplyEdits", op.Path, "send index %d out of range", op.Send)
			}
			if op.Recv < 0 || op.Recv >= pj.Recv.NNeurons() {
				return IntegrityErrorf("ApplyEdits", op.Path, "recv index %d out of range", op.Recv)
			}
			pr := [2]int32{int32(op.Send), int32(op.Recv)}
			exists := pj.SynIndex(op.Send, op.Recv) >= 0
			if op.Op == AddSyn {
				if exists || pathAdds[pj][pr] {
					return IntegrityErrorf("ApplyEdits", op.Path,
						"synapse %d -> %d already exists", op.Send, op.Recv)
				}
				// a neuron revived earlier in this batch counts as live
				sOff := (pj.Send.Neurons[op.Send].IsOff() && !onNeurs[pj.Send][op.Send]) ||
					offNeurs[pj.Send][op.Send]
				rOff := (pj.Recv.Neurons[op.Recv].IsOff() && !onNeurs[pj.Recv][op.Recv]) ||
					offNeurs[pj.Recv][op.Recv]
				if sOff || rOff {
					return IntegrityErrorf("ApplyEdits", op.Path,
						"synapse %d -> %d references an off neuron", op.Send, op.Recv)
				}
				if pathAdds[pj] == nil {
					pathAdds[pj] = map[[2]int32]bool{}
				}
				pathAdds[pj][pr] = true
			} else {
				if !exists {
					return IntegrityErrorf("ApplyEdits", op.Path,
						"no synapse %d -> %d to remove", op.Send, op.Recv)
				}
				if pathRems[pj][pr] {
					return IntegrityErrorf("ApplyEdits", op.Path,
						"duplicate removal of synapse %d -> %d", op.Send, op.Recv)
				}
				if pathRems[pj] == nil {
					pathRems[pj] = map[[2]int32]bool{}
				}
				pathRems[pj][pr] = true
			}
		case OffNeuron, OnNeuron:
			ly, err := nt.LayerByNameTry(op.Layer)
			if err != nil {
				return IntegrityErrorf("ApplyEdits", op.Layer, "unknown layer")
			}
			if op.Neuron < 0 || op.Neuron >= ly.NNeurons() {
				return IntegrityErrorf("ApplyEdits", op.Layer, "neuron index %d out of range", op.Neuron)
			}
			isOff := ly.Neurons[op.Neuron].IsOff()
			if op.Op == OffNeuron {
				if isOff || offNeurs[ly][op.Neuron] {
					return IntegrityErrorf("ApplyEdits", op.Layer, "neuron %d is already off", op.Neuron)
				}
				if offNeurs[ly] == nil {
					offNeurs[ly] = map[int]bool{}
				}
				offNeurs[ly][op.Neuron] = true
			} else {
				if !isOff || onNeurs[ly][op.Neuron] {
					return IntegrityErrorf("ApplyEdits", op.Layer, "neuron %d is not off", op.Neuron)
				}
				if onNeurs[ly] == nil {
					onNeurs[ly] = map[int]bool{}
				}
				onNeurs[ly][op.Neuron] = true
			}
		default:
			return IntegrityErrorf("ApplyEdits", nt.Nm, "unknown edit op %d", op.Op)
		}
	}

	// validation passed: apply.  Removing a neuron cascades into
	// removing all its synapses, keeping referential integrity.
	for ly, neurs := range offNeurs {
		for ni := range neurs {
			nrn := &ly.Neurons[ni]
			nrn.SetFlag(NeurOff)
			nrn.Spike = 0
			for _, pj := range ly.RecvPaths {
				for si := 0; si < pj.Send.NNeurons(); si++ {
					if pj.SynIndex(si, ni) >= 0 {
						if pathRems[pj] == nil {
							pathRems[pj] = map[[2]int32]bool{}
						}
						pathRems[pj][[2]int32{int32(si), int32(ni)}] = true
					}
				}
			}
			for _, pj := range ly.SendPaths {
				nc := int(pj.SConN[ni])
				st := int(pj.SConIndexSt[ni])
				for ci := 0; ci < nc; ci++ {
					ri := pj.SConIndex[st+ci]
					if pathRems[pj] == nil {
						pathRems[pj] = map[[2]int32]bool{}
					}
					pathRems[pj][[2]int32{int32(ni), ri}] = true
				}
			}
		}
	}
	for ly, neurs := range onNeurs {
		for ni := range neurs {
			nrn := &ly.Neurons[ni]
			nrn.ClearFlag(NeurOff)
			ly.Act.InitActs(ly.Type, nrn)
		}
	}
	touched := map[*Path]bool{}
	for pj := range pathAdds {
		touched[pj] = true
	}
	for pj := range pathRems {
		touched[pj] = true
	}
	for pj := range touched {
		pj.RebuildEdits(pathAdds[pj], pathRems[pj])
	}
	return nil
}

// PlastStep runs the structural plasticity phase of a step: queued
// edit batches first, then the automatic pruning / growth pass if due.
// Returns the first error from an invalid queued batch.
func (nt *Network) PlastStep(ctx *Context) error {
	var ferr error
	for _, batch := range nt.pendingEdits {
		if err := nt.ApplyEdits(batch); err != nil && ferr == nil {
			ferr = err
		}
	}
	nt.pendingEdits = nil
	if !nt.Plast.On || ctx.Step == 0 || ctx.Step%nt.Plast.Interval != 0 {
		return ferr
	}
	var ops []EditOp
	for _, ly := range nt.Layers {
		if ly.Off {
			continue
		}
		for _, pj := range ly.RecvPaths {
			if pj.Off || !pj.Learn.Learn {
				continue
			}
			ops = append(ops, nt.prunePass(pj)...)
			ops = append(ops, nt.growPass(pj)...)
		}
	}
	if len(ops) > 0 {
		if err := nt.ApplyEdits(EditBatch{Ops: ops}); err != nil {
			// automatic edits are validated against current structure,
			// so a failure here is a bug rather than bad user input
			log.Println(err)
		}
	}
	return ferr
}

// prunePass updates low counts on a pathway and returns removal ops
// for synapses that have stayed below PruneThr, without co-activity,
// for PruneWin passes.  Consumes the per-pass CoAct accumulators.
func (nt *Network) prunePass(pj *Path) []EditOp {
	var ops []EditOp
	for si := 0; si < pj.Send.NNeurons(); si++ {
		nc := int(pj.SConN[si])
		st := int(pj.SConIndexSt[si])
		for ci := 0; ci < nc; ci++ {
			sy := &pj.Syns[st+ci]
			if sy.Wt < nt.Plast.PruneThr && sy.CoAct == 0 {
				sy.LowCnt++
			} else {
				sy.LowCnt = 0
			}
			sy.CoAct = 0
			if int(sy.LowCnt) >= nt.Plast.PruneWin {
				ops = append(ops, EditOp{Op: RemoveSyn, Path: pj.Name,
					Send: si, Recv: int(pj.SConIndex[st+ci])})
			}
		}
	}
	return ops
}

// growPass returns add ops for absent connections on a pathway, each
// grown with probability GrowthP (scaled by sender x receiver activity
// averages if GrowCoAct), skipping off neurons.  On a same-layer
// pathway, self connections follow the construction pattern: none are
// grown unless the pattern allows them.
func (nt *Network) growPass(pj *Path) []EditOp {
	if nt.Plast.GrowthP <= 0 {
		return nil
	}
	noSelf := pj.Send == pj.Recv
	if full, ok := pj.Pattern.(*paths.Full); ok && full.SelfCon {
		noSelf = false
	}
	var ops []EditOp
	sn := pj.Send.NNeurons()
	rn := pj.Recv.NNeurons()
	for si := 0; si < sn; si++ {
		if pj.Send.Neurons[si].IsOff() {
			continue
		}
		for ri := 0; ri < rn; ri++ {
			if noSelf && si == ri {
				continue
			}
			if pj.Recv.Neurons[ri].IsOff() || pj.SynIndex(si, ri) >= 0 {
				continue
			}
			p := float64(nt.Plast.GrowthP)
			if nt.Plast.GrowCoAct {
				p *= float64(pj.Send.Neurons[si].ActAvg * pj.Recv.Neurons[ri].ActAvg)
			}
			if p > 0 && randx.BoolP(p) {
				ops = append(ops, EditOp{Op: AddSyn, Path: pj.Name, Send: si, Recv: ri})
			}
		}
	}
	return ops
}

//////////////////////////////////////////////////////////////////////////////////////
//  Path rebuild

// RebuildEdits reconstructs the pathway's connection index arrays and
// synapse list from its current connectivity plus the given added and
// removed (send, recv) pairs, preserving the state of surviving
// synapses.  New synapses are initialized from WtInit.
func (pt *Path) RebuildEdits(adds, removes map[[2]int32]bool) {
	slen := pt.Send.Shape.Len()
	rlen := pt.Recv.Shape.Len()

	// surviving synapse state, keyed by (send, recv)
	old := map[[2]int32]Synapse{}
	for si := 0; si < slen; si++ {
		nc := int(pt.SConN[si])
		st := int(pt.SConIndexSt[si])
		for ci := 0; ci < nc; ci++ {
			pr := [2]int32{int32(si), pt.SConIndex[st+ci]}
			if removes[pr] {
				continue
			}
			old[pr] = pt.Syns[st+ci]
		}
	}
	for pr := range adds {
		if _, ok := old[pr]; ok {
			continue
		}
		sy := Synapse{}
		pt.InitWeightsSyn(&sy)
		old[pr] = sy
	}

	sendn := make([]int32, slen)
	recvn := make([]int32, rlen)
	for pr := range old {
		sendn[pr[0]]++
		recvn[pr[1]]++
	}
	tcons := pt.setNIndexStCounts(&pt.SConN, &pt.SConNAvgMax, &pt.SConIndexSt, sendn)
	tconr := pt.setNIndexStCounts(&pt.RConN, &pt.RConNAvgMax, &pt.RConIndexSt, recvn)
	if tconr != tcons {
		log.Printf("%v programmer error: rebuild total recv cons %v != total send cons %v\n", pt.String(), tconr, tcons)
	}
	pt.RConIndex = make([]int32, tconr)
	pt.RSynIndex = make([]int32, tconr)
	pt.SConIndex = make([]int32, tcons)
	pt.Syns = make([]Synapse, tcons)
	pt.GInc = make([]float32, rlen)

	sconN := make([]int32, slen)
	for ri := 0; ri < rlen; ri++ {
		rst := pt.RConIndexSt[ri]
		rci := int32(0)
		for si := 0; si < slen; si++ {
			pr := [2]int32{int32(si), int32(ri)}
			sy, ok := old[pr]
			if !ok {
				continue
			}
			sst := pt.SConIndexSt[si]
			sci := sconN[si]
			pt.RConIndex[rst+rci] = int32(si)
			pt.SConIndex[sst+sci] = int32(ri)
			pt.RSynIndex[rst+rci] = sst + sci
			pt.Syns[sst+sci] = sy
			(sconN[si])++
			rci++
		}
	}
}

// setNIndexStCounts is the rebuild counterpart of SetNIndexSt, taking
// plain count slices instead of a pattern tensor
func (pt *Path) setNIndexStCounts(n *[]int32, avgmax *minmax.AvgMax32, idxst *[]int32, counts []int32) int32 {
	ln := len(counts)
	*n = make([]int32, ln)
	*idxst = make([]int32, ln)
	idx := int32(0)
	avgmax.Init()
	for i := 0; i < ln; i++ {
		nv := counts[i]
		(*n)[i] = nv
		(*idxst)[i] = idx
		idx += nv
		avgmax.UpdateValue(float32(nv), int32(i))
	}
	avgmax.CalcAvg()
	return idx
}
