// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/emer/emergent/v2/params"
	"github.com/emer/emergent/v2/paths"
)

const difTol = float32(1.0e-7)

// Note: subsequent params applied after Base
var ParamSets = params.Sets{
	"Base": {
		{Sel: "Path", Desc: "for reproducibility, identical weights",
			Params: params.Params{
				"Path.Syn.WtInit.Var":  "0",
				"Path.Syn.WtInit.Mean": "0.5",
			}},
	},
}

func MakeTestNet(t *testing.T) *Network {
	testNet := NewNetwork("TestNet")
	inLay := testNet.AddLayer("Input", []int{4, 1}, LIFNeuron)
	hidLay := testNet.AddLayer("Hidden", []int{4, 1}, LIFNeuron)
	outLay := testNet.AddLayer("Output", []int{4, 1}, LIFNeuron)

	testNet.ConnectLayers(inLay, hidLay, paths.NewOneToOne(), ForwardPath)
	testNet.ConnectLayers(hidLay, outLay, paths.NewOneToOne(), ForwardPath)

	testNet.Defaults()
	testNet.ApplyParams(ParamSets["Base"], false)
	if err := testNet.Build(); err != nil {
		t.Fatal(err)
	}
	testNet.InitWeights()
	return testNet
}

func CmprFloats(got, trg []float32, msg string, t *testing.T) {
	t.Helper()
	for i := range got {
		dif := math32.Abs(got[i] - trg[i])
		if dif > difTol { // allow for small numerical diffs
			t.Errorf("%v err: got: %v, trg: %v, dif: %v\n", msg, got[i], trg[i], dif)
		}
	}
}

func TestSynValues(t *testing.T) {
	testNet := MakeTestNet(t)
	hidLay := testNet.LayerByName("Hidden")
	fmIn, err := hidLay.RecvPathBySendName("Input")
	if err != nil {
		t.Fatal(err)
	}

	bfWt := fmIn.SynValue("Wt", 1, 1)
	if math32.IsNaN(bfWt) {
		t.Errorf("Wt syn var not found")
	}

	fmIn.SetSynValue("Wt", 1, 1, .15)
	afWt := fmIn.SynValue("Wt", 1, 1)

	// out-of-range set is clamped into the weight range
	fmIn.SetSynValue("Wt", 1, 1, 3)
	clWt := fmIn.SynValue("Wt", 1, 1)

	CmprFloats([]float32{bfWt, afWt, clWt}, []float32{0.5, 0.15, 1}, "syn val setting test", t)

	// no synapse off the one-to-one diagonal
	odWt := fmIn.SynValue("Wt", 0, 1)
	if !math32.IsNaN(odWt) {
		t.Errorf("expected NaN for absent synapse, got %v", odWt)
	}
}

func TestQuiescence(t *testing.T) {
	testNet := MakeTestNet(t)
	ctx := NewContext()

	for step := 0; step < 20; step++ {
		if err := testNet.Step(ctx); err != nil {
			t.Fatal(err)
		}
		for _, ly := range testNet.Layers {
			for ni := range ly.Neurons {
				nrn := &ly.Neurons[ni]
				if nrn.Spike != 0 {
					t.Errorf("step %d: layer %s neuron %d spiked with no input", step, ly.Name, ni)
				}
				if nrn.Vm != ly.Act.LIF.Rest {
					t.Errorf("step %d: layer %s neuron %d Vm %v != rest", step, ly.Name, ni, nrn.Vm)
				}
			}
		}
	}
}

// TestLIFCharge verifies the LIF charging trajectory and post-spike
// refractory hold under constant input current.
func TestLIFCharge(t *testing.T) {
	testNet := MakeTestNet(t)
	ctx := NewContext()
	inLay := testNet.LayerByName("Input")

	ext := []float32{2, 0, 0, 0}
	lp := &inLay.Act.LIF

	vm := float32(0)
	spkStep := -1
	for step := 0; step < 10; step++ {
		if err := inLay.ApplyExt1D(ext); err != nil {
			t.Fatal(err)
		}
		if err := testNet.Step(ctx); err != nil {
			t.Fatal(err)
		}
		nrn := &inLay.Neurons[0]
		if spkStep < 0 {
			// closed-form Euler update against the engine
			vm += (1.0 / lp.Tau) * (lp.Rest - vm + lp.R*ext[0])
			if vm >= lp.Thr {
				if nrn.Spike != 1 {
					t.Fatalf("step %d: expected spike at threshold crossing", step)
				}
				spkStep = step
				continue
			}
			CmprFloats([]float32{nrn.Vm}, []float32{vm}, "lif charge", t)
		} else if step <= spkStep+int(lp.Refrac) {
			if nrn.Vm != lp.Rest || nrn.Spike != 0 {
				t.Errorf("step %d: refractory neuron should be held at rest", step)
			}
		}
	}
	if spkStep < 0 {
		t.Errorf("neuron never spiked under suprathreshold input")
	}
	if inLay.Neurons[1].Spike != 0 {
		t.Errorf("undriven neuron spiked")
	}
}

// forceSpike drives the named single-neuron layers to spike on this
// step via a large one-step external current, and steps the network
func forceSpike(t *testing.T, nt *Network, ctx *Context, layNames ...string) {
	t.Helper()
	nt.InitExt()
	for _, nm := range layNames {
		ly := nt.LayerByName(nm)
		big := make([]float32, ly.NNeurons())
		for i := range big {
			big[i] = 15 // one Euler step takes Vm past threshold
		}
		if err := ly.ApplyExt1D(big); err != nil {
			t.Fatal(err)
		}
	}
	if err := nt.Step(ctx); err != nil {
		t.Fatal(err)
	}
	for _, nm := range layNames {
		ly := nt.LayerByName(nm)
		if ly.Neurons[0].Spike != 1 {
			t.Fatalf("layer %s did not spike when forced", nm)
		}
	}
}

// quietStep steps the network with no external input
func quietStep(t *testing.T, nt *Network, ctx *Context, n int) {
	t.Helper()
	nt.InitExt()
	for i := 0; i < n; i++ {
		if err := nt.Step(ctx); err != nil {
			t.Fatal(err)
		}
	}
}

// makePairNet makes a two single-neuron layer net A -> B with
// deterministic 0.5 weights.  cfg, if non-nil, adjusts the path
// before Build so kernel and learning settings shape the history.
func makePairNet(t *testing.T, cfg func(pj *Path)) (*Network, *Path) {
	t.Helper()
	nt := NewNetwork("PairNet")
	a := nt.AddLayer("A", []int{1, 1}, LIFNeuron)
	b := nt.AddLayer("B", []int{1, 1}, LIFNeuron)
	pj := nt.ConnectLayers(a, b, paths.NewOneToOne(), ForwardPath)
	nt.Defaults()
	nt.ApplyParams(ParamSets["Base"], false)
	if cfg != nil {
		cfg(pj)
		pj.UpdateParams()
	}
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	nt.InitWeights()
	return nt, pj
}

// TestSimpleDelivery verifies the simple kernel delivers Wt * spike
// exactly one step after the presynaptic spike, and nothing otherwise.
func TestSimpleDelivery(t *testing.T) {
	nt, pj := makePairNet(t, nil)
	ctx := NewContext()
	b := nt.LayerByName("B")

	forceSpike(t, nt, ctx, "A")
	if b.Neurons[0].Isyn != 0 {
		t.Errorf("delivery arrived in the same step as the spike")
	}
	quietStep(t, nt, ctx, 1)
	CmprFloats([]float32{b.Neurons[0].Isyn}, []float32{pj.Syns[0].Wt}, "simple delivery", t)
	quietStep(t, nt, ctx, 1)
	if b.Neurons[0].Isyn != 0 {
		t.Errorf("simple kernel delivered more than one pulse")
	}
}

// TestDelayDelivery verifies the delay kernel delivers exactly Delay
// steps after the presynaptic spike.
func TestDelayDelivery(t *testing.T) {
	nt, pj := makePairNet(t, func(pj *Path) {
		pj.Syn.Type = DelaySyn
		pj.Syn.Delay = 3
	})
	ctx := NewContext()
	b := nt.LayerByName("B")

	forceSpike(t, nt, ctx, "A")
	for k := 1; k <= 5; k++ {
		quietStep(t, nt, ctx, 1)
		isyn := b.Neurons[0].Isyn
		if k == 3 {
			CmprFloats([]float32{isyn}, []float32{pj.Syns[0].Wt}, "delay delivery", t)
		} else if isyn != 0 {
			t.Errorf("unexpected delivery at %d steps after spike: %v", k, isyn)
		}
	}
}

// TestDecayTrace verifies the decay kernel contribution follows
// w * r^k on the k-th step after delivery.
func TestDecayTrace(t *testing.T) {
	nt, pj := makePairNet(t, func(pj *Path) {
		pj.Syn.Type = DecaySyn
	})
	ctx := NewContext()
	b := nt.LayerByName("B")

	forceSpike(t, nt, ctx, "A")
	w := pj.Syns[0].Wt
	r := pj.Syn.Decay
	expect := w
	for k := 0; k < 4; k++ {
		quietStep(t, nt, ctx, 1)
		CmprFloats([]float32{b.Neurons[0].Isyn}, []float32{expect}, "decay trace", t)
		expect *= r
	}
}

// TestInhibDelivery verifies inhibitory pathways subtract their
// contribution while weights stay non-negative.
func TestInhibDelivery(t *testing.T) {
	nt := NewNetwork("InhibNet")
	a := nt.AddLayer("A", []int{1, 1}, LIFNeuron)
	b := nt.AddLayer("B", []int{1, 1}, LIFNeuron)
	pj := nt.ConnectLayers(a, b, paths.NewOneToOne(), InhibPath)
	nt.Defaults()
	nt.ApplyParams(ParamSets["Base"], false)
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	nt.InitWeights()
	ctx := NewContext()

	if pj.Syns[0].Wt < 0 {
		t.Errorf("inhibitory weight should be non-negative, got %v", pj.Syns[0].Wt)
	}
	forceSpike(t, nt, ctx, "A")
	quietStep(t, nt, ctx, 1)
	CmprFloats([]float32{b.Neurons[0].Isyn}, []float32{-pj.Syns[0].Wt}, "inhib delivery", t)
}

// TestRecurrentOrderIndependence verifies that a mutually recurrent
// pair of layers produces the identical trajectory regardless of the
// order the layers were added to the network.
func TestRecurrentOrderIndependence(t *testing.T) {
	build := func(first, second string) *Network {
		nt := NewNetwork("RecurNet")
		l1 := nt.AddLayer(first, []int{2, 1}, LIFNeuron)
		l2 := nt.AddLayer(second, []int{2, 1}, LIFNeuron)
		l1.Input = false
		l2.Input = false
		nt.ConnectLayers(l1, l2, paths.NewFull(), ForwardPath)
		nt.ConnectLayers(l2, l1, paths.NewFull(), RecurrentPath)
		nt.Defaults()
		nt.ApplyParams(ParamSets["Base"], false)
		if err := nt.Build(); err != nil {
			t.Fatal(err)
		}
		nt.InitWeights()
		return nt
	}
	net1 := build("A", "B")
	net2 := build("B", "A")
	ctx1 := NewContext()
	ctx2 := NewContext()

	ext := []float32{2, 1.5}
	for step := 0; step < 30; step++ {
		for _, nm := range []string{"A", "B"} {
			if err := net1.LayerByName(nm).ApplyExt1D(ext); err != nil {
				t.Fatal(err)
			}
			if err := net2.LayerByName(nm).ApplyExt1D(ext); err != nil {
				t.Fatal(err)
			}
		}
		if err := net1.Step(ctx1); err != nil {
			t.Fatal(err)
		}
		if err := net2.Step(ctx2); err != nil {
			t.Fatal(err)
		}
		for _, nm := range []string{"A", "B"} {
			ly1 := net1.LayerByName(nm)
			ly2 := net2.LayerByName(nm)
			for ni := range ly1.Neurons {
				if ly1.Neurons[ni].Vm != ly2.Neurons[ni].Vm {
					t.Fatalf("step %d: layer %s neuron %d Vm diverged: %v vs %v",
						step, nm, ni, ly1.Neurons[ni].Vm, ly2.Neurons[ni].Vm)
				}
				if ly1.Neurons[ni].Spike != ly2.Neurons[ni].Spike {
					t.Fatalf("step %d: layer %s neuron %d spike diverged", step, nm, ni)
				}
			}
		}
	}
}

func TestNeuronVarAccess(t *testing.T) {
	nrn := &Neuron{}
	nrn.Vm = 0.25
	nrn.Isyn = 1.5
	for i, nm := range NeuronVars {
		byIdx := nrn.VarByIndex(i)
		byNm, err := nrn.VarByName(nm)
		if err != nil {
			t.Fatal(err)
		}
		if byIdx != byNm {
			t.Errorf("var %s: index access %v != name access %v", nm, byIdx, byNm)
		}
	}
	vm, _ := nrn.VarByName("Vm")
	isyn, _ := nrn.VarByName("Isyn")
	CmprFloats([]float32{vm, isyn}, []float32{0.25, 1.5}, "neuron var access", t)
	if _, err := nrn.VarByName("Bogus"); err == nil {
		t.Errorf("expected error for unknown var name")
	}

	sy := &Synapse{Wt: 0.7, DWt: -0.1}
	wi, err := SynapseVarByName("Wt")
	if err != nil {
		t.Fatal(err)
	}
	if sy.VarByIndex(wi) != 0.7 {
		t.Errorf("synapse Wt access failed")
	}
	sy.SetVarByIndex(wi, 0.9)
	if sy.Wt != 0.9 {
		t.Errorf("synapse Wt set failed")
	}
}
