// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"strings"
	"testing"

	"cogentcore.org/core/tensor"
	"github.com/emer/emergent/v2/paths"
)

func TestLayerAccess(t *testing.T) {
	testNet := MakeTestNet(t)

	if testNet.NLayers() != 3 {
		t.Errorf("expected 3 layers, got %d", testNet.NLayers())
	}
	hid := testNet.LayerByName("Hidden")
	if hid == nil || hid.Name != "Hidden" {
		t.Fatalf("LayerByName failed")
	}
	if _, err := testNet.LayerByNameTry("Bogus"); err == nil {
		t.Errorf("expected error for unknown layer")
	}
	if _, err := testNet.PathByNameTry("InputToHidden"); err != nil {
		t.Errorf("path lookup by name failed: %v", err)
	}

	lifs := testNet.LayersByClass("LIF")
	if len(lifs) != 3 {
		t.Errorf("expected all 3 layers in LIF class, got %v", lifs)
	}

	if !testNet.LayerByName("Input").Input {
		t.Errorf("first layer should be flagged as input")
	}
	ins := testNet.InputLayers()
	if len(ins) != 1 || ins[0].Name != "Input" {
		t.Errorf("InputLayers: got %v", ins)
	}
}

func TestUnitValues(t *testing.T) {
	testNet := MakeTestNet(t)
	hid := testNet.LayerByName("Hidden")
	hid.Neurons[2].Vm = 0.42

	var vals []float32
	if err := hid.UnitValues(&vals, "Vm"); err != nil {
		t.Fatal(err)
	}
	if len(vals) != 4 {
		t.Fatalf("expected 4 values, got %d", len(vals))
	}
	CmprFloats([]float32{vals[2]}, []float32{0.42}, "unit values", t)

	tsr := &tensor.Float32{}
	if err := hid.UnitValuesTensor(tsr, "Vm"); err != nil {
		t.Fatal(err)
	}
	if tsr.Len() != 4 {
		t.Fatalf("tensor len %d", tsr.Len())
	}
	CmprFloats([]float32{float32(tsr.Float1D(2))}, []float32{0.42}, "unit values tensor", t)

	uv := hid.UnitValue("Vm", []int{2, 0})
	CmprFloats([]float32{uv}, []float32{0.42}, "unit value by index", t)

	if err := hid.UnitValues(&vals, "Bogus"); err == nil {
		t.Errorf("expected error for unknown unit var")
	}

	min, max, err := testNet.VarRange("Vm")
	if err != nil {
		t.Fatal(err)
	}
	if min != 0 || max != 0.42 {
		t.Errorf("VarRange: got [%v, %v]", min, max)
	}

	if err := hid.SetUnitValue("Vm", []int{3, 0}, 0.9); err != nil {
		t.Fatal(err)
	}
	CmprFloats([]float32{hid.UnitValue("Vm", []int{3, 0})}, []float32{0.9}, "set unit value", t)
	if err := hid.SetUnitValue("Bogus", []int{0, 0}, 1); err == nil {
		t.Errorf("expected error for unknown unit var")
	}

	var spks []float32
	hid.SpikesAt(1, &spks)
	CmprFloats(spks, []float32{0, 0, 0, 0}, "spikes before any commit", t)
}

// TestWtSymmetry: symmetric initialization makes reciprocal weights
// equal, both across a recurrent layer pair and within a lateral
// self-pathway.
func TestWtSymmetry(t *testing.T) {
	nt := NewNetwork("SymNet")
	a := nt.AddLayer("A", []int{3, 1}, LIFNeuron)
	b := nt.AddLayer("B", []int{3, 1}, LIFNeuron)
	ab := nt.ConnectLayers(a, b, paths.NewFull(), ForwardPath)
	ba := nt.ConnectLayers(b, a, paths.NewFull(), RecurrentPath)
	lat := nt.LateralConnectLayer(a, paths.NewFull())
	nt.Defaults()
	ab.Syn.WtInit.Sym = true
	ba.Syn.WtInit.Sym = true
	lat.Syn.WtInit.Sym = true
	if err := nt.Build(); err != nil {
		t.Fatal(err)
	}
	nt.InitWeights()

	for si := 0; si < 3; si++ {
		for ri := 0; ri < 3; ri++ {
			fwd := ab.SynValue("Wt", si, ri)
			bck := ba.SynValue("Wt", ri, si)
			if fwd != bck {
				t.Errorf("reciprocal weights differ at %d,%d: %v vs %v", si, ri, fwd, bck)
			}
			lw := lat.SynValue("Wt", si, ri)
			rw := lat.SynValue("Wt", ri, si)
			if lw != rw {
				t.Errorf("lateral weights not symmetric at %d,%d: %v vs %v", si, ri, lw, rw)
			}
		}
	}
}

// TestLesionSilence: a lesioned layer stops transmitting -- its last
// committed spikes must not replay to downstream receivers, and its
// pathways must not keep learning from the stale history.
func TestLesionSilence(t *testing.T) {
	nt, pj := makePairNet(t, func(pj *Path) {
		pj.Learn.Learn = true
	})
	ctx := NewContext()

	forceSpike(t, nt, ctx, "A")
	nt.LayerByName("A").Off = true

	b := nt.LayerByName("B")
	wt := pj.SynValue("Wt", 0, 0)
	for step := 0; step < 5; step++ {
		if err := nt.Step(ctx); err != nil {
			t.Fatal(err)
		}
		if b.Neurons[0].Isyn != 0 {
			t.Errorf("step %d: lesioned sender delivered Isyn %v", step, b.Neurons[0].Isyn)
		}
		if b.Neurons[0].Spike != 0 {
			t.Errorf("step %d: receiver spiked with its only sender lesioned", step)
		}
	}
	CmprFloats([]float32{pj.SynValue("Wt", 0, 0)}, []float32{wt}, "weight after lesion", t)
}

func TestStop(t *testing.T) {
	testNet := MakeTestNet(t)
	ctx := NewContext()
	if err := testNet.Step(ctx); err != nil {
		t.Fatal(err)
	}
	testNet.Stop()
	if err := testNet.Step(ctx); err == nil {
		t.Errorf("stepping a stopped network should fail")
	}
	err := testNet.ApplyEdits(EditBatch{Ops: []EditOp{
		{Op: OffNeuron, Layer: "Hidden", Neuron: 0},
	}})
	if err == nil {
		t.Errorf("editing a stopped network should fail")
	}
}

func TestAllParamsReport(t *testing.T) {
	testNet := MakeTestNet(t)

	ap := testNet.AllParams()
	for _, want := range []string{"Input", "Hidden", "InputToHidden"} {
		if !strings.Contains(ap, want) {
			t.Errorf("AllParams missing %s", want)
		}
	}
	sr := testNet.SizeReport()
	if !strings.Contains(sr, "TestNet") || !strings.Contains(sr, "Neurons") {
		t.Errorf("SizeReport: %s", sr)
	}
}
