// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spikeflow

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"unsafe"

	"cogentcore.org/core/base/timer"
	"github.com/c2h5oh/datasize"
	"github.com/emer/emergent/v2/params"
	"github.com/emer/emergent/v2/paths"
)

// StepPhase enumerates the phases of one network timestep.  The network
// moves through all five phases in order on every Step call and is in
// PhaseIdle between steps.  Structural edits are only applied in
// PhasePlast or while idle, so the connectivity a step started with is
// the connectivity it finishes with.
type StepPhase int32

// The step phases
const (
	// PhaseIdle means no step is in progress
	PhaseIdle StepPhase = iota

	// PhaseGather computes synaptic input from committed spike history
	PhaseGather

	// PhaseIntegrate advances all neuron states and detects spikes
	PhaseIntegrate

	// PhaseCommit records the new spikes into the layer histories
	PhaseCommit

	// PhaseLearn computes and (if online) applies weight changes
	PhaseLearn

	// PhasePlast applies queued structural edits and automatic
	// pruning / growth
	PhasePlast

	// PhaseStopped is the terminal state after Stop: the network no
	// longer steps or accepts edits
	PhaseStopped

	StepPhaseN
)

var stepPhaseNames = [...]string{"Idle", "Gather", "Integrate", "Commit", "Learn", "Plast", "Stopped"}

func (sp StepPhase) String() string {
	if sp < 0 || sp >= StepPhaseN {
		return "StepPhaseInvalid"
	}
	return stepPhaseNames[sp]
}

// Network manages the layers and pathways of a spiking model and drives
// the discrete-time simulation.
type Network struct {

	// overall name of network -- helps discriminate if there are multiple
	Nm string

	// list of layers, in the order added.  By convention the first
	// layer is the input layer.
	Layers []*Layer

	// structural plasticity parameters
	Plast PlastParams `display:"add-fields"`

	// upper bound on per-layer spike history depth: a pathway whose
	// kernel lag plus learning window exceeds this fails Build with a
	// ConfigError
	MaxHist int `def:"64" min:"1"`

	// current phase of the step state machine
	Phase StepPhase `edit:"-"`

	// map of name to layers -- layer names must be unique
	LayMap map[string]*Layer `display:"-"`

	// map of layer classes -- made during Build
	LayClassMap map[string][]string `display:"-"`

	// optional metadata about this network, e.g. number of steps
	// trained
	MetaData map[string]string

	// timers for each major function (step of processing)
	FunTimes map[string]*timer.Time `display:"-"`

	// queued structural edits, applied atomically between steps
	pendingEdits []EditBatch

	// set by Build; stepping an unbuilt network is a ConfigError
	built bool
}

// NewNetwork returns a new network with the given name
func NewNetwork(name string) *Network {
	nt := &Network{Nm: name}
	nt.MaxHist = 64
	nt.Plast.Defaults()
	nt.FunTimes = make(map[string]*timer.Time)
	return nt
}

func (nt *Network) Name() string  { return nt.Nm }
func (nt *Network) Label() string { return nt.Nm }
func (nt *Network) NLayers() int  { return len(nt.Layers) }

// SetMetaData records a metadata key, creating the map on first use
func (nt *Network) SetMetaData(key, val string) {
	if nt.MetaData == nil {
		nt.MetaData = make(map[string]string)
	}
	nt.MetaData[key] = val
}

// LayerByName returns a layer by looking it up by name in the layer map
// (nil if not found).  Will create the layer map if it is nil or a
// different size than layers slice, but otherwise needs to be updated
// manually.
func (nt *Network) LayerByName(name string) *Layer {
	if nt.LayMap == nil || len(nt.LayMap) != len(nt.Layers) {
		nt.MakeLayMap()
	}
	return nt.LayMap[name]
}

// LayerByNameTry returns a layer by looking it up by name -- returns
// a ConfigError if the layer is not found
func (nt *Network) LayerByNameTry(name string) (*Layer, error) {
	ly := nt.LayerByName(name)
	if ly == nil {
		err := ConfigErrorf("LayerByName", name, "not found in network %s", nt.Nm)
		return nil, err
	}
	return ly, nil
}

// MakeLayMap updates layer map based on current layers
func (nt *Network) MakeLayMap() {
	nt.LayMap = make(map[string]*Layer, len(nt.Layers))
	for _, ly := range nt.Layers {
		nt.LayMap[ly.Name] = ly
	}
}

// PathByNameTry returns a pathway by looking it up by name in the list
// of pathways (nil, error if not found)
func (nt *Network) PathByNameTry(name string) (*Path, error) {
	for _, ly := range nt.Layers {
		for _, pj := range ly.RecvPaths {
			if pj.Name == name {
				return pj, nil
			}
		}
	}
	return nil, ConfigErrorf("PathByName", name, "not found in network %s", nt.Nm)
}

// LayersByClass returns a list of layer names by given class(es).
// Lists are compiled when network Build() function called.
// The layer Type is always included as a Class, along with any other
// space-separated strings specified in Class for parameter styling, etc.
// If no classes are passed, all layer names in order are returned.
func (nt *Network) LayersByClass(classes ...string) []string {
	var nms []string
	hasName := map[string]bool{}
	if len(classes) == 0 {
		for _, ly := range nt.Layers {
			if ly.Off {
				continue
			}
			if !hasName[ly.Name] {
				hasName[ly.Name] = true
				nms = append(nms, ly.Name)
			}
		}
		return nms
	}
	for _, lc := range classes {
		ns := nt.LayClassMap[lc]
		for _, nm := range ns {
			if !hasName[nm] {
				hasName[nm] = true
				nms = append(nms, nm)
			}
		}
	}
	return nms
}

//////////////////////////////////////////////////////////////////////////////////////
//  Construction

// AddLayer adds a new layer with given name, shape, and neuron model
// type to the network.  Shape is in row-major format with outer-most
// dimensions first.  The first layer added becomes the input layer.
func (nt *Network) AddLayer(name string, shape []int, typ NeuronTypes) *Layer {
	ly := &Layer{Network: nt, Name: name, Type: typ}
	ly.Shape.SetShape(shape)
	ly.Input = len(nt.Layers) == 0
	nt.Layers = append(nt.Layers, ly)
	nt.MakeLayMap()
	return ly
}

// AddLayer2D adds a new layer with given name and 2D shape to the network
func (nt *Network) AddLayer2D(name string, shapeY, shapeX int, typ NeuronTypes) *Layer {
	return nt.AddLayer(name, []int{shapeY, shapeX}, typ)
}

// AddLayer4D adds a new layer with given name and 4D shape to the network
func (nt *Network) AddLayer4D(name string, nPoolsY, nPoolsX, nNeurY, nNeurX int, typ NeuronTypes) *Layer {
	return nt.AddLayer(name, []int{nPoolsY, nPoolsX, nNeurY, nNeurX}, typ)
}

// ConnectLayers establishes a pathway between two layers, adding to the
// recv and send pathway lists on each side of the connection.
// Does not yet actually connect the units within the layers -- that
// requires Build.
func (nt *Network) ConnectLayers(send, recv *Layer, pat paths.Pattern, typ PathTypes) *Path {
	pj := &Path{}
	pj.Connect(send, recv, pat, typ)
	recv.RecvPaths = append(recv.RecvPaths, pj)
	send.SendPaths = append(send.SendPaths, pj)
	return pj
}

// ConnectLayerNames establishes a pathway between two layers,
// referenced by name.  Returns error if not successful.
// Does not yet actually connect the units within the layers -- that
// requires Build.
func (nt *Network) ConnectLayerNames(send, recv string, pat paths.Pattern, typ PathTypes) (rlay, slay *Layer, pj *Path, err error) {
	rlay, err = nt.LayerByNameTry(recv)
	if err != nil {
		return
	}
	slay, err = nt.LayerByNameTry(send)
	if err != nil {
		return
	}
	pj = nt.ConnectLayers(slay, rlay, pat, typ)
	return
}

// LateralConnectLayer establishes a recurrent self-pathway within given layer.
// Does not yet actually connect the units within the layers -- that
// requires Build.
func (nt *Network) LateralConnectLayer(lay *Layer, pat paths.Pattern) *Path {
	return nt.ConnectLayers(lay, lay, pat, RecurrentPath)
}

// Defaults sets all the default parameters for all layers and pathways
func (nt *Network) Defaults() {
	if nt.MaxHist == 0 {
		nt.MaxHist = 64
	}
	nt.Plast.Defaults()
	for _, ly := range nt.Layers {
		ly.Defaults()
	}
}

// UpdateParams updates all params given any changes that might have
// been made to individual values including those in the layers
func (nt *Network) UpdateParams() {
	nt.Plast.Update()
	for _, ly := range nt.Layers {
		ly.UpdateParams()
	}
}

// ApplyParams applies given parameter style Sheet to layers and
// pathways in this network.
// Calls UpdateParams to ensure derived parameters are all updated.
// If setMsg is true, then a message is printed to confirm each
// parameter that is set. It always prints a message if a parameter
// fails to be set.
// Returns true if any params were set, and error if there were any errors.
func (nt *Network) ApplyParams(pars *params.Sheet, setMsg bool) (bool, error) {
	applied := false
	var rerr error
	for _, ly := range nt.Layers {
		app, err := ly.ApplyParams(pars, setMsg)
		if app {
			applied = true
		}
		if err != nil {
			rerr = err
		}
	}
	return applied, rerr
}

// AllParams returns a listing of all parameters in the Network
func (nt *Network) AllParams() string {
	nds := ""
	for _, ly := range nt.Layers {
		nds += fmt.Sprintf("Layer: %s Type: %s\n", ly.Name, ly.Type)
		for _, pj := range ly.RecvPaths {
			nds += fmt.Sprintf("\tPath: %s Type: %s Syn: %s Learn: %v Rule: %s\n",
				pj.Name, pj.Type, pj.Syn.Type, pj.Learn.Learn, pj.Learn.Rule)
		}
	}
	return nds
}

//////////////////////////////////////////////////////////////////////////////////////
//  Build

// Validate checks the network specification before building: layer
// names must be unique, shapes non-empty, and every pathway's history
// requirement within MaxHist.  Returns a ConfigError describing the
// first problem found.
func (nt *Network) Validate() error {
	seen := map[string]bool{}
	for _, ly := range nt.Layers {
		if ly.Name == "" {
			return ConfigErrorf("Validate", "", "layer with empty name")
		}
		if seen[ly.Name] {
			return ConfigErrorf("Validate", ly.Name, "duplicate layer name")
		}
		seen[ly.Name] = true
		if ly.Shape.Len() == 0 {
			return ConfigErrorf("Validate", ly.Name, "empty shape")
		}
		for _, pj := range ly.RecvPaths {
			if pj.Off {
				continue
			}
			req := pj.Syn.SpikeLag() + pj.Learn.HistSteps()
			if req > nt.MaxHist {
				return ConfigErrorf("Validate", pj.Name,
					"history requirement %d (delay %d + learning window %d) exceeds MaxHist %d",
					req, pj.Syn.SpikeLag(), pj.Learn.HistSteps(), nt.MaxHist)
			}
		}
	}
	return nil
}

// Build constructs the layer and pathway state based on the layer
// shapes and patterns of interconnectivity
func (nt *Network) Build() error {
	if err := nt.Validate(); err != nil {
		return err
	}
	nt.LayClassMap = make(map[string][]string)
	emsg := ""
	for li, ly := range nt.Layers {
		ly.Index = li
		if ly.Off {
			continue
		}
		err := ly.Build()
		if err != nil {
			emsg += err.Error() + "\n"
		}
		cls := strings.Split(ly.StyleClass(), " ")
		for _, cl := range cls {
			nt.LayClassMap[cl] = append(nt.LayClassMap[cl], ly.Name)
		}
	}
	if emsg != "" {
		return ConfigErrorf("Build", nt.Nm, "%s", emsg)
	}
	nt.built = true
	nt.Phase = PhaseIdle
	return nil
}

//////////////////////////////////////////////////////////////////////////////////////
//  Init

// InitWeights initializes synaptic weights and all learning state,
// and resets neuron state and spike histories
func (nt *Network) InitWeights() {
	for _, ly := range nt.Layers {
		if ly.Off {
			continue
		}
		for _, pj := range ly.RecvPaths {
			if pj.Off {
				continue
			}
			pj.InitWeights()
		}
	}
	// symmetrize after all weights are set
	for _, ly := range nt.Layers {
		if ly.Off {
			continue
		}
		for _, pj := range ly.RecvPaths {
			if pj.Off || !pj.Syn.WtInit.Sym {
				continue
			}
			if pj.Send == pj.Recv {
				pj.InitWtSym(pj)
				continue
			}
			if rpj, has := nt.recipPath(pj); has {
				pj.InitWtSym(rpj)
			}
		}
	}
	nt.InitActs()
}

// recipPath finds the pathway going the opposite direction of the given
// one, if any
func (nt *Network) recipPath(pj *Path) (*Path, bool) {
	for _, rpj := range pj.Send.RecvPaths {
		if rpj.Send == pj.Recv && rpj != pj {
			return rpj, true
		}
	}
	return nil, false
}

// InitActs fully initializes neuron activation state and spike
// histories in all layers
func (nt *Network) InitActs() {
	for _, ly := range nt.Layers {
		if ly.Off {
			continue
		}
		ly.InitActs()
	}
}

// InitExt initializes external input state on all layers
func (nt *Network) InitExt() {
	for _, ly := range nt.Layers {
		if ly.Off {
			continue
		}
		ly.InitExt()
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  Stepping

// InputLayers returns the layers flagged as receiving external input
func (nt *Network) InputLayers() []*Layer {
	var ins []*Layer
	for _, ly := range nt.Layers {
		if !ly.Off && ly.Input {
			ins = append(ins, ly)
		}
	}
	return ins
}

// Step advances the network by one timestep: gather synaptic input from
// committed history, integrate all neurons, commit the new spikes,
// learn, and apply any structural plasticity.  External inputs must
// have been applied beforehand (ApplyExt or StepInputs).
// Returns a NumericError if integration produces a non-finite value,
// leaving the network state as of the failed phase.
func (nt *Network) Step(ctx *Context) error {
	if !nt.built {
		return ConfigErrorf("Step", nt.Nm, "network has not been built")
	}
	if nt.Phase == PhaseStopped {
		return ConfigErrorf("Step", nt.Nm, "network has been stopped")
	}
	nt.Phase = PhaseGather
	nt.FunTimerStart("Gather")
	for _, ly := range nt.Layers {
		if ly.Off {
			continue
		}
		ly.GatherInputs()
	}
	nt.FunTimerStop("Gather")

	nt.Phase = PhaseIntegrate
	nt.FunTimerStart("Integrate")
	for _, ly := range nt.Layers {
		if ly.Off {
			continue
		}
		if err := ly.StepNeurons(ctx); err != nil {
			nt.FunTimerStop("Integrate")
			nt.Phase = PhaseIdle
			return err
		}
	}
	nt.FunTimerStop("Integrate")

	nt.Phase = PhaseCommit
	for _, ly := range nt.Layers {
		if ly.Off {
			continue
		}
		ly.CommitSpikes()
	}

	nt.Phase = PhaseLearn
	nt.FunTimerStart("Learn")
	for _, ly := range nt.Layers {
		if ly.Off {
			continue
		}
		ly.DWt(ctx)
	}
	nt.FunTimerStop("Learn")

	nt.Phase = PhasePlast
	err := nt.PlastStep(ctx)

	ctx.StepInc()
	nt.Phase = PhaseIdle
	return err
}

// Stop shuts the network down: no further steps or structural edits
// are accepted.  Terminal; build a new network to run again.
func (nt *Network) Stop() {
	nt.Phase = PhaseStopped
}

// StepInputs applies the given external inputs by layer name and then
// advances the network one timestep.  Layers flagged as Input that have
// no entry keep their previous external input.
func (nt *Network) StepInputs(ctx *Context, inputs map[string][]float32) error {
	for nm, vals := range inputs {
		ly, err := nt.LayerByNameTry(nm)
		if err != nil {
			return err
		}
		if err := ly.ApplyExt1D(vals); err != nil {
			return err
		}
	}
	return nt.Step(ctx)
}

// WtFromDWt applies accumulated weight changes across the whole
// network: the explicit learning application for pathways with
// Learn.Online off
func (nt *Network) WtFromDWt() {
	for _, ly := range nt.Layers {
		if ly.Off {
			continue
		}
		ly.WtFromDWt()
	}
}

//////////////////////////////////////////////////////////////////////////////////////
//  State access

// VarRange returns the min / max values for given variable across the
// whole network
func (nt *Network) VarRange(varNm string) (min, max float32, err error) {
	first := true
	for _, ly := range nt.Layers {
		lmin, lmax, lerr := ly.VarRange(varNm)
		if lerr != nil {
			err = lerr
			return
		}
		if first {
			min = lmin
			max = lmax
			first = false
			continue
		}
		if lmin < min {
			min = lmin
		}
		if lmax > max {
			max = lmax
		}
	}
	return
}

//////////////////////////////////////////////////////////////////////////////////////
//  Misc Reports

// SizeReport returns a string reporting the size of each layer and
// pathway in the network, and total memory footprint
func (nt *Network) SizeReport() string {
	var b strings.Builder
	neur := 0
	neurMem := 0
	syn := 0
	synMem := 0
	for _, ly := range nt.Layers {
		nn := len(ly.Neurons)
		nmem := nn*int(unsafe.Sizeof(Neuron{})) + len(ly.History.Buf)*4
		neur += nn
		neurMem += nmem
		fmt.Fprintf(&b, "%14s:\t Neurons: %d\t NeurMem: %v \t Sends To:\n", ly.Name, nn, (datasize.ByteSize)(nmem).HumanReadable())
		for _, pj := range ly.SendPaths {
			ns := len(pj.Syns)
			syn += ns
			pmem := ns*int(unsafe.Sizeof(Synapse{})) + len(pj.GInc)*4
			synMem += pmem
			fmt.Fprintf(&b, "\t%14s:\t Syns: %d\t SynMem: %v\n", pj.Recv.Name, ns, (datasize.ByteSize)(pmem).HumanReadable())
		}
	}
	fmt.Fprintf(&b, "\n\n%14s:\t Neurons: %d\t NeurMem: %v \t Syns: %d \t SynMem: %v\n", nt.Nm, neur, (datasize.ByteSize)(neurMem).HumanReadable(), syn, (datasize.ByteSize)(synMem).HumanReadable())
	return b.String()
}

// TimerReport reports the amount of time spent in each function
func (nt *Network) TimerReport() {
	fmt.Printf("TimerReport: %v\n", nt.Nm)
	fmt.Printf("\t%13s \t%7s\t%7s\n", "Function Name", "Secs", "Pct")
	nfn := len(nt.FunTimes)
	fnms := make([]string, nfn)
	idx := 0
	for k := range nt.FunTimes {
		fnms[idx] = k
		idx++
	}
	sort.StringSlice(fnms).Sort()
	pcts := make([]float64, nfn)
	tot := 0.0
	for i, fn := range fnms {
		pcts[i] = nt.FunTimes[fn].Total.Seconds()
		tot += pcts[i]
	}
	for i, fn := range fnms {
		fmt.Printf("\t%13s \t%7.3f\t%7.1f\n", fn, pcts[i], 100*(pcts[i]/tot))
	}
	fmt.Printf("\t%13s \t%7.3f\n", "Total", tot)
}

// FunTimerStart starts function timer for given function name -- ensures creation of timer
func (nt *Network) FunTimerStart(fun string) {
	if nt.FunTimes == nil {
		nt.FunTimes = make(map[string]*timer.Time)
	}
	ft, ok := nt.FunTimes[fun]
	if !ok {
		ft = &timer.Time{}
		nt.FunTimes[fun] = ft
	}
	ft.Start()
}

// FunTimerStop stops function timer -- timer must already exist
func (nt *Network) FunTimerStop(fun string) {
	ft, ok := nt.FunTimes[fun]
	if !ok {
		log.Printf("spikeflow.Network FunTimerStop: no timer named %s", fun)
		return
	}
	ft.Stop()
}
