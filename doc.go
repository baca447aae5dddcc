// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package spikeflow is the overall repository for the spikeflow
discrete-time spiking neural network simulation engine, implemented in
the Go language (golang).

This top-level of the repository has no functional code -- everything is
organized into the following sub-repositories:

* spikeflow: the core engine: neuron models (leaky integrate-and-fire,
Izhikevich, Hodgkin-Huxley), synapse kernels (simple, decay, delay),
pathway topologies, Hebbian and STDP learning, structural plasticity,
and the timestep driver.

* chans: Hodgkin-Huxley channel conductances and gate rate kinetics,
shared by the HH neuron model.

* examples: these compile into runnable programs and provide the
starting point for your own simulations.  examples/ring is the place to
start: a small recurrent model driven by patterned input.
*/
package spikeflow
