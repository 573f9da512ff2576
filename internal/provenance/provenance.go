// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package provenance renders an optional sample-support graph from the
// finalized merged table: one node per sample, one weighted edge per
// (lead sample, supporting sample) pair, weight = number of leads that
// pairing supports, serialized as DOT for inspection with graphviz.
package provenance

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/czakarian/svpop/internal/finalize"
)

// Graph renders the sample-support graph for rows in DOT format.
func Graph(rows []finalize.Row, name string) ([]byte, error) {
	g := newSampleGraph()

	weight := make(map[[2]string]int)
	for _, r := range rows {
		lead := r.Summary.MergeSrc
		g.nodeFor(lead)
		for _, s := range r.Summary.MergeSamples {
			g.nodeFor(s)
			if s == lead {
				continue
			}
			key := edgeKey(lead, s)
			weight[key]++
		}
	}

	for key, w := range weight {
		e := edge{
			f: g.nodeFor(key[0]),
			t: g.nodeFor(key[1]),
			w: float64(w),
		}
		g.SetWeightedEdge(e)
	}

	b, err := dot.Marshal(g, name, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("provenance: %w", err)
	}
	return b, nil
}

// edgeKey canonicalizes an unordered sample pair so identical pairs
// accumulate into the same weight regardless of discovery order.
func edgeKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

type sampleGraph struct {
	*simple.WeightedUndirectedGraph
	idFor map[string]int64
}

func newSampleGraph() sampleGraph {
	return sampleGraph{
		WeightedUndirectedGraph: simple.NewWeightedUndirectedGraph(0, 0),
		idFor:                   make(map[string]int64),
	}
}

func (g sampleGraph) nodeFor(sample string) graph.Node {
	id, ok := g.idFor[sample]
	if ok {
		return g.Node(id)
	}
	id = g.WeightedUndirectedGraph.NewNode().ID()
	g.idFor[sample] = id
	n := node{id: id, name: sample}
	g.AddNode(n)
	return n
}

type node struct {
	id   int64
	name string
}

func (n node) ID() int64     { return n.id }
func (n node) DOTID() string { return n.name }

type edge struct {
	f, t graph.Node
	w    float64
}

func (e edge) From() graph.Node         { return e.f }
func (e edge) To() graph.Node           { return e.t }
func (e edge) ReversedEdge() graph.Edge { return edge{f: e.t, t: e.f, w: e.w} }
func (e edge) Weight() float64          { return e.w }
func (e edge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "weight", Value: fmt.Sprint(e.w)}}
}
