// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package node

import (
	"testing"

	"pofload/linear"
)

// testNode is a minimal Interface implementation: a fixed local
// transform that is always reported as changed, which is enough to
// drive Graph.Update deterministically in tests.
type testNode struct {
	local linear.M4
}

func (n *testNode) Local() *linear.M4 { return &n.local }
func (n *testNode) Changed() bool     { return true }

func translation(x, y, z float32) linear.M4 {
	var m linear.M4
	m.I()
	m[3] = linear.V4{x, y, z, 1}
	return m
}

func TestGraphInsertGet(t *testing.T) {
	var g Graph
	n1 := &testNode{local: translation(1, 0, 0)}
	id := g.Insert(n1, Nil)
	if id == Nil {
		t.Fatal("Graph.Insert: returned Nil")
	}
	if g.Get(id) != Interface(n1) {
		t.Fatalf("Graph.Get\nhave %v\nwant %v", g.Get(id), n1)
	}
	if n := g.Len(); n != 1 {
		t.Fatalf("Graph.Len\nhave %d\nwant 1", n)
	}
}

func TestGraphWorldPropagation(t *testing.T) {
	var g Graph
	parent := g.Insert(&testNode{local: translation(1, 0, 0)}, Nil)
	child := g.Insert(&testNode{local: translation(0, 2, 0)}, parent)
	g.Update()

	pw := g.World(parent)
	if pw[3] != (linear.V4{1, 0, 0, 1}) {
		t.Fatalf("Graph.World(parent)\nhave %v\nwant [1 0 0 1]", pw[3])
	}
	cw := g.World(child)
	if cw[3] != (linear.V4{1, 2, 0, 1}) {
		t.Fatalf("Graph.World(child)\nhave %v\nwant [1 2 0 1]", cw[3])
	}
}

func TestGraphRemove(t *testing.T) {
	var g Graph
	parent := g.Insert(&testNode{local: translation(0, 0, 0)}, Nil)
	child := g.Insert(&testNode{local: translation(0, 0, 0)}, parent)
	_ = child

	removed := g.Remove(parent)
	if n := len(removed); n != 2 {
		t.Fatalf("Graph.Remove: len(removed)\nhave %d\nwant 2", n)
	}
	if n := g.Len(); n != 0 {
		t.Fatalf("Graph.Len after Remove\nhave %d\nwant 0", n)
	}
}

func TestGraphSetWorld(t *testing.T) {
	var g Graph
	g.SetWorld(translation(5, 0, 0))
	n := g.Insert(&testNode{local: translation(0, 1, 0)}, Nil)
	g.Update()
	w := g.World(n)
	if w[3] != (linear.V4{5, 1, 0, 1}) {
		t.Fatalf("Graph.World after SetWorld\nhave %v\nwant [5 1 0 1]", w[3])
	}
}
