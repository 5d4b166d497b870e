package dae

import (
	"strconv"
	"strings"

	"pofload/linear"
	"pofload/model"
	"pofload/node"
)

// graphNode adapts a parsed COLLADA <matrix> into node.Interface so the
// scene hierarchy can be handed to node.Graph for world-transform
// propagation, exactly the way the teacher's engine drives its own
// renderer nodes through the same Graph.
type graphNode struct {
	local linear.M4
}

func (n *graphNode) Local() *linear.M4 { return &n.local }
func (n *graphNode) Changed() bool     { return true }

type nodeEntry struct {
	dn *daeNode
	gn node.Node
}

func buildGraph(g *node.Graph, nodes []daeNode, parent node.Node, out *[]nodeEntry) error {
	for i := range nodes {
		n := &nodes[i]
		m, err := parseMatrix(n.Matrix)
		if err != nil {
			return err
		}
		gn := g.Insert(&graphNode{local: m}, parent)
		*out = append(*out, nodeEntry{dn: n, gn: gn})
		if err := buildGraph(g, n.Children, gn, out); err != nil {
			return err
		}
	}
	return nil
}

// parseMatrix parses a COLLADA <matrix> element's 16 space-separated
// floats (row-major) into the teacher's column-major M4.
func parseMatrix(text string) (linear.M4, error) {
	var m linear.M4
	text = strings.TrimSpace(text)
	if text == "" {
		m.I()
		return m, nil
	}
	fields := strings.Fields(text)
	if len(fields) != 16 {
		return m, model.NewParseError(model.ErrMalformedChunk, "dae: matrix element needs 16 values", nil)
	}
	var data [16]float32
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return m, model.NewParseError(model.ErrMalformedChunk, "dae: matrix value", err)
		}
		data[i] = float32(v)
	}
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			m[col][row] = data[row*4+col]
		}
	}
	return m, nil
}

func translationOf(m *linear.M4) model.Vec3d {
	return model.Vec3d{m[3][0], m[3][1], m[3][2]}
}

// centeredTransform returns m with its translation column replaced by
// -center, i.e. the body frame local_transform of spec §4.5 step 1.
func centeredTransform(m *linear.M4, center model.Vec3d) linear.M4 {
	lt := *m
	lt[3] = linear.V4{-center[0], -center[1], -center[2], 1}
	return lt
}

func transformPoint(m *linear.M4, p model.Vec3d) model.Vec3d {
	v := linear.V4{p[0], p[1], p[2], 1}
	var out linear.V4
	out.Mul(m, &v)
	return model.Vec3d{out[0], out[1], out[2]}
}

// transformDir applies only the linear part of m (no translation) and
// renormalizes, so a scale in m does not change the result's length.
// The direction is m times d; no inverse-transpose is applied, so a
// non-uniform scale still tilts the direction.
func transformDir(m *linear.M4, d model.Vec3d) model.Vec3d {
	v := linear.V4{d[0], d[1], d[2], 0}
	var out linear.V4
	out.Mul(m, &v)
	r := model.Vec3d{out[0], out[1], out[2]}
	if l := r.Len(); l > 0 {
		r.Scale(1/l, &r)
	}
	return r
}

// flipYZ swaps the Y and Z components, the coordinate-system flip every
// geometric quantity on the DAE path passes through exactly once.
func flipYZ(v model.Vec3d) model.Vec3d {
	return model.Vec3d{v[0], v[2], v[1]}
}
