package dae

import (
	"strconv"
	"strings"

	"pofload/linear"
	"pofload/model"
)

func parseFloats(text string) ([]float32, error) {
	fields := strings.Fields(text)
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, model.NewParseError(model.ErrMalformedChunk, "dae: float_array value", err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func parseInts(text string) ([]int, error) {
	fields := strings.Fields(text)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, model.NewParseError(model.ErrMalformedChunk, "dae: index value", err)
		}
		out[i] = v
	}
	return out, nil
}

func parseVec3Source(geom *daeGeometry, sourceID string) ([]model.Vec3d, error) {
	src := findSource(geom, sourceID)
	if src == nil {
		return nil, model.NewParseError(model.ErrMalformedChunk, "dae: missing source "+sourceID, nil)
	}
	flat, err := parseFloats(src.FloatArray)
	if err != nil {
		return nil, err
	}
	if len(flat)%3 != 0 {
		return nil, model.NewParseError(model.ErrMalformedChunk, "dae: source "+sourceID+" length not a multiple of 3", nil)
	}
	out := make([]model.Vec3d, len(flat)/3)
	for i := range out {
		out[i] = model.Vec3d{flat[i*3], flat[i*3+1], flat[i*3+2]}
	}
	return out, nil
}

func parseVec2Source(geom *daeGeometry, sourceID string) ([][2]float32, error) {
	src := findSource(geom, sourceID)
	if src == nil {
		return nil, model.NewParseError(model.ErrMalformedChunk, "dae: missing source "+sourceID, nil)
	}
	flat, err := parseFloats(src.FloatArray)
	if err != nil {
		return nil, err
	}
	if len(flat)%2 != 0 {
		return nil, model.NewParseError(model.ErrMalformedChunk, "dae: source "+sourceID+" length not a multiple of 2", nil)
	}
	out := make([][2]float32, len(flat)/2)
	for i := range out {
		out[i] = [2]float32{flat[i*2], flat[i*2+1]}
	}
	return out, nil
}

func vertexSourceID(geom *daeGeometry) string {
	return strings.TrimPrefix(geom.Vertices.Input.Source, "#")
}

// primitiveInputs resolves the VERTEX/NORMAL/TEXCOORD semantics from a
// polylist or triangles element's <input> list.
type primitiveInputs struct {
	stride                 int
	vertexOffset           int
	normalOffset           int
	uvOffset               int
	hasNormal, hasUV       bool
	normalSource, uvSource string
}

func resolveInputs(inputs []daeInput) primitiveInputs {
	var pi primitiveInputs
	for _, in := range inputs {
		if in.Offset+1 > pi.stride {
			pi.stride = in.Offset + 1
		}
		switch in.Semantic {
		case "VERTEX":
			pi.vertexOffset = in.Offset
		case "NORMAL":
			pi.normalOffset = in.Offset
			pi.normalSource = strings.TrimPrefix(in.Source, "#")
			pi.hasNormal = true
		case "TEXCOORD":
			pi.uvOffset = in.Offset
			pi.uvSource = strings.TrimPrefix(in.Source, "#")
			pi.hasUV = true
		}
	}
	return pi
}

func (imp *importer) texturingFor(materialSymbol string, symbolMap map[string]string) model.Texturing {
	target := symbolMap[materialSymbol]
	if target == "" {
		target = materialSymbol
	}
	if id, ok := imp.materialMap[target]; ok {
		return model.TextureRef{ID: id}
	}
	return model.FlatColor{}
}

// facesFromIndices expands a flat primitive index stream into one
// []model.PolyVertex per face, using vcounts to size each face (nil
// vcounts means every face is a fixed-size triangle).
func facesFromIndices(indices []int, vcounts []int, faceSize int, pi primitiveInputs, vertexOffset, normalOffset int, uv [][2]float32) ([][]model.PolyVertex, error) {
	var faces [][]model.PolyVertex
	pos := 0
	nextSize := func(i int) int {
		if vcounts != nil {
			return vcounts[i]
		}
		return faceSize
	}
	for i := 0; ; i++ {
		if vcounts != nil {
			if i >= len(vcounts) {
				break
			}
		} else if pos >= len(indices) {
			break
		}
		n := nextSize(i)
		face := make([]model.PolyVertex, n)
		for k := 0; k < n; k++ {
			base := pos + k*pi.stride
			if base+pi.stride > len(indices) {
				return nil, model.NewParseError(model.ErrMalformedChunk, "dae: primitive index stream too short", nil)
			}
			vid := indices[base+pi.vertexOffset] + vertexOffset
			pv := model.PolyVertex{VertexID: model.VertexId(vid)}
			if pi.hasNormal {
				pv.NormalID = model.NormalId(indices[base+pi.normalOffset] + normalOffset)
			}
			if pi.hasUV && uv != nil {
				idx := indices[base+pi.uvOffset]
				if idx >= 0 && idx < len(uv) {
					pv.UV = uv[idx]
				}
			}
			face[k] = pv
		}
		faces = append(faces, face)
		pos += n * pi.stride
	}
	return faces, nil
}

// collectGeometry walks every instance_geometry on dn, transforming and
// appending positions/normals into the node's combined buffers and
// building one Polygon per primitive-block face.
func (imp *importer) collectGeometry(dn *daeNode, local *linear.M4) (verts, norms []model.Vec3d, polys []model.Polygon, err error) {
	for _, ig := range dn.InstanceGeometries {
		geomID := strings.TrimPrefix(ig.URL, "#")
		geom := findGeometry(imp.doc, geomID)
		if geom == nil {
			return nil, nil, nil, model.NewParseError(model.ErrMalformedChunk, "dae: missing geometry "+geomID, nil)
		}
		symbolMap := make(map[string]string, len(ig.InstanceMaterials))
		for _, im := range ig.InstanceMaterials {
			symbolMap[im.Symbol] = strings.TrimPrefix(im.Target, "#")
		}

		positions, err := parseVec3Source(geom, vertexSourceID(geom))
		if err != nil {
			return nil, nil, nil, err
		}
		vertexOffset := len(verts)
		for _, p := range positions {
			verts = append(verts, flipYZ(transformPoint(local, p)))
		}

		for _, pl := range geom.Polylists {
			pi := resolveInputs(pl.Inputs)
			texturing := imp.texturingFor(pl.Material, symbolMap)
			normalOffset, uv, err := imp.appendNormals(geom, pi, local, &norms)
			if err != nil {
				return nil, nil, nil, err
			}
			indices, err := parseInts(pl.P)
			if err != nil {
				return nil, nil, nil, err
			}
			vcounts, err := parseInts(pl.VCount)
			if err != nil {
				return nil, nil, nil, err
			}
			faces, err := facesFromIndices(indices, vcounts, 0, pi, vertexOffset, normalOffset, uv)
			if err != nil {
				return nil, nil, nil, err
			}
			for _, f := range faces {
				polys = append(polys, model.Polygon{Texture: texturing, Verts: f})
			}
		}

		for _, tr := range geom.Triangles {
			pi := resolveInputs(tr.Inputs)
			if !pi.hasNormal {
				return nil, nil, nil, model.NewParseError(model.ErrMalformedChunk, "dae: triangles primitive missing NORMAL input", nil)
			}
			texturing := imp.texturingFor(tr.Material, symbolMap)
			normalOffset, uv, err := imp.appendNormals(geom, pi, local, &norms)
			if err != nil {
				return nil, nil, nil, err
			}
			indices, err := parseInts(tr.P)
			if err != nil {
				return nil, nil, nil, err
			}
			faces, err := facesFromIndices(indices, nil, 3, pi, vertexOffset, normalOffset, uv)
			if err != nil {
				return nil, nil, nil, err
			}
			for _, f := range faces {
				polys = append(polys, model.Polygon{Texture: texturing, Verts: f})
			}
		}
	}
	return verts, norms, polys, nil
}

// appendNormals resolves a primitive block's own NORMAL source (if any),
// transforms and appends it to the node's combined normal buffer, and
// returns the base offset at which it begins plus the UV source values
// (untransformed, read directly since UVs carry no spatial meaning).
func (imp *importer) appendNormals(geom *daeGeometry, pi primitiveInputs, local *linear.M4, norms *[]model.Vec3d) (int, [][2]float32, error) {
	normalOffset := len(*norms)
	if pi.hasNormal {
		raw, err := parseVec3Source(geom, pi.normalSource)
		if err != nil {
			return 0, nil, err
		}
		for _, n := range raw {
			*norms = append(*norms, flipYZ(transformDir(local, n)))
		}
	}
	var uv [][2]float32
	if pi.hasUV {
		var err error
		uv, err = parseVec2Source(geom, pi.uvSource)
		if err != nil {
			return 0, nil, err
		}
	}
	return normalOffset, uv, nil
}

// buildShieldData fan-triangulates every polygon (already winding-
// reversed by the caller) recorded for a node named "shield", computing
// each resulting triangle's outward face normal from its own vertices.
func buildShieldData(verts []model.Vec3d, polys []model.Polygon) *model.ShieldData {
	var sp []model.ShieldPolygon
	for _, p := range polys {
		if len(p.Verts) < 3 {
			continue
		}
		v0 := p.Verts[0].VertexID
		for i := 1; i < len(p.Verts)-1; i++ {
			v1 := p.Verts[i].VertexID
			v2 := p.Verts[i+1].VertexID
			p0, p1, p2 := verts[v0], verts[v1], verts[v2]
			var e1, e2, normal model.Vec3d
			e1.Sub(&p1, &p0)
			e2.Sub(&p2, &p0)
			normal.Cross(&e1, &e2)
			normal.Norm(&normal)
			sp = append(sp, model.ShieldPolygon{
				Normal: normal,
				Verts:  [3]model.VertexId{v0, v1, v2},
			})
		}
	}
	return &model.ShieldData{Verts: verts, Polygons: sp}
}
