package pof

import (
	"fmt"

	"pofload/internal/cursor"
	"pofload/model"
)

// BSP chunk type tags (inline tree inside an OBJ2 payload).
const (
	bspEndOfBranch = 0
	bspDeffpoints  = 1
	bspFlatpoly    = 2
	bspTmappoly    = 3
	bspSortnorm    = 4
	bspBoundbox    = 5
)

type bspChunkHeader struct {
	tag  uint32
	size uint32
}

// readBspChunkHeader reads the tag/size pair at the cursor's current
// position, which must be offset 0 of the chunk.
func readBspChunkHeader(c *cursor.Slice) (bspChunkHeader, error) {
	tag, err := c.ReadU32()
	if err != nil {
		return bspChunkHeader{}, ioErr("bsp chunk tag", err)
	}
	size, err := c.ReadU32()
	if err != nil {
		return bspChunkHeader{}, ioErr("bsp chunk size", err)
	}
	return bspChunkHeader{tag, size}, nil
}

// decodeBsp decodes a self-contained inline BSP buffer (the payload of
// an OBJ2 subobject's byte-buffer field) into a BspData.
func decodeBsp(buf []byte) (*model.BspData, error) {
	c := cursor.NewSlice(buf)
	hdr, err := readBspChunkHeader(c)
	if err != nil {
		return nil, err
	}
	if hdr.tag != bspDeffpoints {
		return nil, malformed(fmt.Sprintf("bsp: root chunk tag %d, want DEFFPOINTS", hdr.tag))
	}
	numVerts, err := c.ReadU32()
	if err != nil {
		return nil, ioErr("bsp DEFFPOINTS num_verts", err)
	}
	numNorms, err := c.ReadU32()
	if err != nil {
		return nil, ioErr("bsp DEFFPOINTS num_norms", err)
	}
	offset, err := c.ReadU32()
	if err != nil {
		return nil, ioErr("bsp DEFFPOINTS offset", err)
	}
	normCounts := make([]uint8, numVerts)
	for i := range normCounts {
		b, err := c.ReadU8()
		if err != nil {
			return nil, ioErr("bsp DEFFPOINTS norm count table", err)
		}
		normCounts[i] = b
	}

	if int(offset) > len(buf) {
		return nil, malformed("bsp: DEFFPOINTS blob offset out of range")
	}
	vc := cursor.NewSlice(buf[offset:])
	verts := make([]model.Vec3d, 0, numVerts)
	norms := make([]model.Vec3d, 0, numNorms)
	for _, nc := range normCounts {
		v, err := vc.ReadVec3()
		if err != nil {
			return nil, ioErr("bsp vertex blob", err)
		}
		verts = append(verts, model.Vec3d(v))
		for j := uint8(0); j < nc; j++ {
			n, err := vc.ReadVec3()
			if err != nil {
				return nil, ioErr("bsp normal blob", err)
			}
			norms = append(norms, model.Vec3d(n))
		}
	}
	if uint32(len(norms)) != numNorms {
		return nil, malformed(fmt.Sprintf("bsp: normal count mismatch, have %d want %d", len(norms), numNorms))
	}

	if int(hdr.size) > len(buf) {
		return nil, malformed("bsp: DEFFPOINTS chunk size out of range")
	}
	tree, err := decodeBspNode(buf[hdr.size:])
	if err != nil {
		return nil, err
	}
	return &model.BspData{Verts: verts, Norms: norms, CollisionTree: tree}, nil
}

// decodeBspNode decodes one node starting at buf[0]. Child offsets
// (front/back, and BOUNDBOX's polygon-run successor) are relative to
// this buf, not to the root of the whole tree — so recursion simply
// re-slices buf, matching the wire's own relative-pointer scheme.
func decodeBspNode(buf []byte) (model.BspNode, error) {
	c := cursor.NewSlice(buf)
	hdr, err := readBspChunkHeader(c)
	if err != nil {
		return nil, err
	}
	switch hdr.tag {
	case bspSortnorm:
		return decodeSortnorm(buf, c)
	case bspBoundbox:
		return decodeBoundbox(buf, c, hdr)
	default:
		return nil, malformed(fmt.Sprintf("bsp: unexpected node tag %d", hdr.tag))
	}
}

func decodeSortnorm(buf []byte, c *cursor.Slice) (model.BspNode, error) {
	normal, err := c.ReadVec3()
	if err != nil {
		return nil, ioErr("bsp SORTNORM normal", err)
	}
	point, err := c.ReadVec3()
	if err != nil {
		return nil, ioErr("bsp SORTNORM point", err)
	}
	if _, err := c.ReadU32(); err != nil { // reserved, ignored
		return nil, ioErr("bsp SORTNORM reserved", err)
	}
	frontOff, err := c.ReadU32()
	if err != nil {
		return nil, ioErr("bsp SORTNORM front offset", err)
	}
	backOff, err := c.ReadU32()
	if err != nil {
		return nil, ioErr("bsp SORTNORM back offset", err)
	}
	preList, err := c.ReadU32()
	if err != nil {
		return nil, ioErr("bsp SORTNORM prelist", err)
	}
	postList, err := c.ReadU32()
	if err != nil {
		return nil, ioErr("bsp SORTNORM postlist", err)
	}
	onLine, err := c.ReadU32()
	if err != nil {
		return nil, ioErr("bsp SORTNORM online", err)
	}
	bbox, err := readBBox(c)
	if err != nil {
		return nil, ioErr("bsp SORTNORM bbox", err)
	}
	if frontOff == 0 || backOff == 0 {
		return nil, malformed("bsp: SORTNORM child offset is zero")
	}
	for _, off := range [...]uint32{preList, postList, onLine} {
		if off == 0 {
			continue
		}
		if int(off) >= len(buf) || buf[off] != bspEndOfBranch {
			return nil, malformed("bsp: SORTNORM pre/post/online branch is non-empty")
		}
	}
	if int(frontOff) >= len(buf) || int(backOff) >= len(buf) {
		return nil, malformed("bsp: SORTNORM child offset out of range")
	}
	front, err := decodeBspNode(buf[frontOff:])
	if err != nil {
		return nil, err
	}
	back, err := decodeBspNode(buf[backOff:])
	if err != nil {
		return nil, err
	}
	return &model.BspSplit{Normal: normal, Point: point, Front: front, Back: back, BBox: bbox}, nil
}

func decodeBoundbox(buf []byte, c *cursor.Slice, hdr bspChunkHeader) (model.BspNode, error) {
	bbox, err := readBBox(c)
	if err != nil {
		return nil, ioErr("bsp BOUNDBOX bbox", err)
	}
	if int(hdr.size) > len(buf) {
		return nil, malformed("bsp: BOUNDBOX chunk size out of range")
	}
	cur := buf[hdr.size:]
	var polys []model.Polygon
	for {
		if len(cur) < 8 {
			return nil, malformed("bsp: polygon run ran past end of buffer without ENDOFBRANCH")
		}
		pc := cursor.NewSlice(cur)
		ph, err := readBspChunkHeader(pc)
		if err != nil {
			return nil, err
		}
		switch ph.tag {
		case bspTmappoly:
			poly, err := decodeTmappoly(pc)
			if err != nil {
				return nil, err
			}
			polys = append(polys, poly)
		case bspFlatpoly:
			poly, err := decodeFlatpoly(pc)
			if err != nil {
				return nil, err
			}
			polys = append(polys, poly)
		case bspEndOfBranch:
			return &model.BspLeaf{BBox: bbox, Polygons: polys}, nil
		default:
			return nil, malformed(fmt.Sprintf("bsp: unexpected polygon chunk tag %d", ph.tag))
		}
		if int(ph.size) > len(cur) {
			return nil, malformed("bsp: polygon chunk size out of range")
		}
		cur = cur[ph.size:]
	}
}

func decodeTmappoly(c *cursor.Slice) (model.Polygon, error) {
	normal, err := c.ReadVec3()
	if err != nil {
		return model.Polygon{}, ioErr("bsp TMAPPOLY normal", err)
	}
	center, err := c.ReadVec3()
	if err != nil {
		return model.Polygon{}, ioErr("bsp TMAPPOLY center", err)
	}
	radius, err := c.ReadF32()
	if err != nil {
		return model.Polygon{}, ioErr("bsp TMAPPOLY radius", err)
	}
	numVerts, err := c.ReadU32()
	if err != nil {
		return model.Polygon{}, ioErr("bsp TMAPPOLY num_verts", err)
	}
	textureID, err := c.ReadU32()
	if err != nil {
		return model.Polygon{}, ioErr("bsp TMAPPOLY texture_id", err)
	}
	verts := make([]model.PolyVertex, numVerts)
	for i := range verts {
		vid, err := c.ReadU16()
		if err != nil {
			return model.Polygon{}, ioErr("bsp TMAPPOLY vertex_id", err)
		}
		nid, err := c.ReadU16()
		if err != nil {
			return model.Polygon{}, ioErr("bsp TMAPPOLY normal_id", err)
		}
		u, err := c.ReadF32()
		if err != nil {
			return model.Polygon{}, ioErr("bsp TMAPPOLY uv.u", err)
		}
		v, err := c.ReadF32()
		if err != nil {
			return model.Polygon{}, ioErr("bsp TMAPPOLY uv.v", err)
		}
		verts[i] = model.PolyVertex{
			VertexID: model.VertexId(vid),
			NormalID: model.NormalId(nid),
			UV:       [2]float32{u, v},
		}
	}
	return model.Polygon{
		Normal:  model.Vec3d(normal),
		Center:  model.Vec3d(center),
		Radius:  radius,
		Texture: model.TextureRef{ID: model.TextureId(textureID)},
		Verts:   verts,
	}, nil
}

func decodeFlatpoly(c *cursor.Slice) (model.Polygon, error) {
	normal, err := c.ReadVec3()
	if err != nil {
		return model.Polygon{}, ioErr("bsp FLATPOLY normal", err)
	}
	center, err := c.ReadVec3()
	if err != nil {
		return model.Polygon{}, ioErr("bsp FLATPOLY center", err)
	}
	radius, err := c.ReadF32()
	if err != nil {
		return model.Polygon{}, ioErr("bsp FLATPOLY radius", err)
	}
	numVerts, err := c.ReadU32()
	if err != nil {
		return model.Polygon{}, ioErr("bsp FLATPOLY num_verts", err)
	}
	r, err := c.ReadU8()
	if err != nil {
		return model.Polygon{}, ioErr("bsp FLATPOLY r", err)
	}
	g, err := c.ReadU8()
	if err != nil {
		return model.Polygon{}, ioErr("bsp FLATPOLY g", err)
	}
	b, err := c.ReadU8()
	if err != nil {
		return model.Polygon{}, ioErr("bsp FLATPOLY b", err)
	}
	if _, err := c.ReadU8(); err != nil { // padding
		return model.Polygon{}, ioErr("bsp FLATPOLY padding", err)
	}
	verts := make([]model.PolyVertex, numVerts)
	for i := range verts {
		vid, err := c.ReadU16()
		if err != nil {
			return model.Polygon{}, ioErr("bsp FLATPOLY vertex_id", err)
		}
		nid, err := c.ReadU16()
		if err != nil {
			return model.Polygon{}, ioErr("bsp FLATPOLY normal_id", err)
		}
		verts[i] = model.PolyVertex{VertexID: model.VertexId(vid), NormalID: model.NormalId(nid)}
	}
	return model.Polygon{
		Normal:  model.Vec3d(normal),
		Center:  model.Vec3d(center),
		Radius:  radius,
		Texture: model.FlatColor{Color: model.Color{R: r, G: g, B: b}},
		Verts:   verts,
	}, nil
}
