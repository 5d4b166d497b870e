package pof

import (
	"bytes"
	"errors"
	"testing"

	"pofload/model"
)

func TestMinimalPof(t *testing.T) {
	chunks := minimalHeaderAndObj()
	data := pofFile(2117, chunks...)
	m, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(m.SubObjects); n != 1 {
		t.Fatalf("Parse: len(m.SubObjects)\nhave %d\nwant 1", n)
	}
	if n := len(m.SubObjects[0].BspData.Verts); n != 0 {
		t.Fatalf("Parse: len(SubObjects[0].BspData.Verts)\nhave %d\nwant 0", n)
	}
	if len(m.Header.DetailLevels) != 1 || m.Header.DetailLevels[0] != model.ObjectId(0) {
		t.Fatalf("Parse: Header.DetailLevels\nhave %v\nwant [0]", m.Header.DetailLevels)
	}
}

func TestWeaponOffsetVersioning(t *testing.T) {
	var bankOld wbuf
	bankOld.vec3(1, 2, 3)
	bankOld.vec3(0, 0, 1)
	var gpntOld wbuf
	gpntOld.u32(1) // one bank
	gpntOld.u32(1) // one hardpoint
	gpntOld.Write(bankOld.Bytes())

	chunksOld := minimalHeaderAndObj()
	chunksOld = append(chunksOld, chunk("GPNT", gpntOld.Bytes()))
	dataOld := pofFile(2116, chunksOld...)
	mOld, err := Parse(bytes.NewReader(dataOld))
	if err != nil {
		t.Fatal(err)
	}
	if got := mOld.PrimaryWeps[0][0].Offset; got != 0 {
		t.Fatalf("Parse (v2116): hardpoint.Offset\nhave %v\nwant 0", got)
	}

	var bankNew wbuf
	bankNew.vec3(1, 2, 3)
	bankNew.vec3(0, 0, 1)
	bankNew.f32(5.5)
	var gpntNew wbuf
	gpntNew.u32(1)
	gpntNew.u32(1)
	gpntNew.Write(bankNew.Bytes())

	chunksNew := minimalHeaderAndObj()
	chunksNew = append(chunksNew, chunk("GPNT", gpntNew.Bytes()))
	dataNew := pofFile(2201, chunksNew...)
	mNew, err := Parse(bytes.NewReader(dataNew))
	if err != nil {
		t.Fatal(err)
	}
	if got := mNew.PrimaryWeps[0][0].Offset; got != 5.5 {
		t.Fatalf("Parse (v2201): hardpoint.Offset\nhave %v\nwant 5.5", got)
	}
}

func shldChunk() []byte {
	var shld wbuf
	shld.u32(3) // 3 verts
	shld.vec3(0, 0, 0)
	shld.vec3(1, 0, 0)
	shld.vec3(0, 1, 0)
	shld.u32(1) // 1 polygon
	shld.vec3(0, 0, 1)
	shld.u32(0)
	shld.u32(1)
	shld.u32(2)
	shld.u32(0)
	shld.u32(0)
	shld.u32(0)
	return chunk("SHLD", shld.Bytes())
}

func TestShieldTreeEncoding(t *testing.T) {
	var leafU8 wbuf
	leafU8.u8(1) // LEAF, u8 tag
	leafU8.u32(0)
	leafU8.bbox([3]float32{0, 0, 0}, [3]float32{1, 1, 1})
	leafU8.u32(1)
	leafU8.u32(0)
	var sldc wbuf
	sldc.byteBuffer(leafU8.Bytes())

	chunksOld := minimalHeaderAndObj()
	chunksOld = append(chunksOld, shldChunk(), chunk("SLDC", sldc.Bytes()))
	dataOld := pofFile(2117, chunksOld...)
	mOld, err := Parse(bytes.NewReader(dataOld))
	if err != nil {
		t.Fatal(err)
	}
	leaf, ok := mOld.ShieldData.CollisionTree.(*model.ShieldLeaf)
	if !ok {
		t.Fatalf("Parse (SLDC, v2117): CollisionTree type\nhave %T\nwant *model.ShieldLeaf", mOld.ShieldData.CollisionTree)
	}
	if len(leaf.Polygons) != 1 || leaf.Polygons[0] != 0 {
		t.Fatalf("Parse (SLDC, v2117): leaf.Polygons\nhave %v\nwant [0]", leaf.Polygons)
	}

	var leafU32 wbuf
	leafU32.u32(1) // LEAF, u32 tag
	leafU32.u32(0)
	leafU32.bbox([3]float32{0, 0, 0}, [3]float32{1, 1, 1})
	leafU32.u32(1)
	leafU32.u32(0)
	var slc2 wbuf
	slc2.byteBuffer(leafU32.Bytes())

	chunksNew := minimalHeaderAndObj()
	chunksNew = append(chunksNew, shldChunk(), chunk("SLC2", slc2.Bytes()))
	dataNew := pofFile(2200, chunksNew...)
	mNew, err := Parse(bytes.NewReader(dataNew))
	if err != nil {
		t.Fatal(err)
	}
	leaf2, ok := mNew.ShieldData.CollisionTree.(*model.ShieldLeaf)
	if !ok {
		t.Fatalf("Parse (SLC2, v2200): CollisionTree type\nhave %T\nwant *model.ShieldLeaf", mNew.ShieldData.CollisionTree)
	}
	if len(leaf2.Polygons) != 1 || leaf2.Polygons[0] != 0 {
		t.Fatalf("Parse (SLC2, v2200): leaf.Polygons\nhave %v\nwant [0]", leaf2.Polygons)
	}
}

func TestSlc2RequiresV2200(t *testing.T) {
	var leaf wbuf
	leaf.u32(1)
	leaf.u32(0)
	leaf.bbox([3]float32{0, 0, 0}, [3]float32{1, 1, 1})
	leaf.u32(0)

	chunks := minimalHeaderAndObj()
	chunks = append(chunks, shldChunk(), chunk("SLC2", leaf.Bytes()))
	data := pofFile(2117, chunks...)
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, model.ErrMalformedChunk) {
		t.Fatalf("Parse (SLC2 @ v2117): err\nhave %v\nwant ErrMalformedChunk", err)
	}
}

func TestUnknownChunkSkipped(t *testing.T) {
	chunks := minimalHeaderAndObj()
	withUnknown := append([][]byte{chunks[0]}, chunk("XXXX", []byte{1, 2, 3, 4, 5}))
	withUnknown = append(withUnknown, chunks[1])

	withoutUnknown := pofFile(2117, chunks...)
	withUnknownData := pofFile(2117, withUnknown...)

	mWithout, err := Parse(bytes.NewReader(withoutUnknown))
	if err != nil {
		t.Fatal(err)
	}
	mWith, err := Parse(bytes.NewReader(withUnknownData))
	if err != nil {
		t.Fatal(err)
	}
	if len(mWith.SubObjects) != len(mWithout.SubObjects) {
		t.Fatalf("Parse (unknown chunk): len(SubObjects)\nhave %d\nwant %d", len(mWith.SubObjects), len(mWithout.SubObjects))
	}
	if mWith.SubObjects[0].Name != mWithout.SubObjects[0].Name {
		t.Fatalf("Parse (unknown chunk): SubObjects[0].Name\nhave %q\nwant %q", mWith.SubObjects[0].Name, mWithout.SubObjects[0].Name)
	}
}

func TestInvalidMagic(t *testing.T) {
	data := append([]byte("NOPE"), 0, 0, 0, 0)
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, model.ErrInvalidMagic) {
		t.Fatalf("Parse (bad magic): err\nhave %v\nwant ErrInvalidMagic", err)
	}
}

func TestMissingHeaderFatal(t *testing.T) {
	data := pofFile(2117)
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, model.ErrMissingHeader) {
		t.Fatalf("Parse (no HDR2): err\nhave %v\nwant ErrMissingHeader", err)
	}
}

func TestDuplicateObjectIdFatal(t *testing.T) {
	chunks := minimalHeaderAndObj()
	chunks = append(chunks, chunks[1]) // re-append the same OBJ2 chunk
	data := pofFile(2117, chunks...)
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, model.ErrMalformedChunk) {
		t.Fatalf("Parse (duplicate OBJ2): err\nhave %v\nwant ErrMalformedChunk", err)
	}
}

func TestUnknownVersionFatal(t *testing.T) {
	data := pofFile(1)
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, model.ErrUnknownVersion) {
		t.Fatalf("Parse (version 1): err\nhave %v\nwant ErrUnknownVersion", err)
	}
}

func TestSortnormChildOffsetZeroFatal(t *testing.T) {
	var deffpoints wbuf
	deffpoints.u32(1)
	deffpoints.u32(20)
	deffpoints.u32(0)
	deffpoints.u32(0)
	deffpoints.u32(20)

	var sortnorm wbuf
	sortnorm.u32(4) // SORTNORM
	sortnorm.u32(100)
	sortnorm.vec3(0, 1, 0)
	sortnorm.vec3(0, 0, 0)
	sortnorm.u32(0) // reserved
	sortnorm.u32(0) // front_offset == 0, invalid
	sortnorm.u32(1)
	sortnorm.u32(0)
	sortnorm.u32(0)
	sortnorm.u32(0)
	sortnorm.bbox([3]float32{0, 0, 0}, [3]float32{1, 1, 1})

	var bspBuf wbuf
	bspBuf.Write(deffpoints.Bytes())
	bspBuf.Write(sortnorm.Bytes())

	var obj wbuf
	obj.u32(0)
	obj.f32(1)
	obj.u32(0xFFFFFFFF)
	obj.vec3(0, 0, 0)
	obj.vec3(0, 0, 0)
	obj.bbox([3]float32{-1, -1, -1}, [3]float32{1, 1, 1})
	obj.str("hull")
	obj.str("")
	obj.i32(-1)
	obj.i32(-1)
	obj.i32(0)
	obj.byteBuffer(bspBuf.Bytes())

	var hdr wbuf
	hdr.f32(10)
	hdr.u32(0)
	hdr.u32(1)
	hdr.bbox([3]float32{-1, -1, -1}, [3]float32{1, 1, 1})
	hdr.u32(1)
	hdr.u32(0)
	hdr.u32(0)
	hdr.f32(1)
	hdr.vec3(0, 0, 0)
	hdr.vec3(1, 0, 0)
	hdr.vec3(0, 1, 0)
	hdr.vec3(0, 0, 1)
	hdr.u32(0xFFFFFFFF)
	hdr.u32(0)

	data := pofFile(2117, chunk("HDR2", hdr.Bytes()), chunk("OBJ2", obj.Bytes()))
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, model.ErrMalformedChunk) {
		t.Fatalf("Parse (SORTNORM front_offset==0): err\nhave %v\nwant ErrMalformedChunk", err)
	}
}

func TestDockingBayTooManyPointsFatal(t *testing.T) {
	var dock wbuf
	dock.u32(1) // one bay
	dock.str("")
	dock.u32(0) // no path ids
	dock.u32(3) // 3 points: violates assert len < 3
	for i := 0; i < 3; i++ {
		dock.vec3(0, 0, 0)
		dock.vec3(0, 0, 1)
	}

	chunks := minimalHeaderAndObj()
	chunks = append(chunks, chunk("DOCK", dock.Bytes()))
	data := pofFile(2117, chunks...)
	_, err := Parse(bytes.NewReader(data))
	if !errors.Is(err, model.ErrMalformedChunk) {
		t.Fatalf("Parse (DOCK, 3 points): err\nhave %v\nwant ErrMalformedChunk", err)
	}
}

func TestInsignia(t *testing.T) {
	var insg wbuf
	insg.u32(1) // one insignia
	insg.u32(0) // detail_level
	insg.u32(1) // num_faces
	insg.u32(3) // 3 vertices
	insg.vec3(0, 0, 0)
	insg.vec3(1, 0, 0)
	insg.vec3(0, 1, 0)
	insg.vec3(0, 0, 0) // offset
	for i := uint32(0); i < 3; i++ {
		insg.u32(i)
		insg.f32(0)
		insg.f32(0)
	}

	chunks := minimalHeaderAndObj()
	chunks = append(chunks, chunk("INSG", insg.Bytes()))
	data := pofFile(2117, chunks...)
	m, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Insignias) != 1 || len(m.Insignias[0].Faces) != 1 {
		t.Fatalf("Parse (INSG): Insignias\nhave %+v\nwant 1 insignia, 1 face", m.Insignias)
	}
	if len(m.Insignias[0].Vertices) != 3 {
		t.Fatalf("Parse (INSG): len(Vertices)\nhave %d\nwant 3", len(m.Insignias[0].Vertices))
	}
}

func TestComments(t *testing.T) {
	chunks := minimalHeaderAndObj()
	chunks = append(chunks, chunk("PINF", []byte("built by a test\x00garbage")))
	data := pofFile(2117, chunks...)
	m, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if m.Comments != "built by a test" {
		t.Fatalf("Parse (PINF): Comments\nhave %q\nwant %q", m.Comments, "built by a test")
	}
}
