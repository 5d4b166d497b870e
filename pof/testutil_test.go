package pof

import (
	"bytes"
	"encoding/binary"
	"math"
)

// wbuf is a small little-endian byte builder used to construct POF test
// fixtures by hand, mirroring the wire layouts decoded by parser.go.
type wbuf struct{ bytes.Buffer }

func (w *wbuf) u8(v uint8) { w.WriteByte(v) }

func (w *wbuf) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func (w *wbuf) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func (w *wbuf) i32(v int32) { w.u32(uint32(v)) }

func (w *wbuf) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *wbuf) vec3(x, y, z float32) {
	w.f32(x)
	w.f32(y)
	w.f32(z)
}

func (w *wbuf) bbox(min, max [3]float32) {
	w.vec3(min[0], min[1], min[2])
	w.vec3(max[0], max[1], max[2])
}

func (w *wbuf) bytesRaw(b []byte) { w.Write(b) }

func (w *wbuf) str(s string) {
	w.u32(uint32(len(s)))
	w.WriteString(s)
}

func (w *wbuf) byteBuffer(b []byte) {
	w.u32(uint32(len(b)))
	w.Write(b)
}

// chunk wraps payload with a 4-byte ascii id and an i32 length prefix, as
// the top-level chunk loop expects.
func chunk(id string, payload []byte) []byte {
	var w wbuf
	w.WriteString(id)
	w.i32(int32(len(payload)))
	w.Write(payload)
	return w.Bytes()
}

func pofFile(version int32, chunks ...[]byte) []byte {
	var w wbuf
	w.WriteString("PSPO")
	w.i32(version)
	for _, c := range chunks {
		w.Write(c)
	}
	return w.Bytes()
}

// emptyBsp builds the smallest legal BSP buffer: a zero-vertex
// DEFFPOINTS root followed by an empty BOUNDBOX leaf.
func emptyBsp() []byte {
	var deffpoints wbuf
	deffpoints.u32(1) // DEFFPOINTS
	deffpoints.u32(20)
	deffpoints.u32(0) // num_verts
	deffpoints.u32(0) // num_norms
	deffpoints.u32(20) // offset, unused since num_verts == 0

	var boundbox wbuf
	boundbox.u32(5) // BOUNDBOX
	boundbox.u32(32)
	boundbox.bbox([3]float32{0, 0, 0}, [3]float32{0, 0, 0})

	var endOfBranch wbuf
	endOfBranch.u32(0) // ENDOFBRANCH
	endOfBranch.u32(8)

	var out wbuf
	out.Write(deffpoints.Bytes())
	out.Write(boundbox.Bytes())
	out.Write(endOfBranch.Bytes())
	return out.Bytes()
}

// minimalHeaderAndObj builds the HDR2+OBJ2 pair common to most fixtures:
// one detail level, no debris, one empty-BSP subobject with id 0.
func minimalHeaderAndObj() [][]byte {
	var hdr wbuf
	hdr.f32(10) // max_radius
	hdr.u32(0)  // obj_flags
	hdr.u32(1)  // num_subobjects
	hdr.bbox([3]float32{-1, -1, -1}, [3]float32{1, 1, 1})
	hdr.u32(1) // detail_levels count
	hdr.u32(0) // ObjectId(0)
	hdr.u32(0) // debris count
	hdr.f32(1) // mass
	hdr.vec3(0, 0, 0)
	hdr.vec3(1, 0, 0)
	hdr.vec3(0, 1, 0)
	hdr.vec3(0, 0, 1)
	hdr.u32(0xFFFFFFFF) // cross-section count (sentinel for zero)
	hdr.u32(0)          // bsp_lights count

	var obj wbuf
	obj.u32(0) // obj_id
	obj.f32(1) // radius
	obj.u32(0xFFFFFFFF)
	obj.vec3(0, 0, 0)
	obj.vec3(0, 0, 0)
	obj.bbox([3]float32{-1, -1, -1}, [3]float32{1, 1, 1})
	obj.str("hull")
	obj.str("")
	obj.i32(-1) // movement_type: None
	obj.i32(-1) // movement_axis: None
	obj.i32(0)  // reserved
	obj.byteBuffer(emptyBsp())

	return [][]byte{chunk("HDR2", hdr.Bytes()), chunk("OBJ2", obj.Bytes())}
}
