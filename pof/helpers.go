package pof

import (
	"pofload/internal/bitm"
	"pofload/internal/bitvec"
	"pofload/model"
)

// vec3Reader is implemented by both cursor.Stream and cursor.Slice,
// letting readBBox serve the top-level chunk loop and the tree
// decoders alike.
type vec3Reader interface {
	ReadVec3() ([3]float32, error)
}

func readBBox[T vec3Reader](c T) (model.BBox, error) {
	min, err := c.ReadVec3()
	if err != nil {
		return model.BBox{}, err
	}
	max, err := c.ReadVec3()
	if err != nil {
		return model.BBox{}, err
	}
	return model.BBox{Min: model.Vec3d(min), Max: model.Vec3d(max)}, nil
}

func ioErr(context string, err error) error {
	return model.NewParseError(model.ErrIoError, context, err)
}

func malformed(context string) error {
	return model.NewParseError(model.ErrMalformedChunk, context, nil)
}

// markID grows bm as needed and sets the bit for id.
func markID(bm *bitm.Bitm[uint32], id uint32) {
	for bm.Len() <= int(id) {
		bm.Grow(1)
	}
	bm.Set(int(id))
}

func isMarked(bm *bitm.Bitm[uint32], id uint32) bool {
	if int(id) >= bm.Len() {
		return false
	}
	return bm.IsSet(int(id))
}

// markSeen grows v as needed, reports whether id was already set, then
// sets it — used to detect a duplicate OBJ2 object id.
func markSeen(v *bitvec.V[uint32], id uint32) (alreadySet bool) {
	for v.Len() <= int(id) {
		v.Grow(1)
	}
	alreadySet = v.IsSet(int(id))
	v.Set(int(id))
	return
}

func isSeen(v *bitvec.V[uint32], id uint32) bool {
	if int(id) >= v.Len() {
		return false
	}
	return v.IsSet(int(id))
}
