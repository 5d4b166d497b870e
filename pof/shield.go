package pof

import (
	"fmt"

	"pofload/internal/cursor"
	"pofload/model"
)

const (
	shieldSplit = 0
	shieldLeaf  = 1
)

// decodeShieldTree decodes the payload of an SLDC or SLC2 chunk. The
// node tag is one byte for version <= V21_17 and four bytes otherwise;
// SLC2's own version gate is enforced by the caller.
func decodeShieldTree(buf []byte, version model.Version) (model.ShieldNode, error) {
	return decodeShieldNode(buf, version)
}

func decodeShieldNode(buf []byte, version model.Version) (model.ShieldNode, error) {
	c := cursor.NewSlice(buf)
	var tag uint32
	if version <= model.V21_17 {
		b, err := c.ReadU8()
		if err != nil {
			return nil, ioErr("shield node tag", err)
		}
		tag = uint32(b)
	} else {
		u, err := c.ReadU32()
		if err != nil {
			return nil, ioErr("shield node tag", err)
		}
		tag = u
	}
	if _, err := c.ReadU32(); err != nil { // chunk size, unused: child offsets are node-relative
		return nil, ioErr("shield node chunk size", err)
	}
	switch tag {
	case shieldSplit:
		bbox, err := readBBox(c)
		if err != nil {
			return nil, ioErr("shield SPLIT bbox", err)
		}
		frontOff, err := c.ReadU32()
		if err != nil {
			return nil, ioErr("shield SPLIT front offset", err)
		}
		backOff, err := c.ReadU32()
		if err != nil {
			return nil, ioErr("shield SPLIT back offset", err)
		}
		if frontOff == 0 || backOff == 0 {
			return nil, malformed("shield: SPLIT child offset is zero")
		}
		if int(frontOff) >= len(buf) || int(backOff) >= len(buf) {
			return nil, malformed("shield: SPLIT child offset out of range")
		}
		front, err := decodeShieldNode(buf[frontOff:], version)
		if err != nil {
			return nil, err
		}
		back, err := decodeShieldNode(buf[backOff:], version)
		if err != nil {
			return nil, err
		}
		return &model.ShieldSplit{BBox: bbox, Front: front, Back: back}, nil
	case shieldLeaf:
		bbox, err := readBBox(c)
		if err != nil {
			return nil, ioErr("shield LEAF bbox", err)
		}
		count, err := c.ReadU32()
		if err != nil {
			return nil, ioErr("shield LEAF count", err)
		}
		ids := make([]model.PolygonId, count)
		for i := range ids {
			v, err := c.ReadU32()
			if err != nil {
				return nil, ioErr("shield LEAF polygon id", err)
			}
			ids[i] = model.PolygonId(v)
		}
		return &model.ShieldLeaf{BBox: &bbox, Polygons: ids}, nil
	default:
		return nil, malformed(fmt.Sprintf("shield: unexpected node tag %d", tag))
	}
}
