// Package pof decodes the chunked legacy binary ship-model container
// (magic "PSPO") into a model.Model.
package pof

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"pofload/internal/bitm"
	"pofload/internal/bitvec"
	"pofload/internal/cursor"
	"pofload/model"
)

var magic = [4]byte{'P', 'S', 'P', 'O'}

// Chunk ids recognized by the top-level loop.
var (
	idHDR2 = [4]byte{'H', 'D', 'R', '2'}
	idOBJ2 = [4]byte{'O', 'B', 'J', '2'}
	idTXTR = [4]byte{'T', 'X', 'T', 'R'}
	idPATH = [4]byte{'P', 'A', 'T', 'H'}
	idSPCL = [4]byte{'S', 'P', 'C', 'L'}
	idEYE  = [4]byte{'E', 'Y', 'E', ' '}
	idGPNT = [4]byte{'G', 'P', 'N', 'T'}
	idMPNT = [4]byte{'M', 'P', 'N', 'T'}
	idTGUN = [4]byte{'T', 'G', 'U', 'N'}
	idTMIS = [4]byte{'T', 'M', 'I', 'S'}
	idFUEL = [4]byte{'F', 'U', 'E', 'L'}
	idGLOW = [4]byte{'G', 'L', 'O', 'W'}
	idACEN = [4]byte{'A', 'C', 'E', 'N'}
	idDOCK = [4]byte{'D', 'O', 'C', 'K'}
	idINSG = [4]byte{'I', 'N', 'S', 'G'}
	idSHLD = [4]byte{'S', 'H', 'L', 'D'}
	idSLDC = [4]byte{'S', 'L', 'D', 'C'}
	idSLC2 = [4]byte{'S', 'L', 'C', '2'}
	idPINF = [4]byte{'P', 'I', 'N', 'F'}
)

// parseState accumulates chunk contents across the chunk loop, to be
// assembled into a Model by finish after the loop and post-pass.
type parseState struct {
	version model.Version

	sawHeader bool
	header    model.ObjHeader
	debris    bitm.Bitm[uint32]

	subObjects []model.SubObject
	seenObj    bitvec.V[uint32]

	textures      []string
	paths         []model.Path
	specialPoints []model.SpecialPoint
	eyePoints     []model.EyePoint
	primaryWeps   [][]model.WeaponHardpoint
	secondaryWeps [][]model.WeaponHardpoint
	turrets       []model.Turret
	thrusterBanks []model.ThrusterBank
	glowBanks     []model.GlowBank
	autoCenter    model.Vec3d
	comments      string
	dockingBays   []model.DockingBay
	insignias     []model.Insignia

	sawShield     bool
	shieldVerts   []model.Vec3d
	shieldPolys   []model.ShieldPolygon
	sawShieldTree bool
	shieldTreeBuf []byte
}

func (ps *parseState) setSubObject(id model.ObjectId, so model.SubObject) error {
	if markSeen(&ps.seenObj, uint32(id)) {
		return malformed(fmt.Sprintf("pof: duplicate OBJ2 object id %d", id))
	}
	idx := int(id)
	if idx >= len(ps.subObjects) {
		grown := make([]model.SubObject, idx+1)
		copy(grown, ps.subObjects)
		ps.subObjects = grown
	}
	ps.subObjects[idx] = so
	return nil
}

func (ps *parseState) finish() (*model.Model, error) {
	if !ps.sawHeader {
		return nil, model.NewParseError(model.ErrMissingHeader, "no HDR2 chunk seen", nil)
	}
	for i := 0; i < int(ps.header.NumSubobjects); i++ {
		if !isSeen(&ps.seenObj, uint32(i)) {
			return nil, malformed(fmt.Sprintf("pof: missing OBJ2 chunk for declared subobject id %d", i))
		}
	}

	var shieldData *model.ShieldData
	switch {
	case ps.sawShield:
		shieldData = &model.ShieldData{Verts: ps.shieldVerts, Polygons: ps.shieldPolys}
		if ps.sawShieldTree {
			tree, err := decodeShieldTree(ps.shieldTreeBuf, ps.version)
			if err != nil {
				return nil, err
			}
			shieldData.CollisionTree = tree
		}
	case ps.sawShieldTree:
		return nil, malformed("pof: shield-tree chunk present without SHLD")
	}

	for i := range ps.subObjects {
		so := &ps.subObjects[i]
		if so.Parent == nil {
			continue
		}
		p := int(*so.Parent)
		if p < 0 || p >= len(ps.subObjects) {
			return nil, malformed(fmt.Sprintf("pof: subobject %d has out-of-range parent %d", so.ObjID, p))
		}
		ps.subObjects[p].Children = append(ps.subObjects[p].Children, so.ObjID)
	}

	for id := range ps.subObjects {
		if isMarked(&ps.debris, uint32(id)) {
			ps.subObjects[id].IsDebrisModel = true
		}
	}

	return &model.Model{
		Header:        ps.header,
		SubObjects:    ps.subObjects,
		Textures:      ps.textures,
		Paths:         ps.paths,
		SpecialPoints: ps.specialPoints,
		EyePoints:     ps.eyePoints,
		PrimaryWeps:   ps.primaryWeps,
		SecondaryWeps: ps.secondaryWeps,
		Turrets:       ps.turrets,
		ThrusterBanks: ps.thrusterBanks,
		GlowBanks:     ps.glowBanks,
		AutoCenter:    ps.autoCenter,
		Comments:      ps.comments,
		DockingBays:   ps.dockingBays,
		Insignias:     ps.insignias,
		ShieldData:    shieldData,
	}, nil
}

type chunkHandler func(ps *parseState, c *cursor.Stream, length int32) error

var chunkHandlers = map[[4]byte]chunkHandler{
	idHDR2: handleHDR2,
	idOBJ2: handleOBJ2,
	idTXTR: handleTXTR,
	idPATH: handlePATH,
	idSPCL: handleSPCL,
	idEYE:  handleEYE,
	idGPNT: handleGPNT,
	idMPNT: handleMPNT,
	idTGUN: handleTurrets,
	idTMIS: handleTurrets,
	idFUEL: handleFUEL,
	idGLOW: handleGLOW,
	idACEN: handleACEN,
	idDOCK: handleDOCK,
	idINSG: handleINSG,
	idSHLD: handleSHLD,
	idSLDC: handleSLDC,
	idSLC2: handleSLC2,
	idPINF: handlePINF,
}

// Parse decodes a POF byte stream into a Model, discarding unknown-chunk
// diagnostics.
func Parse(r io.Reader) (*model.Model, error) {
	return ParseWithLogger(r, nil)
}

// ParseWithLogger decodes a POF byte stream into a Model, reporting
// unrecognized top-level chunks to logger. A nil logger discards them.
func ParseWithLogger(r io.Reader, logger Logger) (*model.Model, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	c := cursor.NewStream(r)

	gotMagic, err := c.ReadBytes(4)
	if err != nil {
		return nil, ioErr("magic", err)
	}
	if !bytes.Equal(gotMagic, magic[:]) {
		return nil, model.NewParseError(model.ErrInvalidMagic, fmt.Sprintf("got %q", gotMagic), nil)
	}
	versionRaw, err := c.ReadI32()
	if err != nil {
		return nil, ioErr("version", err)
	}
	version := model.Version(versionRaw)
	if !version.Known() {
		return nil, model.NewParseError(model.ErrUnknownVersion, fmt.Sprintf("version code %d", versionRaw), nil)
	}

	ps := &parseState{version: version}

	for {
		id, err := c.ReadID()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, ioErr("chunk id", err)
		}
		length, err := c.ReadI32()
		if err != nil {
			return nil, ioErr(fmt.Sprintf("length of chunk %q", id), err)
		}
		handler, ok := chunkHandlers[id]
		if !ok {
			logger.Printf("pof: skipping unknown chunk %q (%d bytes)", id, length)
			if err := c.Skip(int64(length)); err != nil {
				return nil, ioErr(fmt.Sprintf("skipping unknown chunk %q", id), err)
			}
			continue
		}
		if err := handler(ps, c, length); err != nil {
			return nil, err
		}
	}

	return ps.finish()
}

func readObjectIdList(c *cursor.Stream) ([]model.ObjectId, error) {
	return cursor.ReadListU32(c.ReadU32, func() (model.ObjectId, error) {
		v, err := c.ReadU32()
		return model.ObjectId(v), err
	})
}

func readVec3dList(c *cursor.Stream) ([]model.Vec3d, error) {
	return cursor.ReadListU32(c.ReadU32, func() (model.Vec3d, error) {
		v, err := c.ReadVec3()
		return model.Vec3d(v), err
	})
}

func handleHDR2(ps *parseState, c *cursor.Stream, _ int32) error {
	maxRadius, err := c.ReadF32()
	if err != nil {
		return ioErr("HDR2 max_radius", err)
	}
	objFlags, err := c.ReadU32()
	if err != nil {
		return ioErr("HDR2 obj_flags", err)
	}
	numSub, err := c.ReadU32()
	if err != nil {
		return ioErr("HDR2 num_subobjects", err)
	}
	bbox, err := readBBox(c)
	if err != nil {
		return ioErr("HDR2 bounding_box", err)
	}
	detailLevels, err := readObjectIdList(c)
	if err != nil {
		return ioErr("HDR2 detail_levels", err)
	}
	debrisList, err := readObjectIdList(c)
	if err != nil {
		return ioErr("HDR2 debris list", err)
	}
	mass, err := c.ReadF32()
	if err != nil {
		return ioErr("HDR2 mass", err)
	}
	centerOfMass, err := c.ReadVec3()
	if err != nil {
		return ioErr("HDR2 center_of_mass", err)
	}
	rvec, err := c.ReadVec3()
	if err != nil {
		return ioErr("HDR2 moment_of_inertia.rvec", err)
	}
	uvec, err := c.ReadVec3()
	if err != nil {
		return ioErr("HDR2 moment_of_inertia.uvec", err)
	}
	fvec, err := c.ReadVec3()
	if err != nil {
		return ioErr("HDR2 moment_of_inertia.fvec", err)
	}
	crossCount, err := c.ReadU32()
	if err != nil {
		return ioErr("HDR2 cross-section count", err)
	}
	if crossCount == 0xFFFFFFFF {
		crossCount = 0
	}
	crossSections, err := cursor.ReadListN(int(crossCount), func() (model.CrossSection, error) {
		depth, err := c.ReadF32()
		if err != nil {
			return model.CrossSection{}, err
		}
		radius, err := c.ReadF32()
		return model.CrossSection{Depth: depth, Radius: radius}, err
	})
	if err != nil {
		return ioErr("HDR2 cross_sections", err)
	}
	bspLights, err := cursor.ReadListU32(c.ReadU32, func() (model.BspLight, error) {
		loc, err := c.ReadVec3()
		if err != nil {
			return model.BspLight{}, err
		}
		kind, err := c.ReadU32()
		if err != nil {
			return model.BspLight{}, err
		}
		if kind != uint32(model.LightMuzzle) && kind != uint32(model.LightThruster) {
			return model.BspLight{}, malformed(fmt.Sprintf("HDR2 bsp_light kind %d out of range", kind))
		}
		return model.BspLight{Location: model.Vec3d(loc), Kind: model.BspLightKind(kind)}, nil
	})
	if err != nil {
		var pe *model.ParseError
		if errors.As(err, &pe) {
			return err
		}
		return ioErr("HDR2 bsp_lights", err)
	}

	ps.header = model.ObjHeader{
		MaxRadius:       maxRadius,
		ObjFlags:        objFlags,
		NumSubobjects:   numSub,
		BoundingBox:     bbox,
		DetailLevels:    detailLevels,
		Mass:            mass,
		CenterOfMass:    model.Vec3d(centerOfMass),
		MomentOfInertia: model.Mat3d{Rvec: model.Vec3d(rvec), Uvec: model.Vec3d(uvec), Fvec: model.Vec3d(fvec)},
		CrossSections:   crossSections,
		BspLights:       bspLights,
	}
	ps.sawHeader = true
	for _, id := range debrisList {
		markID(&ps.debris, uint32(id))
	}
	return nil
}

func handleOBJ2(ps *parseState, c *cursor.Stream, _ int32) error {
	objID, err := c.ReadU32()
	if err != nil {
		return ioErr("OBJ2 obj_id", err)
	}
	radius, err := c.ReadF32()
	if err != nil {
		return ioErr("OBJ2 radius", err)
	}
	parentRaw, err := c.ReadU32()
	if err != nil {
		return ioErr("OBJ2 parent", err)
	}
	offset, err := c.ReadVec3()
	if err != nil {
		return ioErr("OBJ2 offset", err)
	}
	geoCenter, err := c.ReadVec3()
	if err != nil {
		return ioErr("OBJ2 geo_center", err)
	}
	bbox, err := readBBox(c)
	if err != nil {
		return ioErr("OBJ2 bbox", err)
	}
	name, err := c.ReadString()
	if err != nil {
		return ioErr("OBJ2 name", err)
	}
	properties, err := c.ReadString()
	if err != nil {
		return ioErr("OBJ2 properties", err)
	}
	movementTypeRaw, err := c.ReadI32()
	if err != nil {
		return ioErr("OBJ2 movement_type", err)
	}
	movementAxisRaw, err := c.ReadI32()
	if err != nil {
		return ioErr("OBJ2 movement_axis", err)
	}
	if _, err := c.ReadI32(); err != nil { // unknown, see DESIGN NOTES
		return ioErr("OBJ2 reserved field", err)
	}
	bspBuf, err := c.ReadByteBuffer()
	if err != nil {
		return ioErr("OBJ2 bsp buffer", err)
	}
	bspData, err := decodeBsp(bspBuf)
	if err != nil {
		return err
	}

	movementType := model.SubsysMovementType(movementTypeRaw)
	if movementType < model.MovementNone || movementType > model.MovementIntrinsicRotate {
		return malformed(fmt.Sprintf("OBJ2 movement_type %d out of range", movementTypeRaw))
	}
	movementAxis := model.SubsysMovementAxis(movementAxisRaw)
	if movementAxis < model.AxisNone || movementAxis > model.AxisOther {
		return malformed(fmt.Sprintf("OBJ2 movement_axis %d out of range", movementAxisRaw))
	}

	var parent *model.ObjectId
	if parentRaw != 0xFFFFFFFF {
		p := model.ObjectId(parentRaw)
		parent = &p
	}

	so := model.SubObject{
		ObjID:        model.ObjectId(objID),
		Radius:       radius,
		Parent:       parent,
		Offset:       model.Vec3d(offset),
		GeoCenter:    model.Vec3d(geoCenter),
		BBox:         bbox,
		Name:         name,
		Properties:   properties,
		MovementType: movementType,
		MovementAxis: movementAxis,
		BspData:      *bspData,
	}
	return ps.setSubObject(model.ObjectId(objID), so)
}

func handleTXTR(ps *parseState, c *cursor.Stream, _ int32) error {
	textures, err := cursor.ReadListU32(c.ReadU32, c.ReadString)
	if err != nil {
		return ioErr("TXTR", err)
	}
	ps.textures = textures
	return nil
}

func handlePATH(ps *parseState, c *cursor.Stream, _ int32) error {
	paths, err := cursor.ReadListU32(c.ReadU32, func() (model.Path, error) {
		name, err := c.ReadString()
		if err != nil {
			return model.Path{}, err
		}
		parent, err := c.ReadString()
		if err != nil {
			return model.Path{}, err
		}
		verts, err := cursor.ReadListU32(c.ReadU32, func() (model.PathVertex, error) {
			pos, err := c.ReadVec3()
			if err != nil {
				return model.PathVertex{}, err
			}
			radius, err := c.ReadF32()
			if err != nil {
				return model.PathVertex{}, err
			}
			turrets, err := readObjectIdList(c)
			return model.PathVertex{Position: model.Vec3d(pos), Radius: radius, Turrets: turrets}, err
		})
		return model.Path{Name: name, Parent: parent, Verts: verts}, err
	})
	if err != nil {
		return ioErr("PATH", err)
	}
	ps.paths = paths
	return nil
}

func handleSPCL(ps *parseState, c *cursor.Stream, _ int32) error {
	points, err := cursor.ReadListU32(c.ReadU32, func() (model.SpecialPoint, error) {
		name, err := c.ReadString()
		if err != nil {
			return model.SpecialPoint{}, err
		}
		properties, err := c.ReadString()
		if err != nil {
			return model.SpecialPoint{}, err
		}
		position, err := c.ReadVec3()
		if err != nil {
			return model.SpecialPoint{}, err
		}
		radius, err := c.ReadF32()
		return model.SpecialPoint{Name: name, Properties: properties, Position: model.Vec3d(position), Radius: radius}, err
	})
	if err != nil {
		return ioErr("SPCL", err)
	}
	ps.specialPoints = points
	return nil
}

func handleEYE(ps *parseState, c *cursor.Stream, _ int32) error {
	points, err := cursor.ReadListU32(c.ReadU32, func() (model.EyePoint, error) {
		subobj, err := c.ReadU32()
		if err != nil {
			return model.EyePoint{}, err
		}
		offset, err := c.ReadVec3()
		if err != nil {
			return model.EyePoint{}, err
		}
		normal, err := c.ReadVec3()
		return model.EyePoint{AttachedSubobj: model.ObjectId(subobj), Offset: model.Vec3d(offset), Normal: model.Vec3d(normal)}, err
	})
	if err != nil {
		return ioErr("EYE ", err)
	}
	ps.eyePoints = points
	return nil
}

func readWeaponBanks(ps *parseState, c *cursor.Stream) ([][]model.WeaponHardpoint, error) {
	return cursor.ReadListU32(c.ReadU32, func() ([]model.WeaponHardpoint, error) {
		return cursor.ReadListU32(c.ReadU32, func() (model.WeaponHardpoint, error) {
			position, err := c.ReadVec3()
			if err != nil {
				return model.WeaponHardpoint{}, err
			}
			normal, err := c.ReadVec3()
			if err != nil {
				return model.WeaponHardpoint{}, err
			}
			var offset float32
			if ps.version >= model.V22_01 {
				offset, err = c.ReadF32()
				if err != nil {
					return model.WeaponHardpoint{}, err
				}
			}
			return model.WeaponHardpoint{Position: model.Vec3d(position), Normal: model.Vec3d(normal), Offset: offset}, nil
		})
	})
}

func handleGPNT(ps *parseState, c *cursor.Stream, _ int32) error {
	banks, err := readWeaponBanks(ps, c)
	if err != nil {
		return ioErr("GPNT", err)
	}
	ps.primaryWeps = banks
	return nil
}

func handleMPNT(ps *parseState, c *cursor.Stream, _ int32) error {
	banks, err := readWeaponBanks(ps, c)
	if err != nil {
		return ioErr("MPNT", err)
	}
	ps.secondaryWeps = banks
	return nil
}

func handleTurrets(ps *parseState, c *cursor.Stream, _ int32) error {
	turrets, err := cursor.ReadListU32(c.ReadU32, func() (model.Turret, error) {
		baseObj, err := c.ReadU32()
		if err != nil {
			return model.Turret{}, err
		}
		gunObj, err := c.ReadU32()
		if err != nil {
			return model.Turret{}, err
		}
		normal, err := c.ReadVec3()
		if err != nil {
			return model.Turret{}, err
		}
		firePoints, err := readVec3dList(c)
		return model.Turret{
			BaseObj:    model.ObjectId(baseObj),
			GunObj:     model.ObjectId(gunObj),
			Normal:     model.Vec3d(normal),
			FirePoints: firePoints,
		}, err
	})
	if err != nil {
		return ioErr("TGUN/TMIS", err)
	}
	ps.turrets = append(ps.turrets, turrets...)
	return nil
}

func handleFUEL(ps *parseState, c *cursor.Stream, _ int32) error {
	banks, err := cursor.ReadListU32(c.ReadU32, func() (model.ThrusterBank, error) {
		numGlows, err := c.ReadU32()
		if err != nil {
			return model.ThrusterBank{}, err
		}
		var properties string
		if ps.version >= model.V21_17 {
			properties, err = c.ReadString()
			if err != nil {
				return model.ThrusterBank{}, err
			}
		}
		glows, err := cursor.ReadListN(int(numGlows), func() (model.ThrusterGlow, error) {
			position, err := c.ReadVec3()
			if err != nil {
				return model.ThrusterGlow{}, err
			}
			normal, err := c.ReadVec3()
			if err != nil {
				return model.ThrusterGlow{}, err
			}
			radius, err := c.ReadF32()
			return model.ThrusterGlow{Position: model.Vec3d(position), Normal: model.Vec3d(normal), Radius: radius}, err
		})
		return model.ThrusterBank{Properties: properties, Glows: glows}, err
	})
	if err != nil {
		return ioErr("FUEL", err)
	}
	ps.thrusterBanks = banks
	return nil
}

func handleGLOW(ps *parseState, c *cursor.Stream, _ int32) error {
	banks, err := cursor.ReadListU32(c.ReadU32, func() (model.GlowBank, error) {
		dispTime, err := c.ReadI32()
		if err != nil {
			return model.GlowBank{}, err
		}
		onTime, err := c.ReadU32()
		if err != nil {
			return model.GlowBank{}, err
		}
		offTime, err := c.ReadU32()
		if err != nil {
			return model.GlowBank{}, err
		}
		objParent, err := c.ReadU32()
		if err != nil {
			return model.GlowBank{}, err
		}
		lod, err := c.ReadU32()
		if err != nil {
			return model.GlowBank{}, err
		}
		glowType, err := c.ReadU32()
		if err != nil {
			return model.GlowBank{}, err
		}
		numPoints, err := c.ReadU32()
		if err != nil {
			return model.GlowBank{}, err
		}
		properties, err := c.ReadString()
		if err != nil {
			return model.GlowBank{}, err
		}
		points, err := cursor.ReadListN(int(numPoints), func() (model.GlowPoint, error) {
			position, err := c.ReadVec3()
			if err != nil {
				return model.GlowPoint{}, err
			}
			normal, err := c.ReadVec3()
			if err != nil {
				return model.GlowPoint{}, err
			}
			radius, err := c.ReadF32()
			return model.GlowPoint{Position: model.Vec3d(position), Normal: model.Vec3d(normal), Radius: radius}, err
		})
		return model.GlowBank{
			DispTime:   dispTime,
			OnTime:     onTime,
			OffTime:    offTime,
			ObjParent:  model.ObjectId(objParent),
			LOD:        lod,
			GlowType:   glowType,
			Properties: properties,
			GlowPoints: points,
		}, err
	})
	if err != nil {
		return ioErr("GLOW", err)
	}
	ps.glowBanks = banks
	return nil
}

func handleACEN(ps *parseState, c *cursor.Stream, _ int32) error {
	v, err := c.ReadVec3()
	if err != nil {
		return ioErr("ACEN", err)
	}
	ps.autoCenter = model.Vec3d(v)
	return nil
}

func handleDOCK(ps *parseState, c *cursor.Stream, _ int32) error {
	bays, err := cursor.ReadListU32(c.ReadU32, func() (model.DockingBay, error) {
		properties, err := c.ReadString()
		if err != nil {
			return model.DockingBay{}, err
		}
		pathIDs, err := cursor.ReadListU32(c.ReadU32, c.ReadU32)
		if err != nil {
			return model.DockingBay{}, err
		}
		var path *model.PathId
		if len(pathIDs) > 0 {
			p := model.PathId(pathIDs[0])
			path = &p
		}
		points, err := cursor.ReadListU32(c.ReadU32, func() (model.DockPoint, error) {
			position, err := c.ReadVec3()
			if err != nil {
				return model.DockPoint{}, err
			}
			normal, err := c.ReadVec3()
			return model.DockPoint{Position: model.Vec3d(position), Normal: model.Vec3d(normal)}, err
		})
		if err != nil {
			return model.DockingBay{}, err
		}
		if len(points) >= 3 {
			return model.DockingBay{}, malformed(fmt.Sprintf("DOCK: %d points, want fewer than 3", len(points)))
		}
		return model.DockingBay{Properties: properties, Path: path, Points: points}, nil
	})
	if err != nil {
		var pe *model.ParseError
		if errors.As(err, &pe) {
			return err
		}
		return ioErr("DOCK", err)
	}
	ps.dockingBays = bays
	return nil
}

func handleINSG(ps *parseState, c *cursor.Stream, _ int32) error {
	insignias, err := cursor.ReadListU32(c.ReadU32, func() (model.Insignia, error) {
		detailLevel, err := c.ReadU32()
		if err != nil {
			return model.Insignia{}, err
		}
		numFaces, err := c.ReadU32()
		if err != nil {
			return model.Insignia{}, err
		}
		vertices, err := readVec3dList(c)
		if err != nil {
			return model.Insignia{}, err
		}
		offset, err := c.ReadVec3()
		if err != nil {
			return model.Insignia{}, err
		}
		faces, err := cursor.ReadListN(int(numFaces), func() ([3]model.InsigVertex, error) {
			return cursor.ReadArray3(func() (model.InsigVertex, error) {
				vid, err := c.ReadU32()
				if err != nil {
					return model.InsigVertex{}, err
				}
				u, err := c.ReadF32()
				if err != nil {
					return model.InsigVertex{}, err
				}
				v, err := c.ReadF32()
				return model.InsigVertex{VertexID: model.VertexId(vid), UV: [2]float32{u, v}}, err
			})
		})
		return model.Insignia{DetailLevel: detailLevel, Vertices: vertices, Offset: model.Vec3d(offset), Faces: faces}, err
	})
	if err != nil {
		return ioErr("INSG", err)
	}
	ps.insignias = insignias
	return nil
}

func handleSHLD(ps *parseState, c *cursor.Stream, _ int32) error {
	verts, err := readVec3dList(c)
	if err != nil {
		return ioErr("SHLD verts", err)
	}
	polys, err := cursor.ReadListU32(c.ReadU32, func() (model.ShieldPolygon, error) {
		normal, err := c.ReadVec3()
		if err != nil {
			return model.ShieldPolygon{}, err
		}
		v1, err := c.ReadU32()
		if err != nil {
			return model.ShieldPolygon{}, err
		}
		v2, err := c.ReadU32()
		if err != nil {
			return model.ShieldPolygon{}, err
		}
		v3, err := c.ReadU32()
		if err != nil {
			return model.ShieldPolygon{}, err
		}
		n1, err := c.ReadU32()
		if err != nil {
			return model.ShieldPolygon{}, err
		}
		n2, err := c.ReadU32()
		if err != nil {
			return model.ShieldPolygon{}, err
		}
		n3, err := c.ReadU32()
		return model.ShieldPolygon{
			Normal:    model.Vec3d(normal),
			Verts:     [3]model.VertexId{model.VertexId(v1), model.VertexId(v2), model.VertexId(v3)},
			Neighbors: [3]model.PolygonId{model.PolygonId(n1), model.PolygonId(n2), model.PolygonId(n3)},
		}, err
	})
	if err != nil {
		return ioErr("SHLD polygons", err)
	}
	ps.sawShield = true
	ps.shieldVerts = verts
	ps.shieldPolys = polys
	return nil
}

func handleSLDC(ps *parseState, c *cursor.Stream, _ int32) error {
	buf, err := c.ReadByteBuffer()
	if err != nil {
		return ioErr("SLDC", err)
	}
	ps.sawShieldTree = true
	ps.shieldTreeBuf = buf
	return nil
}

func handleSLC2(ps *parseState, c *cursor.Stream, _ int32) error {
	if ps.version < model.V22_00 {
		return malformed(fmt.Sprintf("SLC2 requires version >= %d, have %d", model.V22_00, ps.version))
	}
	buf, err := c.ReadByteBuffer()
	if err != nil {
		return ioErr("SLC2", err)
	}
	ps.sawShieldTree = true
	ps.shieldTreeBuf = buf
	return nil
}

func handlePINF(ps *parseState, c *cursor.Stream, length int32) error {
	raw, err := c.ReadBytes(int(length))
	if err != nil {
		return ioErr("PINF", err)
	}
	s, err := cursor.TrimCString(raw)
	if err != nil {
		return model.NewParseError(model.ErrMalformedChunk, "PINF", err)
	}
	ps.comments = s
	return nil
}
