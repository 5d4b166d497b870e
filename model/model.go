// Package model defines the in-memory ship-model representation shared
// by the pof and dae importers. Every entity here is constructed by one
// of those two packages and returned by value inside a Model; nothing in
// this package mutates a Model after construction.
package model

import "pofload/linear"

// Vec3d is a three-component float32 vector. It is the teacher's own
// linear.V3 under a domain-facing name, since the format's vertices,
// normals, centers, and offsets are exactly the vectors linear.V3
// already implements Add/Sub/Cross/Norm for.
type Vec3d = linear.V3

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min, Max Vec3d
}

// Mat3d holds the three row vectors of a 3x3 matrix, as used for the
// header's moment of inertia. Unlike linear.M3 (column-major, used
// for general transform composition) this keeps the wire's row-major
// naming (Rvec/Uvec/Fvec) since nothing in the format multiplies it.
type Mat3d struct {
	Rvec, Uvec, Fvec Vec3d
}

// Color is an 8-bit-per-channel flat polygon color.
type Color struct {
	R, G, B uint8
}

// Texturing is the sum of a texture reference and a flat color. Polygon
// and Insignia faces carry one of the two concrete types below.
type Texturing interface {
	isTexturing()
}

// TextureRef selects one of Model.Textures by index.
type TextureRef struct {
	ID TextureId
}

func (TextureRef) isTexturing() {}

// FlatColor paints a polygon a solid color instead of sampling a texture.
type FlatColor struct {
	Color Color
}

func (FlatColor) isTexturing() {}

// ObjectId identifies a SubObject. It indexes Model.SubObjects directly.
type ObjectId uint32

// TextureId indexes Model.Textures.
type TextureId uint32

// PathId indexes Model.Paths.
type PathId uint32

// VertexId indexes BspData.Verts (or, for insignias, Insignia.Vertices).
type VertexId uint16

// NormalId indexes BspData.Norms.
type NormalId uint16

// PolygonId indexes ShieldData.Polygons.
type PolygonId uint32

// PolyVertex is one corner of a textured Polygon.
type PolyVertex struct {
	VertexID VertexId
	NormalID NormalId
	UV       [2]float32
}

// InsigVertex is one corner of an insignia face. Insignias have no
// per-vertex normal.
type InsigVertex struct {
	VertexID VertexId
	UV       [2]float32
}

// Polygon is a convex face of three or more vertices.
type Polygon struct {
	Normal  Vec3d
	Center  Vec3d
	Radius  float32
	Texture Texturing
	Verts   []PolyVertex
}

// BspNode is the sum of BspSplit and BspLeaf.
type BspNode interface {
	isBspNode()
}

// BspSplit divides space with a plane through Point, normal to Normal.
type BspSplit struct {
	Normal, Point Vec3d
	Front, Back   BspNode
	BBox          BBox
}

func (*BspSplit) isBspNode() {}

// BspLeaf terminates a branch with zero or more polygons.
type BspLeaf struct {
	BBox     BBox
	Polygons []Polygon
}

func (*BspLeaf) isBspNode() {}

// BspData is a subobject's collision/render geometry: a shared
// vertex/normal pool plus the BSP tree of polygons referencing it.
type BspData struct {
	Verts         []Vec3d
	Norms         []Vec3d
	CollisionTree BspNode
}

// ShieldPolygon is one triangular face of the shield mesh.
type ShieldPolygon struct {
	Normal    Vec3d
	Verts     [3]VertexId
	Neighbors [3]PolygonId
}

// ShieldNode is the sum of ShieldSplit and ShieldLeaf.
type ShieldNode interface {
	isShieldNode()
}

// ShieldSplit divides the shield polygon set in two.
type ShieldSplit struct {
	BBox        BBox
	Front, Back ShieldNode
}

func (*ShieldSplit) isShieldNode() {}

// ShieldLeaf lists the ShieldPolygon ids in one collision cell. BBox is
// nil when the wire omitted it (never true for the POF encodings in
// this package, which always write it, but kept optional per the
// domain model's own invariant wording).
type ShieldLeaf struct {
	BBox     *BBox
	Polygons []PolygonId
}

func (*ShieldLeaf) isShieldNode() {}

// ShieldData is the shield mesh plus its collision tree.
type ShieldData struct {
	Verts         []Vec3d
	Polygons      []ShieldPolygon
	CollisionTree ShieldNode
}

// SubsysMovementType is a subobject's articulation kind.
type SubsysMovementType int32

const (
	MovementNone            SubsysMovementType = -1
	MovementPos             SubsysMovementType = 0
	MovementRot             SubsysMovementType = 1
	MovementRotSpecial      SubsysMovementType = 2
	MovementTriggered       SubsysMovementType = 3
	MovementIntrinsicRotate SubsysMovementType = 4
)

// SubsysMovementAxis is the articulation axis. Note that ZAxis and YAxis
// are swapped relative to their wire codes' natural order (1 -> Z,
// 2 -> Y) — this must be reproduced exactly, see DESIGN NOTES.
type SubsysMovementAxis int32

const (
	AxisNone  SubsysMovementAxis = -1
	AxisX     SubsysMovementAxis = 0
	AxisZ     SubsysMovementAxis = 1
	AxisY     SubsysMovementAxis = 2
	AxisOther SubsysMovementAxis = 3
)

// SubObject is one rigid mesh part of the ship, linked into a hierarchy
// through Parent/Children.
type SubObject struct {
	ObjID         ObjectId
	Radius        float32
	Parent        *ObjectId
	Offset        Vec3d
	GeoCenter     Vec3d
	BBox          BBox
	Name          string
	Properties    string
	MovementType  SubsysMovementType
	MovementAxis  SubsysMovementAxis
	BspData       BspData
	Children      []ObjectId
	IsDebrisModel bool
}

// BspLightKind distinguishes the two kinds of BSP light markers carried
// in a header.
type BspLightKind uint32

const (
	LightMuzzle   BspLightKind = 1
	LightThruster BspLightKind = 2
)

// BspLight is a fixed light-emission point recorded in the header.
type BspLight struct {
	Location Vec3d
	Kind     BspLightKind
}

// CrossSection is one (depth, radius) sample of the hull's silhouette,
// used by damage/critical-hit systems downstream.
type CrossSection struct {
	Depth  float32
	Radius float32
}

// ObjHeader carries the model-wide bounding, mass, and LOD metadata.
type ObjHeader struct {
	MaxRadius       float32
	ObjFlags        uint32
	NumSubobjects   uint32
	BoundingBox     BBox
	DetailLevels    []ObjectId
	Mass            float32
	CenterOfMass    Vec3d
	MomentOfInertia Mat3d
	CrossSections   []CrossSection
	BspLights       []BspLight
}

// WeaponHardpoint is a mount point for a primary or secondary weapon.
type WeaponHardpoint struct {
	Position Vec3d
	Normal   Vec3d
	Offset   float32
}

// Turret is a base/gun subobject pair plus its fire points.
type Turret struct {
	BaseObj    ObjectId
	GunObj     ObjectId
	Normal     Vec3d
	FirePoints []Vec3d
}

// ThrusterGlow is one glow point in a ThrusterBank.
type ThrusterGlow struct {
	Position Vec3d
	Normal   Vec3d
	Radius   float32
}

// ThrusterBank groups the glow points that fire together.
type ThrusterBank struct {
	Properties string
	Glows      []ThrusterGlow
}

// GlowPoint is one light in a GlowBank.
type GlowPoint struct {
	Position Vec3d
	Normal   Vec3d
	Radius   float32
}

// GlowBank is a timed group of glow points (running lights, engine
// glow animation, etc.) attached to a subobject.
type GlowBank struct {
	DispTime   int32
	OnTime     uint32
	OffTime    uint32
	ObjParent  ObjectId
	LOD        uint32
	GlowType   uint32
	Properties string
	GlowPoints []GlowPoint
}

// PathVertex is one waypoint of a Path.
type PathVertex struct {
	Position Vec3d
	Radius   float32
	Turrets  []ObjectId
}

// Path is a named AI navigation spline, optionally associated with a
// parent subobject by name.
type Path struct {
	Name   string
	Parent string
	Verts  []PathVertex
}

// SpecialPoint is a named auxiliary marker (e.g. a camera anchor).
type SpecialPoint struct {
	Name       string
	Properties string
	Position   Vec3d
	Radius     float32
}

// EyePoint is a cockpit/camera viewpoint attached to a subobject.
type EyePoint struct {
	AttachedSubobj ObjectId
	Offset         Vec3d
	Normal         Vec3d
}

// DockPoint is one anchor of a DockingBay (at most two are meaningful).
type DockPoint struct {
	Position Vec3d
	Normal   Vec3d
}

// DockingBay is a docking point set, optionally tied to a Path.
type DockingBay struct {
	Properties string
	Path       *PathId
	Points     []DockPoint
}

// Insignia is a decal mesh painted onto the hull at a given LOD.
type Insignia struct {
	DetailLevel uint32
	Vertices    []Vec3d
	Offset      Vec3d
	Faces       [][3]InsigVertex
}

// Model is the complete, immutable parse result of either importer.
type Model struct {
	Header        ObjHeader
	SubObjects    []SubObject
	Textures      []string
	Paths         []Path
	SpecialPoints []SpecialPoint
	EyePoints     []EyePoint
	PrimaryWeps   [][]WeaponHardpoint
	SecondaryWeps [][]WeaponHardpoint
	Turrets       []Turret
	ThrusterBanks []ThrusterBank
	GlowBanks     []GlowBank
	AutoCenter    Vec3d
	Comments      string
	DockingBays   []DockingBay
	Insignias     []Insignia
	ShieldData    *ShieldData
}
