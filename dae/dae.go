// Package dae imports a COLLADA-like XML scene document into the same
// domain model the pof package produces from the binary format,
// following the struct-tag decoding style of the tetra3d DAE loader
// (library_geometries/library_visual_scenes path tags, a flat
// library_materials list) but generalized to COLLADA's shared-source
// mesh model: separate position/normal/UV sources, <polylist> with
// per-polygon vertex counts as well as <triangles>.
package dae

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"pofload/model"
	"pofload/node"
)

type daeDocument struct {
	XMLName             xml.Name         `xml:"COLLADA"`
	Materials           []daeMaterial    `xml:"library_materials>material"`
	Geometries          []daeGeometry    `xml:"library_geometries>geometry"`
	VisualScenes        []daeVisualScene `xml:"library_visual_scenes>visual_scene"`
	InstanceVisualScene struct {
		URL string `xml:"url,attr"`
	} `xml:"scene>instance_visual_scene"`
}

type daeMaterial struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type daeGeometry struct {
	ID        string        `xml:"id,attr"`
	Name      string        `xml:"name,attr"`
	Sources   []daeSource   `xml:"mesh>source"`
	Vertices  daeVertices   `xml:"mesh>vertices"`
	Polylists []daePolylist `xml:"mesh>polylist"`
	Triangles []daeTriangles `xml:"mesh>triangles"`
}

type daeSource struct {
	ID         string `xml:"id,attr"`
	FloatArray string `xml:"float_array"`
}

type daeVertices struct {
	ID    string   `xml:"id,attr"`
	Input daeInput `xml:"input"`
}

type daeInput struct {
	Semantic string `xml:"semantic,attr"`
	Source   string `xml:"source,attr"`
	Offset   int    `xml:"offset,attr"`
}

type daePolylist struct {
	Material string     `xml:"material,attr"`
	Inputs   []daeInput `xml:"input"`
	VCount   string      `xml:"vcount"`
	P        string      `xml:"p"`
}

type daeTriangles struct {
	Material string     `xml:"material,attr"`
	Inputs   []daeInput `xml:"input"`
	P        string      `xml:"p"`
}

type daeVisualScene struct {
	ID    string    `xml:"id,attr"`
	Nodes []daeNode `xml:"node"`
}

type daeNode struct {
	Name               string                `xml:"name,attr"`
	Matrix             string                `xml:"matrix"`
	InstanceGeometries []daeInstanceGeometry `xml:"instance_geometry"`
	Children           []daeNode             `xml:"node"`
}

type daeInstanceGeometry struct {
	URL               string                `xml:"url,attr"`
	InstanceMaterials []daeInstanceMaterial `xml:"bind_material>technique_common>instance_material"`
}

type daeInstanceMaterial struct {
	Symbol string `xml:"symbol,attr"`
	Target string `xml:"target,attr"`
}

// ParseFile reads the COLLADA document at path and imports it into a
// Model.
func ParseFile(path string) (*model.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.NewParseError(model.ErrIoError, "open "+path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a COLLADA document from r into a Model.
func Parse(r io.Reader) (*model.Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewParseError(model.ErrIoError, "read dae document", err)
	}
	var doc daeDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, model.NewParseError(model.ErrIoError, "decode dae xml", err)
	}
	return importDocument(&doc)
}

func findVisualScene(doc *daeDocument) *daeVisualScene {
	target := strings.TrimPrefix(doc.InstanceVisualScene.URL, "#")
	for i := range doc.VisualScenes {
		if doc.VisualScenes[i].ID == target {
			return &doc.VisualScenes[i]
		}
	}
	if len(doc.VisualScenes) > 0 {
		return &doc.VisualScenes[0]
	}
	return nil
}

func findGeometry(doc *daeDocument, id string) *daeGeometry {
	for i := range doc.Geometries {
		if doc.Geometries[i].ID == id {
			return &doc.Geometries[i]
		}
	}
	return nil
}

func findSource(geom *daeGeometry, id string) *daeSource {
	for i := range geom.Sources {
		if geom.Sources[i].ID == id {
			return &geom.Sources[i]
		}
	}
	return nil
}

type importer struct {
	doc          *daeDocument
	materialMap  map[string]model.TextureId
	textures     []string
	subObjects   []model.SubObject
	shieldData   *model.ShieldData
	stagedLevels []detailStage
}

type detailStage struct {
	name  string
	objID model.ObjectId
}

func importDocument(doc *daeDocument) (*model.Model, error) {
	scene := findVisualScene(doc)
	if scene == nil {
		return nil, model.NewParseError(model.ErrMalformedChunk, "dae: no visual scene", nil)
	}

	imp := &importer{doc: doc, materialMap: make(map[string]model.TextureId)}
	for _, mat := range doc.Materials {
		id := model.TextureId(len(imp.textures))
		name := mat.Name
		if name == "" {
			name = mat.ID
		}
		imp.textures = append(imp.textures, name)
		imp.materialMap[mat.ID] = id
	}

	var g node.Graph
	var entries []nodeEntry
	if err := buildGraph(&g, scene.Nodes, node.Nil, &entries); err != nil {
		return nil, err
	}
	g.Update()

	for _, e := range entries {
		if err := imp.processNode(&g, e); err != nil {
			return nil, err
		}
	}

	sort.Slice(imp.stagedLevels, func(i, j int) bool { return imp.stagedLevels[i].name < imp.stagedLevels[j].name })
	detailLevels := make([]model.ObjectId, len(imp.stagedLevels))
	for i, s := range imp.stagedLevels {
		detailLevels[i] = s.objID
	}

	return &model.Model{
		Header: model.ObjHeader{
			MaxRadius:     1.0,
			NumSubobjects: uint32(len(imp.subObjects)),
			DetailLevels:  detailLevels,
		},
		SubObjects: imp.subObjects,
		Textures:   imp.textures,
		ShieldData: imp.shieldData,
	}, nil
}

func (imp *importer) processNode(g *node.Graph, e nodeEntry) error {
	world := g.World(e.gn)
	center := translationOf(world)
	local := centeredTransform(world, center)

	verts, norms, polys, err := imp.collectGeometry(e.dn, &local)
	if err != nil {
		return fmt.Errorf("dae: node %q: %w", e.dn.Name, err)
	}
	for i := range polys {
		reverseVerts(polys[i].Verts)
	}

	switch {
	case e.dn.Name == "shield":
		imp.shieldData = buildShieldData(verts, polys)
	case strings.HasPrefix(e.dn.Name, "detail"):
		objID := model.ObjectId(len(imp.subObjects))
		imp.subObjects = append(imp.subObjects, buildSubObject(objID, e.dn.Name, center, verts, norms, polys))
		imp.stagedLevels = append(imp.stagedLevels, detailStage{name: e.dn.Name, objID: objID})
	default:
		objID := model.ObjectId(len(imp.subObjects))
		imp.subObjects = append(imp.subObjects, buildSubObject(objID, e.dn.Name, center, verts, norms, polys))
	}
	return nil
}

func buildSubObject(id model.ObjectId, name string, center model.Vec3d, verts, norms []model.Vec3d, polys []model.Polygon) model.SubObject {
	return model.SubObject{
		ObjID:  id,
		Offset: flipYZ(center),
		Name:   name,
		BspData: model.BspData{
			Verts: verts,
			Norms: norms,
			CollisionTree: &model.BspLeaf{
				Polygons: polys,
			},
		},
		IsDebrisModel: strings.HasPrefix(name, "debris"),
	}
}

func reverseVerts(vs []model.PolyVertex) {
	for i, j := 0, len(vs)-1; i < j; i, j = i+1, j-1 {
		vs[i], vs[j] = vs[j], vs[i]
	}
}
