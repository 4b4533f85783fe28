package loader

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrNoPositions is returned for a primitive without a POSITION attribute.
var ErrNoPositions = errors.New("primitive has no positions")

// readPrimitive reads one triangle primitive into an imported mesh. Missing normals
// are generated from the faces; missing colors default to white.
//
// Parameters:
//   - doc: the decoded document
//   - prim: the primitive
//   - mirror: negate Z and reverse the triangle winding
//
// Returns:
//   - model.ImportedMesh: the mesh, MaterialIndex -1 when the primitive has none
//   - error: error if an accessor cannot be read
func readPrimitive(doc *gltf.Document, prim *gltf.Primitive, mirror bool) (model.ImportedMesh, error) {
	mesh := model.ImportedMesh{MaterialIndex: -1}
	if prim.Material != nil {
		mesh.MaterialIndex = *prim.Material
	}

	for name, idx := range prim.Attributes {
		if idx < 0 || idx >= len(doc.Accessors) {
			return mesh, fmt.Errorf("%s accessor %d out of range", name, idx)
		}
	}
	if prim.Indices != nil && (*prim.Indices < 0 || *prim.Indices >= len(doc.Accessors)) {
		return mesh, fmt.Errorf("index accessor %d out of range", *prim.Indices)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return mesh, ErrNoPositions
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return mesh, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return mesh, fmt.Errorf("normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return mesh, fmt.Errorf("texcoords: %w", err)
		}
	}
	var tangents [][4]float32
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
		if tangents, err = modeler.ReadTangent(doc, doc.Accessors[idx], nil); err != nil {
			return mesh, fmt.Errorf("tangents: %w", err)
		}
	}
	var colors [][4]uint16
	if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		if colors, err = modeler.ReadColor64(doc, doc.Accessors[idx], nil); err != nil {
			return mesh, fmt.Errorf("colors: %w", err)
		}
	}

	mesh.Vertices = make([]model.GPUVertex, len(positions))
	for i, p := range positions {
		v := &mesh.Vertices[i]
		v.Position = p
		v.Color = [4]float32{1, 1, 1, 1}
		v.Tangent = [4]float32{1, 0, 0, 1}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			v.TexCoord = uvs[i]
		}
		if i < len(tangents) {
			v.Tangent = tangents[i]
		}
		if i < len(colors) {
			for c := range 4 {
				v.Color[c] = float32(colors[i][c]) / math.MaxUint16
			}
		}
	}

	if prim.Indices != nil {
		if mesh.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return mesh, fmt.Errorf("indices: %w", err)
		}
	} else {
		mesh.Indices = make([]uint32, len(positions))
		for i := range mesh.Indices {
			mesh.Indices[i] = uint32(i)
		}
	}
	mesh.Indices = mesh.Indices[:len(mesh.Indices)/3*3]
	for _, idx := range mesh.Indices {
		if int(idx) >= len(mesh.Vertices) {
			return mesh, fmt.Errorf("index %d out of range of %d vertices", idx, len(mesh.Vertices))
		}
	}

	if mirror {
		mirrorMesh(&mesh)
	}
	if len(normals) == 0 {
		generateNormals(&mesh)
	}
	return mesh, nil
}

// mirrorMesh converts right-handed mesh data to left-handed by negating Z. The
// winding is reversed so front faces stay front facing.
func mirrorMesh(mesh *model.ImportedMesh) {
	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		v.Position[2] = -v.Position[2]
		v.Normal[2] = -v.Normal[2]
		v.Tangent[2] = -v.Tangent[2]
		v.Tangent[3] = -v.Tangent[3]
	}
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		mesh.Indices[i+1], mesh.Indices[i+2] = mesh.Indices[i+2], mesh.Indices[i+1]
	}
}

// generateNormals sets each vertex normal to the normalized sum of the area-weighted
// normals of the faces using it.
func generateNormals(mesh *model.ImportedMesh) {
	sums := make([]mgl32.Vec3, len(mesh.Vertices))
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		i0, i1, i2 := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		p0 := mgl32.Vec3(mesh.Vertices[i0].Position)
		p1 := mgl32.Vec3(mesh.Vertices[i1].Position)
		p2 := mgl32.Vec3(mesh.Vertices[i2].Position)
		// clockwise front faces in the left-handed engine space
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		sums[i0] = sums[i0].Add(n)
		sums[i1] = sums[i1].Add(n)
		sums[i2] = sums[i2].Add(n)
	}
	for i, n := range sums {
		if n.Len() > 0 {
			mesh.Vertices[i].Normal = n.Normalize()
		}
	}
}
