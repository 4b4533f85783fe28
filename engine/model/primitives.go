package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NewBoxMesh returns a box centered on the origin with per-face normals and UVs.
//
// Parameters:
//   - size: edge lengths along x, y and z
//
// Returns:
//   - ImportedMesh: 24 vertices and 36 indices
func NewBoxMesh(size mgl32.Vec3) ImportedMesh {
	h := size.Mul(0.5)
	faces := []struct {
		normal, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	}
	mesh := ImportedMesh{Name: "Box", MaterialIndex: -1}
	for _, f := range faces {
		base := uint32(len(mesh.Vertices))
		center := mgl32.Vec3{f.normal[0] * h[0], f.normal[1] * h[1], f.normal[2] * h[2]}
		u := mgl32.Vec3{f.u[0] * h[0], f.u[1] * h[1], f.u[2] * h[2]}
		v := mgl32.Vec3{f.v[0] * h[0], f.v[1] * h[1], f.v[2] * h[2]}
		corners := [4]struct {
			pos mgl32.Vec3
			uv  [2]float32
		}{
			{center.Sub(u).Sub(v), [2]float32{0, 1}},
			{center.Sub(u).Add(v), [2]float32{0, 0}},
			{center.Add(u).Add(v), [2]float32{1, 0}},
			{center.Add(u).Sub(v), [2]float32{1, 1}},
		}
		for _, c := range corners {
			mesh.Vertices = append(mesh.Vertices, GPUVertex{
				Position: c.pos,
				Normal:   f.normal,
				TexCoord: c.uv,
				Color:    [4]float32{1, 1, 1, 1},
				Tangent:  [4]float32{f.u[0], f.u[1], f.u[2], 1},
			})
		}
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return mesh
}

// NewPlaneMesh returns a square in the XZ plane facing +Y.
//
// Parameters:
//   - size: edge length
//
// Returns:
//   - ImportedMesh: 4 vertices and 6 indices
func NewPlaneMesh(size float32) ImportedMesh {
	h := size * 0.5
	up := [3]float32{0, 1, 0}
	mesh := ImportedMesh{Name: "Plane", MaterialIndex: -1}
	for _, p := range [][3]float32{{-h, 0, -h}, {-h, 0, h}, {h, 0, h}, {h, 0, -h}} {
		mesh.Vertices = append(mesh.Vertices, GPUVertex{
			Position: p,
			Normal:   up,
			TexCoord: [2]float32{p[0]/size + 0.5, 0.5 - p[2]/size},
			Color:    [4]float32{1, 1, 1, 1},
			Tangent:  [4]float32{1, 0, 0, 1},
		})
	}
	mesh.Indices = []uint32{0, 1, 2, 0, 2, 3}
	return mesh
}
