package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

var identity64 = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// gltfNodes walks the default scene and returns every node that references a mesh,
// in depth-first order with parent transforms applied. Documents without scenes use
// all nodes that are not a child of another node as roots.
func gltfNodes(doc *gltf.Document, mirror bool) []Node {
	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		isChild := make([]bool, len(doc.Nodes))
		for _, n := range doc.Nodes {
			for _, c := range n.Children {
				if c >= 0 && c < len(isChild) {
					isChild[c] = true
				}
			}
		}
		for i, child := range isChild {
			if !child {
				roots = append(roots, i)
			}
		}
	}

	var out []Node
	visited := make([]bool, len(doc.Nodes))
	var walk func(idx int, parent mgl32.Mat4)
	walk = func(idx int, parent mgl32.Mat4) {
		if idx < 0 || idx >= len(doc.Nodes) || visited[idx] {
			return
		}
		visited[idx] = true
		n := doc.Nodes[idx]
		world := parent.Mul4(localTransform(n, mirror))
		if n.Mesh != nil && *n.Mesh >= 0 && *n.Mesh < len(doc.Meshes) {
			name := n.Name
			if name == "" {
				name = fmt.Sprintf("node%d", idx)
			}
			out = append(out, Node{Name: name, Mesh: *n.Mesh, World: world})
		}
		for _, c := range n.Children {
			walk(c, world)
		}
	}
	for _, r := range roots {
		walk(r, mgl32.Ident4())
	}
	return out
}

// localTransform returns the node matrix, or the composed TRS when the node has no
// explicit matrix. With mirror set the transform is conjugated by a Z reflection.
func localTransform(n *gltf.Node, mirror bool) mgl32.Mat4 {
	var m mgl32.Mat4
	if mat := n.MatrixOrDefault(); mat != identity64 {
		for i, v := range mat {
			m[i] = float32(v)
		}
	} else {
		t := n.TranslationOrDefault()
		r := n.RotationOrDefault()
		s := n.ScaleOrDefault()
		rot := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
		m = common.TransformFromTRS(
			mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
			rot.Normalize(),
			mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])},
		)
	}
	if mirror {
		flip := mgl32.Scale3D(1, 1, -1)
		m = flip.Mul4(m).Mul4(flip)
	}
	return m
}
