// Package mesh builds procedural meshes for GPU upload.
package mesh

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSphere is returned for a non-positive band count or radius.
var ErrInvalidSphere = errors.New("invalid sphere parameters")

// MaxVertices is the largest vertex count uint32 indices can address.
const MaxVertices = math.MaxUint32

// FloatsPerVertex is the stride of Interleave: position, normal, texcoord.
const FloatsPerVertex = 3 + 3 + 2

// Sphere is an indexed UV sphere. Positions and Normals hold 3 floats per
// vertex, TexCoords 2. It is never modified after BuildSphere returns.
type Sphere struct {
	Positions []float32
	Normals   []float32
	TexCoords []float32
	Indices   []uint32
}

// VertexCount returns the number of vertices.
func (s *Sphere) VertexCount() int {
	return len(s.Positions) / 3
}

// BuildSphere generates a sphere centered on the origin with latBands rings
// from pole to pole and lonBands segments around the Y axis. The seam
// column is duplicated so texture coordinates wrap cleanly, giving
// (latBands+1)*(lonBands+1) vertices and 6*latBands*lonBands indices.
func BuildSphere(latBands, lonBands int, radius float32) (*Sphere, error) {
	if latBands < 1 || lonBands < 1 || !(radius > 0) {
		return nil, fmt.Errorf("%w: %dx%d bands, radius %v", ErrInvalidSphere, latBands, lonBands, radius)
	}
	vertices := uint64(latBands+1) * uint64(lonBands+1)
	if vertices > MaxVertices {
		return nil, fmt.Errorf("%w: %d vertices exceed the index range", ErrInvalidSphere, vertices)
	}

	s := &Sphere{
		Positions: make([]float32, 0, vertices*3),
		Normals:   make([]float32, 0, vertices*3),
		TexCoords: make([]float32, 0, vertices*2),
		Indices:   make([]uint32, 0, 6*latBands*lonBands),
	}

	for lat := 0; lat <= latBands; lat++ {
		theta := float64(lat) * math.Pi / float64(latBands)
		sinTheta, cosTheta := math.Sincos(theta)

		for lon := 0; lon <= lonBands; lon++ {
			phi := float64(lon) * 2 * math.Pi / float64(lonBands)
			sinPhi, cosPhi := math.Sincos(phi)

			x := float32(cosPhi * sinTheta)
			y := float32(cosTheta)
			z := float32(sinPhi * sinTheta)

			s.Normals = append(s.Normals, x, y, z)
			s.Positions = append(s.Positions, radius*x, radius*y, radius*z)
			s.TexCoords = append(s.TexCoords,
				1-float32(lon)/float32(lonBands),
				float32(lat)/float32(latBands))
		}
	}

	for lat := 0; lat < latBands; lat++ {
		for lon := 0; lon < lonBands; lon++ {
			first := uint32(lat*(lonBands+1) + lon)
			second := first + uint32(lonBands) + 1

			s.Indices = append(s.Indices,
				first, second, first+1,
				second, second+1, first+1)
		}
	}

	return s, nil
}

// Interleave packs the vertex attributes into one slice of
// FloatsPerVertex floats per vertex.
func (s *Sphere) Interleave() []float32 {
	n := s.VertexCount()
	out := make([]float32, 0, n*FloatsPerVertex)
	for i := 0; i < n; i++ {
		out = append(out, s.Positions[i*3:i*3+3]...)
		out = append(out, s.Normals[i*3:i*3+3]...)
		out = append(out, s.TexCoords[i*2:i*2+2]...)
	}
	return out
}
