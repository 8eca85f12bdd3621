package mesh

import (
	"errors"
	"math"
	"testing"
)

func TestBuildSphereCounts(t *testing.T) {
	for _, n := range []int{1, 2, 3, 10, 60} {
		s, err := BuildSphere(n, n, 10)
		if err != nil {
			t.Fatalf("N=%d: %v", n, err)
		}

		wantVerts := (n + 1) * (n + 1)
		if s.VertexCount() != wantVerts {
			t.Errorf("N=%d: expected %d vertices, got %d", n, wantVerts, s.VertexCount())
		}
		if len(s.Normals) != wantVerts*3 || len(s.TexCoords) != wantVerts*2 {
			t.Errorf("N=%d: attribute lengths %d/%d", n, len(s.Normals), len(s.TexCoords))
		}
		if len(s.Indices) != 6*n*n {
			t.Errorf("N=%d: expected %d indices, got %d", n, 6*n*n, len(s.Indices))
		}
		for i, idx := range s.Indices {
			if int(idx) >= wantVerts {
				t.Fatalf("N=%d: index %d = %d out of range", n, i, idx)
			}
		}
	}
}

func TestBuildSphereTwoBands(t *testing.T) {
	s, err := BuildSphere(2, 2, 1)
	if err != nil {
		t.Fatal(err)
	}

	if s.VertexCount() != 9 {
		t.Errorf("expected 9 vertices, got %d", s.VertexCount())
	}
	if len(s.Indices) != 24 {
		t.Fatalf("expected 24 indices, got %d", len(s.Indices))
	}

	// Quad lat=1, lon=1: first = 1*3+1 = 4, second = 7
	want := []uint32{4, 7, 5, 7, 8, 5}
	quad := s.Indices[3*6 : 4*6]
	for i := range want {
		if quad[i] != want[i] {
			t.Errorf("quad (1,1): expected %v, got %v", want, quad)
			break
		}
	}

	// First quad
	want = []uint32{0, 3, 1, 3, 4, 1}
	for i := range want {
		if s.Indices[i] != want[i] {
			t.Errorf("quad (0,0): expected %v, got %v", want, s.Indices[:6])
			break
		}
	}
}

func TestBuildSphereGeometry(t *testing.T) {
	const radius = 10
	s, err := BuildSphere(8, 12, radius)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < s.VertexCount(); i++ {
		nx, ny, nz := s.Normals[i*3], s.Normals[i*3+1], s.Normals[i*3+2]
		if l := math.Sqrt(float64(nx*nx + ny*ny + nz*nz)); math.Abs(l-1) > 1e-5 {
			t.Fatalf("vertex %d: normal length %v", i, l)
		}
		for k := 0; k < 3; k++ {
			if d := s.Positions[i*3+k] - radius*s.Normals[i*3+k]; math.Abs(float64(d)) > 1e-4 {
				t.Fatalf("vertex %d: position is not radius * normal", i)
			}
		}
		u, v := s.TexCoords[i*2], s.TexCoords[i*2+1]
		if u < 0 || u > 1 || v < 0 || v > 1 {
			t.Fatalf("vertex %d: texcoord (%v,%v) out of range", i, u, v)
		}
	}

	// North pole first, u starts at 1
	if s.Positions[1] != radius || s.TexCoords[0] != 1 || s.TexCoords[1] != 0 {
		t.Errorf("unexpected first vertex %v %v", s.Positions[:3], s.TexCoords[:2])
	}
	// South pole last, u ends at 0
	last := s.VertexCount() - 1
	if math.Abs(float64(s.Positions[last*3+1]+radius)) > 1e-4 || s.TexCoords[last*2] != 0 || s.TexCoords[last*2+1] != 1 {
		t.Errorf("unexpected last vertex %v %v", s.Positions[last*3:], s.TexCoords[last*2:])
	}
}

func TestBuildSphereInvalid(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon int
		radius   float32
	}{
		{"zero lat", 0, 4, 1},
		{"negative lon", 4, -1, 1},
		{"zero radius", 4, 4, 0},
		{"negative radius", 4, 4, -2},
		{"nan radius", 4, 4, float32(math.NaN())},
		{"too many vertices", 70000, 70000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildSphere(tt.lat, tt.lon, tt.radius); !errors.Is(err, ErrInvalidSphere) {
				t.Errorf("expected ErrInvalidSphere, got %v", err)
			}
		})
	}
}

func TestInterleave(t *testing.T) {
	s, err := BuildSphere(2, 3, 2)
	if err != nil {
		t.Fatal(err)
	}

	data := s.Interleave()
	if len(data) != s.VertexCount()*FloatsPerVertex {
		t.Fatalf("expected %d floats, got %d", s.VertexCount()*FloatsPerVertex, len(data))
	}

	i := 5
	v := data[i*FloatsPerVertex : (i+1)*FloatsPerVertex]
	if v[0] != s.Positions[i*3] || v[4] != s.Normals[i*3+1] || v[7] != s.TexCoords[i*2+1] {
		t.Errorf("vertex %d not interleaved correctly: %v", i, v)
	}
}
