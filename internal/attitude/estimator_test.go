package attitude

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/gyrosphere/pkg/math"
)

const eps = 1e-4

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < eps
}

func vecNear(a, b math.Vec3) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Z, b.Z)
}

func TestEstimateMissingSample(t *testing.T) {
	g := math.Vec3{Z: 9.81}

	if _, _, ok := Estimate(&g, nil, false); ok {
		t.Error("expected no estimate without a magnetic sample")
	}
	if _, _, ok := Estimate(nil, &g, false); ok {
		t.Error("expected no estimate without a gravity sample")
	}
}

func TestEstimateFlatFacingNorth(t *testing.T) {
	g := math.Vec3{Z: 9.81}
	b := math.Vec3{Y: 20, Z: -40}

	m, o, ok := Estimate(&g, &b, false)
	if !ok {
		t.Fatal("expected an estimate")
	}
	if !m.ApproxEqual(math.Identity(), eps) {
		t.Errorf("expected identity for a flat device facing north, got %v", m)
	}
	if !near(o.Azimuth, 0) || !near(o.Pitch, 0) || !near(o.Roll, 0) {
		t.Errorf("expected zero orientation, got %+v", o)
	}
}

func TestEstimateAzimuth(t *testing.T) {
	g := math.Vec3{Z: 9.81}
	b := math.Vec3{X: 20, Z: -40} // north along device +X

	m, o, _ := Estimate(&g, &b, false)

	if !vecNear(m.Column(0), math.Vec3{Y: -1}) {
		t.Errorf("expected east along -Y, got %v", m.Column(0))
	}
	if !vecNear(m.Column(1), math.Vec3{X: 1}) {
		t.Errorf("expected north along +X, got %v", m.Column(1))
	}
	if !near(o.Azimuth, -gomath.Pi/2) {
		t.Errorf("expected azimuth -pi/2, got %v", o.Azimuth)
	}

	az, _, _ := o.Degrees()
	if !near(az, -90) {
		t.Errorf("expected -90 degrees, got %v", az)
	}
}

func TestEstimateOrthonormal(t *testing.T) {
	tests := []struct {
		name    string
		g, b    math.Vec3
		inverse bool
	}{
		{"tilted", math.Vec3{X: 1, Y: 2, Z: 9}, math.Vec3{X: 5, Y: 20, Z: -30}, false},
		{"tilted inverted", math.Vec3{X: 1, Y: 2, Z: 9}, math.Vec3{X: 5, Y: 20, Z: -30}, true},
		{"on edge", math.Vec3{X: 9.8, Y: 0.3}, math.Vec3{X: -12, Y: 4, Z: 33}, false},
		{"upside down", math.Vec3{Y: 0.5, Z: -9.7}, math.Vec3{X: 2, Y: -18, Z: 41}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, ok := Estimate(&tt.g, &tt.b, tt.inverse)
			if !ok {
				t.Fatal("expected an estimate")
			}

			cols := []math.Vec3{m.Column(0), m.Column(1), m.Column(2)}
			for i, c := range cols {
				if !near(c.Length(), 1) {
					t.Errorf("column %d not unit length: %v", i, c.Length())
				}
				for j := i + 1; j < len(cols); j++ {
					if !near(c.Dot(cols[j]), 0) {
						t.Errorf("columns %d and %d not orthogonal: %v", i, j, c.Dot(cols[j]))
					}
				}
			}

			// Right handed: a proper rotation
			if !vecNear(cols[0].Cross(cols[1]), cols[2]) {
				t.Errorf("east x north != up: %v vs %v", cols[0].Cross(cols[1]), cols[2])
			}
		})
	}
}

func TestEstimateInvertAxesChangesOutput(t *testing.T) {
	g := math.Vec3{X: 1, Y: 2, Z: 9}
	b := math.Vec3{X: 5, Y: 20, Z: -30}

	plain, po, _ := Estimate(&g, &b, false)
	inverted, io, _ := Estimate(&g, &b, true)

	if plain.ApproxEqual(inverted, eps) {
		t.Error("expected axis inversion to change the rotation")
	}
	if po == io {
		t.Error("expected axis inversion to change the orientation")
	}
}

func TestEstimateDegenerateNoNaN(t *testing.T) {
	g := math.Vec3{Z: 9.81}
	b := math.Vec3{Z: 40} // parallel to gravity

	m, _, ok := Estimate(&g, &b, false)
	if !ok {
		t.Fatal("expected an estimate")
	}
	for i, v := range m {
		if gomath.IsNaN(float64(v)) {
			t.Fatalf("element %d is NaN", i)
		}
	}
}
