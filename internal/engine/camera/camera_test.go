package camera

import (
	"testing"

	"github.com/Faultbox/gyrosphere/internal/config"
	"github.com/Faultbox/gyrosphere/pkg/math"
)

func TestViewMatrix(t *testing.T) {
	c := NewFixedCamera()
	v := c.ViewMatrix()

	// Origin ends up 30 units in front of the eye
	p := v.TransformPoint(math.Vec3{})
	if d := p.Sub(math.Vec3{Z: -30}); d.Length() > 1e-4 {
		t.Errorf("expected origin at (0,0,-30) in eye space, got %v", p)
	}
}

func TestProjectionAspect(t *testing.T) {
	c := NewFixedCamera()

	wide := c.Projection(1600, 800)
	square := c.Projection(800, 800)

	if d := wide[0]*2 - square[0]; d > 1e-5 || d < -1e-5 {
		t.Errorf("expected x scale halved for aspect 2, got %v vs %v", wide[0], square[0])
	}
	if wide[5] != square[5] {
		t.Errorf("expected the same y scale, got %v vs %v", wide[5], square[5])
	}
}

func TestProjectionZeroHeight(t *testing.T) {
	c := NewFixedCamera()

	got := c.Projection(640, 0)
	want := c.Projection(640, 1)
	if got != want {
		t.Errorf("expected height 0 to behave as 1")
	}
}

func TestFromConfig(t *testing.T) {
	sc := config.Default().Scene
	sc.Eye = [3]float32{0, 5, 20}
	sc.Far = 50

	c := FromConfig(sc)
	if c.Eye != (math.Vec3{Y: 5, Z: 20}) || c.Far != 50 || c.FovYDeg != 60 {
		t.Errorf("unexpected camera %+v", c)
	}
}
