package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrbitController_Clamps(t *testing.T) {
	cc := NewOrbitController(WithRadius(5), WithRadiusBounds(2, 10), WithElevationBounds(-0.5, 0.5))

	cc.Zoom(100)
	assert.Equal(t, float32(2), cc.Radius())
	cc.Zoom(-100)
	assert.Equal(t, float32(10), cc.Radius())

	for i := 0; i < 50; i++ {
		cc.OrbitUp()
	}
	assert.Equal(t, float32(0.5), cc.Elevation())
}

func TestOrbitController_PositionOnSphere(t *testing.T) {
	cc := NewOrbitController(WithTarget(1, 0, 0), WithRadius(3), WithAzimuth(0), WithElevation(0))
	x, y, z := cc.Position()
	assert.InDelta(t, 1, x, 1e-5)
	assert.InDelta(t, 0, y, 1e-5)
	assert.InDelta(t, 3, z, 1e-5)
}

func TestCamera_ProjectsTargetToCenter(t *testing.T) {
	cc := NewOrbitController(WithRadius(4))
	cam := NewCamera(WithController(cc))

	nx, ny, depth, ok := cam.Project(0, 0, 0)
	require.True(t, ok)
	assert.InDelta(t, 0, nx, 1e-4)
	assert.InDelta(t, 0, ny, 1e-4)
	assert.True(t, depth > 0 && depth < 1)

	f := cam.Frustum()
	assert.True(t, f.IntersectsSphere(0, 0, 0, 1))
	ex, ey, ez := cc.Position()
	assert.False(t, f.IntersectsSphere(ex*4, ey*4, ez*4, 0.1), "behind the eye")
	assert.Equal(t, [3]float32{ex, ey, ez}, cam.Eye())
}

func TestCamera_FitKeepsSphereVisible(t *testing.T) {
	cc := NewOrbitController()
	cam := NewCamera(WithController(cc))

	cc.Fit([3]float32{0, 1, 0}, 3, cam.Fov())
	cam.Update()

	x, y, z := cc.Target()
	assert.Equal(t, [3]float32{0, 1, 0}, [3]float32{x, y, z})
	assert.Greater(t, cc.Radius(), float32(3))
	_, _, _, ok := cam.Project(0, 4, 0)
	assert.True(t, ok)
}
