package scene

import (
	"cogentcore.org/core/math32"
	"github.com/Carmen-Shannon/oxy-csg/common"
	"github.com/Carmen-Shannon/oxy-csg/engine/model"
)

// frustumLocked returns the camera frustum. Caller must hold s.mu.
func (s *scene) frustumLocked() common.Frustum {
	if s.cam == nil {
		return common.Frustum{}
	}
	return s.cam.Frustum()
}

// visible tests the model's bounding sphere, moved into world space, against the frustum.
// The radius is scaled by the largest axis scale of the model matrix.
func visible(f common.Frustum, m [16]float32, mdl model.Model) bool {
	c := mdl.BoundingCenter()
	cx, cy, cz := common.TransformPoint(m[:], c[0], c[1], c[2])
	scale := max(
		math32.Vec3(m[0], m[1], m[2]).Length(),
		math32.Vec3(m[4], m[5], m[6]).Length(),
		math32.Vec3(m[8], m[9], m[10]).Length(),
	)
	return f.IntersectsSphere(cx, cy, cz, mdl.BoundingRadius()*scale)
}
