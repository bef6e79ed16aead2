package camera

import (
	"sync"

	"cogentcore.org/core/math32"
	"github.com/Carmen-Shannon/oxy-csg/common"
)

// orbitController circles a target point on a sphere described by radius, azimuth and elevation.
type orbitController struct {
	mu *sync.Mutex

	position [3]float32
	target   [3]float32

	radius    float32
	azimuth   float32 // around the Y axis
	elevation float32 // above the horizontal plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32
}

// CameraController supplies the eye and target positions a Camera looks along.
// All methods are safe for concurrent use: the terminal front end steers the controller
// while the frame loop reads it.
type CameraController interface {
	// Position returns the camera eye position.
	//
	// Returns:
	//   - x, y, z: eye position
	Position() (x, y, z float32)

	// Target returns the point the camera looks at.
	//
	// Returns:
	//   - x, y, z: target position
	Target() (x, y, z float32)

	// SetTarget moves the orbit center, keeping radius and angles.
	//
	// Parameters:
	//   - x, y, z: new target position
	SetTarget(x, y, z float32)

	// Radius returns the distance between eye and target.
	//
	// Returns:
	//   - float32: the radius
	Radius() float32

	// SetRadius sets the distance between eye and target, clamped to the radius bounds.
	//
	// Parameters:
	//   - radius: the new radius
	SetRadius(radius float32)

	// Azimuth returns the horizontal orbit angle in radians.
	//
	// Returns:
	//   - float32: the azimuth
	Azimuth() float32

	// Elevation returns the vertical orbit angle in radians.
	//
	// Returns:
	//   - float32: the elevation
	Elevation() float32

	// Orbit rotates the eye around the target by the given angles, clamping the elevation.
	//
	// Parameters:
	//   - dAzimuth: radians added to the azimuth
	//   - dElevation: radians added to the elevation
	Orbit(dAzimuth, dElevation float32)

	// OrbitLeft rotates the eye one orbit step to the left.
	OrbitLeft()

	// OrbitRight rotates the eye one orbit step to the right.
	OrbitRight()

	// OrbitUp raises the eye one orbit step.
	OrbitUp()

	// OrbitDown lowers the eye one orbit step.
	OrbitDown()

	// Zoom moves the eye toward the target for positive steps and away for negative ones.
	//
	// Parameters:
	//   - steps: number of zoom steps
	Zoom(steps float32)

	// Fit centers the orbit on a bounding sphere and backs off far enough to keep it in view
	// for the given vertical field of view.
	//
	// Parameters:
	//   - center: sphere center
	//   - radius: sphere radius
	//   - fov: vertical field of view in radians
	Fit(center [3]float32, radius, fov float32)
}

var _ CameraController = &orbitController{}

// NewOrbitController creates an orbit controller framing a unit-sized object at the origin.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewOrbitController(options ...CameraControllerOption) CameraController {
	cc := &orbitController{
		mu:           &sync.Mutex{},
		radius:       4,
		azimuth:      math32.Pi / 5,
		elevation:    math32.Pi / 6,
		minRadius:    1.5,
		maxRadius:    40,
		minElevation: -math32.Pi/2 + 0.1,
		maxElevation: math32.Pi/2 - 0.1,
		orbitSpeed:   0.08,
		zoomSpeed:    0.4,
	}
	for _, option := range options {
		option(cc)
	}
	cc.clamp()
	cc.updatePosition()
	return cc
}

// updatePosition recomputes the eye from the spherical coordinates. Caller must hold the mutex.
func (cc *orbitController) updatePosition() {
	cosElev, sinElev := math32.Cos(cc.elevation), math32.Sin(cc.elevation)
	cosAzim, sinAzim := math32.Cos(cc.azimuth), math32.Sin(cc.azimuth)

	cc.position[0] = cc.target[0] + cc.radius*cosElev*sinAzim
	cc.position[1] = cc.target[1] + cc.radius*sinElev
	cc.position[2] = cc.target[2] + cc.radius*cosElev*cosAzim
}

// clamp applies the radius and elevation bounds. Caller must hold the mutex.
func (cc *orbitController) clamp() {
	cc.radius = common.Clamp(cc.radius, cc.minRadius, cc.maxRadius)
	cc.elevation = common.Clamp(cc.elevation, cc.minElevation, cc.maxElevation)
}

func (cc *orbitController) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.position[2]
}

func (cc *orbitController) Target() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target[0], cc.target[1], cc.target[2]
}

func (cc *orbitController) SetTarget(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = [3]float32{x, y, z}
	cc.updatePosition()
}

func (cc *orbitController) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *orbitController) SetRadius(radius float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = radius
	cc.clamp()
	cc.updatePosition()
}

func (cc *orbitController) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *orbitController) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

func (cc *orbitController) Orbit(dAzimuth, dElevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += dAzimuth
	cc.elevation += dElevation
	cc.clamp()
	cc.updatePosition()
}

func (cc *orbitController) OrbitLeft() {
	cc.Orbit(-cc.orbitSpeed, 0)
}

func (cc *orbitController) OrbitRight() {
	cc.Orbit(cc.orbitSpeed, 0)
}

func (cc *orbitController) OrbitUp() {
	cc.Orbit(0, cc.orbitSpeed)
}

func (cc *orbitController) OrbitDown() {
	cc.Orbit(0, -cc.orbitSpeed)
}

func (cc *orbitController) Zoom(steps float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius -= steps * cc.zoomSpeed
	cc.clamp()
	cc.updatePosition()
}

func (cc *orbitController) Fit(center [3]float32, radius, fov float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = center
	if radius > 0 && fov > 0 {
		cc.radius = radius / math32.Sin(fov/2) * 1.1
	}
	cc.clamp()
	cc.updatePosition()
}
