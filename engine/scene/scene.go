package scene

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-csg/engine/camera"
	"github.com/Carmen-Shannon/oxy-csg/engine/game_object"
	"github.com/Carmen-Shannon/oxy-csg/engine/light"
	"github.com/Carmen-Shannon/oxy-csg/engine/model"
)

var (
	// ErrNoModel is returned by Add and SetSlot for objects without a Model.
	ErrNoModel = errors.New("scene: object has no model")

	// ErrSlotOccupied is returned by SetSlot when the slot already holds an object.
	ErrSlotOccupied = errors.New("scene: slot occupied")
)

// DrawItem is one visible object in a Frame.
type DrawItem struct {
	ObjectID    uint64
	Name        string
	Model       model.Model
	ModelMatrix [16]float32
}

// Frame is a consistent snapshot of everything a renderer needs for one image.
// It is built under the scene lock and owns no locks itself.
type Frame struct {
	ViewProjection [16]float32
	Eye            [3]float32
	Ambient        [3]float32
	Lights         []light.Light
	Items          []DrawItem
	Culled         int
}

// Scene manages a registry of GameObjects, optional named slots that hold at most one object each,
// a Camera and the lights used for shading.
// Thread-safe for concurrent access: the frame loop reads through Frame while other goroutines
// add, remove and swap slot contents.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// AddLight adds a light to the scene.
	//
	// Parameters:
	//   - l: the light
	AddLight(l light.Light)

	// RemoveLight removes a light from the scene if present.
	//
	// Parameters:
	//   - l: the light
	RemoveLight(l light.Light)

	// Lights returns a copy of the scene's lights.
	Lights() []light.Light

	// AmbientColor returns the ambient light color.
	AmbientColor() [3]float32

	// SetAmbientColor sets the ambient light color.
	//
	// Parameters:
	//   - color: RGB ambient color
	SetAmbientColor(color [3]float32)

	// Count returns the number of objects in the registry, slotted objects included.
	//
	// Returns:
	//   - int: count of GameObjects in the registry
	Count() int

	// Add adds a GameObject to the registry and assigns it an ID if it has none.
	//
	// Parameters:
	//   - obj: the object to add; it must carry a Model
	//
	// Returns:
	//   - uint64: the object's ID
	//   - error: ErrNoModel
	Add(obj game_object.GameObject) (uint64, error)

	// Get returns the object with the given ID, or nil.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes the object with the given ID, freeing its slot if it occupies one.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - bool: true if an object was removed
	Remove(id uint64) bool

	// Clear removes every object and empties every slot.
	Clear()

	// SetSlot adds an object and binds it to a named slot in one step.
	//
	// Parameters:
	//   - slot: the slot name
	//   - obj: the object; it must carry a Model
	//
	// Returns:
	//   - uint64: the object's ID
	//   - error: ErrSlotOccupied if the slot already holds an object, ErrNoModel
	SetSlot(slot string, obj game_object.GameObject) (uint64, error)

	// Slot returns the object bound to a slot, or nil.
	//
	// Parameters:
	//   - slot: the slot name
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Slot(slot string) game_object.GameObject

	// ClearSlot removes the slot's object from the scene and frees the slot.
	//
	// Parameters:
	//   - slot: the slot name
	//
	// Returns:
	//   - game_object.GameObject: the removed object
	//   - bool: false if the slot was empty
	ClearSlot(slot string) (game_object.GameObject, bool)

	// Objects returns the registered objects ordered by ID.
	Objects() []game_object.GameObject

	// PrepareCompute advances per-object animation by deltaTime seconds on the compute pool
	// and refreshes the camera matrices.
	//
	// Parameters:
	//   - deltaTime: elapsed seconds since the previous call
	PrepareCompute(deltaTime float32)

	// Frame snapshots the enabled objects that survive frustum culling.
	//
	// Returns:
	//   - Frame: the snapshot
	Frame() Frame

	// Close stops the compute pool. The scene must not be used afterwards.
	Close()
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	registry map[uint64]game_object.GameObject
	slots    map[string]uint64
	nextID   uint64

	cam camera.Camera

	cullingDisabled bool

	lights       []light.Light
	ambientColor [3]float32

	// computePool runs per-object animation in PrepareCompute. Workers persist across frames.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
	closed         bool
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		registry:       make(map[uint64]game_object.GameObject),
		slots:          make(map[string]uint64),
		nextID:         1,
		ambientColor:   [3]float32{0.15, 0.15, 0.18},
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the compute pool after options so WithComputeWorkers can override the default.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.lights {
		if existing == l {
			s.lights = append(s.lights[:i], s.lights[i+1:]...)
			return
		}
	}
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *scene) AmbientColor() [3]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambientColor
}

func (s *scene) SetAmbientColor(color [3]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambientColor = color
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(obj game_object.GameObject) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(obj)
}

// addLocked registers obj. Caller must hold s.mu write lock.
func (s *scene) addLocked(obj game_object.GameObject) (uint64, error) {
	if obj == nil || obj.Model() == nil {
		return 0, ErrNoModel
	}
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
		s.nextID++
	}
	s.registry[obj.ID()] = obj
	return obj.ID(), nil
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.registry[id]; !exists {
		return false
	}
	delete(s.registry, id)
	for slot, held := range s.slots {
		if held == id {
			delete(s.slots, slot)
		}
	}
	return true
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = make(map[uint64]game_object.GameObject)
	s.slots = make(map[string]uint64)
}

func (s *scene) SetSlot(slot string, obj game_object.GameObject) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if held, ok := s.slots[slot]; ok {
		return 0, fmt.Errorf("%w: %q holds object %d", ErrSlotOccupied, slot, held)
	}
	id, err := s.addLocked(obj)
	if err != nil {
		return 0, err
	}
	s.slots[slot] = id
	return id, nil
}

func (s *scene) Slot(slot string) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.slots[slot]
	if !ok {
		return nil
	}
	return s.registry[id]
}

func (s *scene) ClearSlot(slot string) (game_object.GameObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.slots[slot]
	if !ok {
		return nil, false
	}
	obj := s.registry[id]
	delete(s.slots, slot)
	delete(s.registry, id)
	return obj, obj != nil
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// sortedLocked returns the registry ordered by ID. Caller must hold s.mu.
func (s *scene) sortedLocked() []game_object.GameObject {
	objs := make([]game_object.GameObject, 0, len(s.registry))
	for _, obj := range s.registry {
		objs = append(objs, obj)
	}
	slices.SortFunc(objs, func(a, b game_object.GameObject) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return objs
}

func (s *scene) PrepareCompute(deltaTime float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}
	if s.cam != nil {
		s.cam.Update()
	}

	var wg sync.WaitGroup
	taskID := 0
	for _, obj := range s.registry {
		if !obj.Enabled() {
			continue
		}
		wg.Add(1)
		objCap := obj
		id := taskID
		taskID++
		s.computePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				objCap.Advance(deltaTime)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (s *scene) Frame() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := Frame{
		Ambient: s.ambientColor,
		Lights:  slices.Clone(s.lights),
	}
	cull := false
	if s.cam != nil {
		f.ViewProjection = s.cam.ViewProjectionMatrix()
		f.Eye = s.cam.Eye()
		cull = !s.cullingDisabled
	}
	frustum := s.frustumLocked()

	for _, obj := range s.sortedLocked() {
		mdl := obj.Model()
		if !obj.Enabled() || mdl == nil {
			continue
		}
		m := obj.ModelMatrix()
		if cull && !visible(frustum, m, mdl) {
			f.Culled++
			continue
		}
		f.Items = append(f.Items, DrawItem{
			ObjectID:    obj.ID(),
			Name:        obj.Name(),
			Model:       mdl,
			ModelMatrix: m,
		})
	}
	return f
}

func (s *scene) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.computePool.Stop()
}
