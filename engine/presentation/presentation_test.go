package presentation

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/Carmen-Shannon/oxy-csg/engine/game_object"
	"github.com/Carmen-Shannon/oxy-csg/engine/geometry"
	"github.com/Carmen-Shannon/oxy-csg/engine/material"
	"github.com/Carmen-Shannon/oxy-csg/engine/model"
	"github.com/Carmen-Shannon/oxy-csg/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tri(ledger *geometry.Ledger) geometry.Geometry {
	return geometry.NewGeometry(
		geometry.WithPositions([]math32.Vector3{math32.Vec3(0, 0, 0), math32.Vec3(1, 0, 0), math32.Vec3(0, 1, 0)}),
		geometry.WithLedger(ledger),
	)
}

func newTestAdapter(t *testing.T, opts ...AdapterBuilderOption) (Adapter, scene.Scene) {
	t.Helper()
	sc := scene.NewScene("test", scene.WithComputeWorkers(1))
	t.Cleanup(sc.Close)
	return NewAdapter(sc, opts...), sc
}

func TestAdapter_InstallUninstall(t *testing.T) {
	ledger := geometry.NewLedger()
	mat := material.NewMaterial(material.WithName("shared"))
	a, sc := newTestAdapter(t, WithMaterial(mat))

	g := tri(ledger)
	h, err := a.Install(g)
	require.NoError(t, err)
	assert.False(t, h.IsZero())
	assert.Equal(t, DefaultSlot, h.Slot)

	obj := sc.Slot(DefaultSlot)
	require.NotNil(t, obj)
	assert.Equal(t, h.ObjectID, obj.ID())
	assert.Same(t, mat, obj.Model().Material())
	cur, ok := a.Current()
	assert.True(t, ok)
	assert.Equal(t, h, cur)

	require.NoError(t, a.Uninstall(h))
	assert.Nil(t, sc.Slot(DefaultSlot))
	assert.True(t, g.Disposed())
	assert.Zero(t, ledger.Live())
	_, ok = a.Current()
	assert.False(t, ok)
}

func TestAdapter_RejectsDoubleInstall(t *testing.T) {
	ledger := geometry.NewLedger()
	a, sc := newTestAdapter(t)

	_, err := a.Install(tri(ledger))
	require.NoError(t, err)

	second := tri(ledger)
	_, err = a.Install(second)
	assert.ErrorIs(t, err, ErrSlotOccupied)
	assert.False(t, second.Disposed(), "rejected geometry stays with the caller")
	assert.Equal(t, 1, sc.Count())
}

func TestAdapter_RejectsForeignSlotOccupant(t *testing.T) {
	a, sc := newTestAdapter(t)
	squatter := game_object.NewGameObject(game_object.WithModel(model.NewModel(model.WithGeometry(tri(nil)))))
	_, err := sc.SetSlot(DefaultSlot, squatter)
	require.NoError(t, err)

	_, err = a.Install(tri(nil))
	assert.ErrorIs(t, err, ErrSlotOccupied)
	_, ok := a.Current()
	assert.False(t, ok)
}

func TestAdapter_CanInstall(t *testing.T) {
	a, sc := newTestAdapter(t)

	assert.ErrorIs(t, a.CanInstall(nil), ErrNilGeometry)
	assert.NoError(t, a.CanInstall(tri(nil)))

	h, err := a.Install(tri(nil))
	require.NoError(t, err)
	assert.NoError(t, a.CanInstall(tri(nil)), "own result is replaced by the swap")
	require.NoError(t, a.Uninstall(h))

	squatter := game_object.NewGameObject(game_object.WithModel(model.NewModel(model.WithGeometry(tri(nil)))))
	_, err = sc.SetSlot(DefaultSlot, squatter)
	require.NoError(t, err)
	assert.ErrorIs(t, a.CanInstall(tri(nil)), ErrSlotOccupied)
}

func TestAdapter_UninstallUnknownHandle(t *testing.T) {
	a, _ := newTestAdapter(t)

	assert.ErrorIs(t, a.Uninstall(Handle{}), ErrUnknownHandle)

	h, err := a.Install(tri(nil))
	require.NoError(t, err)
	require.NoError(t, a.Uninstall(h))
	assert.ErrorIs(t, a.Uninstall(h), ErrUnknownHandle, "handles are single-use")
}

func TestAdapter_NilGeometry(t *testing.T) {
	a, _ := newTestAdapter(t)
	_, err := a.Install(nil)
	assert.ErrorIs(t, err, ErrNilGeometry)
}

func TestAdapter_RotationCarriesOver(t *testing.T) {
	a, sc := newTestAdapter(t, WithRotationSpeed(0, 1, 0))

	h, err := a.Install(tri(nil))
	require.NoError(t, err)
	sc.PrepareCompute(0.25)
	require.NoError(t, a.Uninstall(h))

	_, err = a.Install(tri(nil))
	require.NoError(t, err)
	_, ry, _ := sc.Slot(DefaultSlot).Rotation()
	assert.InDelta(t, 0.25, ry, 1e-6)
}
