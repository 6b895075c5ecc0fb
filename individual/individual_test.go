package individual

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraitsMakeParentChild(t *testing.T) {
	tr := NewTraits()
	assert.False(t, tr.IsParent)
	assert.Equal(t, Unset, tr.ParentID)

	tr.MakeParent()
	assert.True(t, tr.IsParent)
	assert.Equal(t, 1, tr.ParentCounter)

	tr.MakeParent()
	assert.Equal(t, 2, tr.ParentCounter)

	tr.MakeChild()
	assert.False(t, tr.IsParent)
	assert.Equal(t, 0, tr.ParentCounter)
}

func TestTraitsClone(t *testing.T) {
	tr := NewTraits()
	tr.MakeParent()
	tr.PopulationPosition = 3

	c := tr.Clone()
	c.PopulationPosition = 9

	assert.Equal(t, 3, tr.PopulationPosition)
	assert.Equal(t, 9, c.PopulationPosition)
	assert.True(t, c.IsParent)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "minimize", Minimize.String())
	assert.Equal(t, "maximize", Maximize.String())
}

func TestBaseDirtyLifecycle(t *testing.T) {
	b := NewBase()
	assert.True(t, b.Dirty())
	b.MarkClean()
	assert.False(t, b.Dirty())
	b.MarkDirty()
	assert.True(t, b.Dirty())
}

func TestBaseCloneIndependence(t *testing.T) {
	b := NewBase()
	b.Traits().PopulationPosition = 5
	b.SetProcessingCycles(4)

	clone := b.CloneBase()
	clone.Traits().PopulationPosition = 7

	assert.Equal(t, 5, b.Traits().PopulationPosition)
	assert.Equal(t, 7, clone.Traits().PopulationPosition)
	assert.Equal(t, 4, clone.ProcessingCycles())
}

func TestBaseLoadFrom(t *testing.T) {
	src := NewBase()
	src.Traits().PopulationPosition = 11
	src.SetProcessingSuccessful(true)

	dst := NewBase()
	dst.LoadFromBase(&src)

	assert.Equal(t, 11, dst.Traits().PopulationPosition)
	assert.True(t, dst.ProcessingSuccessful())

	// independence after load
	dst.Traits().PopulationPosition = 99
	assert.Equal(t, 11, src.Traits().PopulationPosition)
}
