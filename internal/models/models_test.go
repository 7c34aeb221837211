package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTypeIsValid(t *testing.T) {
	for _, dt := range []DataType{DataTypeText, DataTypeDate, DataTypeNumber} {
		t.Run(string(dt), func(t *testing.T) {
			assert.True(t, dt.IsValid())
		})
	}

	assert.False(t, DataType("bogus").IsValid())
	assert.False(t, DataType("").IsValid())
}

func TestFindCategory_CaseInsensitive(t *testing.T) {
	cats := []Category{
		{ID: "c1", Name: "People", DataType: DataTypeText},
		{ID: "c2", Name: "Years", DataType: DataTypeDate},
	}

	got := FindCategory(cats, "  years ")
	require.NotNil(t, got)
	assert.Equal(t, "c2", got.ID)

	assert.Nil(t, FindCategory(cats, "places"))
	assert.Nil(t, FindCategory(cats, ""))
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-1))
	assert.Equal(t, 0.0, ClampConfidence(0))
	assert.Equal(t, 0.5, ClampConfidence(0.5))
	assert.Equal(t, 1.0, ClampConfidence(1))
	assert.Equal(t, 1.0, ClampConfidence(2))
}

func TestTagScope(t *testing.T) {
	tag := Tag{ID: "t1", CategoryID: "c1", BookID: "b1"}
	assert.Equal(t, Scope{CategoryID: "c1", BookID: "b1"}, tag.Scope())
	assert.Equal(t, "b1/c1", tag.Scope().String())
}

func TestDataTypesByID(t *testing.T) {
	m := DataTypesByID([]Category{
		{ID: "c1", DataType: DataTypeText},
		{ID: "c2", DataType: DataTypeNumber},
	})
	assert.Equal(t, DataTypeText, m["c1"])
	assert.Equal(t, DataTypeNumber, m["c2"])
	assert.Len(t, m, 2)
}
