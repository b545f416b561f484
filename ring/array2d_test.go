package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArray2dAtSet(t *testing.T) {
	a := NewArray2d[int](3, 4)
	a.Set(1, 2, 42)
	require.Equal(t, 42, a.At(1, 2))
	require.Equal(t, 0, a.At(0, 0))
}

func TestArray2dRowSharesBackingArray(t *testing.T) {
	a := NewArray2d[int](2, 3)
	row := a.Row(0)
	row[0] = 7
	require.Equal(t, 7, a.At(0, 0))
}

func TestArray2dColumnSetColumn(t *testing.T) {
	a := NewArray2d[int](3, 2)
	require.NoError(t, setAll(a, [][]int{{1, 2}, {3, 4}, {5, 6}}))
	require.Equal(t, []int{1, 3, 5}, a.Column(0))

	a.SetColumn(0, []int{10, 30, 50})
	require.Equal(t, []int{10, 30, 50}, a.Column(0))
}

func TestArray2dRotateRow(t *testing.T) {
	a := NewArray2d[int](1, 5)
	require.NoError(t, setAll(a, [][]int{{0, 1, 2, 3, 4}}))
	a.RotateRow(0, 2)
	require.Equal(t, []int{2, 3, 4, 0, 1}, a.Row(0))
}

func TestArray2dRemoveLastRow(t *testing.T) {
	a := NewArray2d[int](3, 2)
	require.NoError(t, setAll(a, [][]int{{1, 2}, {3, 4}, {5, 6}}))
	b := a.RemoveLastRow()
	require.Equal(t, 2, b.RowCount())
	require.Equal(t, []int{1, 2}, b.Row(0))
	require.Equal(t, []int{3, 4}, b.Row(1))
}

func TestArray2dTranspose(t *testing.T) {
	a := NewArray2d[int](2, 3)
	require.NoError(t, setAll(a, [][]int{{1, 2, 3}, {4, 5, 6}}))
	b := a.Transpose()
	require.Equal(t, 3, b.RowCount())
	require.Equal(t, 2, b.ColumnCount())
	require.Equal(t, []int{1, 4}, b.Row(0))
	require.Equal(t, []int{2, 5}, b.Row(1))
	require.Equal(t, []int{3, 6}, b.Row(2))
}

func TestArray2dClone(t *testing.T) {
	a := NewArray2d[int](1, 2)
	require.NoError(t, setAll(a, [][]int{{1, 2}}))
	b := a.Clone()
	b.Set(0, 0, 99)
	require.Equal(t, 1, a.At(0, 0))
}

func setAll(a *Array2d[int], rows [][]int) error {
	for i, row := range rows {
		for j, v := range row {
			a.Set(i, j, v)
		}
	}
	return nil
}
