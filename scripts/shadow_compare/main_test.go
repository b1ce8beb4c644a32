package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareRowsMatchesWithinTolerance(t *testing.T) {
	goBody := []byte(`{"success":true,"data":[{"id_user":"u1","rank":1,"total":7.142857142857143},{"id_user":"u2","rank":2,"total":5.714285714285714}]}`)
	legacyBody := []byte(`{"success":true,"data":[{"id_user":"u2","rank":2,"total":5.7142857},{"id_user":"u1","rank":1,"total":7.1428571}]}`)

	diffs := compareRows(goBody, legacyBody, target{RowsPath: "data"}, 1e-6)

	assert.Empty(t, diffs)
}

func TestCompareRowsReportsDifferences(t *testing.T) {
	goBody := []byte(`{"data":[{"id_user":"u1","rank":2,"total":5},{"id_user":"u3","rank":1,"total":6}]}`)
	legacyBody := []byte(`{"data":[{"id_user":"u1","rank":1,"total":5},{"id_user":"u2","rank":2,"total":4}]}`)

	diffs := compareRows(goBody, legacyBody, target{RowsPath: "data", Fields: []string{"rank"}}, 0)

	assert.Equal(t, []string{
		"id_user=u1 rank: go=2 legacy=1",
		"id_user=u2 missing from go",
		"id_user=u3 missing from legacy",
	}, diffs)
}

func TestBodiesEqualIgnoresKeyOrder(t *testing.T) {
	assert.True(t, bodiesEqual([]byte(`{"a":1,"b":[1,2]}`), []byte(`{"b":[1,2],"a":1}`)))
	assert.False(t, bodiesEqual([]byte(`{"a":1}`), []byte(`{"a":2}`)))
}
