package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testBase struct {
	ID      string `db:"id"`
	Version int    `db:"version"`
}

type testEntity struct {
	testBase
	Name      string    `db:"name"`
	Price     float64   `db:"price"`
	CreatedAt time.Time `db:"created_at"`
	Skipped   string    `db:"-"`
	Untagged  string
}

func TestStructToMap(t *testing.T) {
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	e := testEntity{
		testBase:  testBase{ID: "abc", Version: 3},
		Name:      "widget",
		Price:     9.5,
		CreatedAt: now,
		Skipped:   "x",
		Untagged:  "y",
	}

	m := StructToMap(e)

	assert.Equal(t, "abc", m["id"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, "widget", m["name"])
	assert.Equal(t, 9.5, m["price"])
	assert.Equal(t, now, m["created_at"])
	assert.NotContains(t, m, "-")
	assert.NotContains(t, m, "Skipped")
	assert.NotContains(t, m, "Untagged")
	assert.Len(t, m, 5)
}

func TestStructToMapPointer(t *testing.T) {
	e := &testEntity{testBase: testBase{ID: "p1"}}
	m := StructToMap(e)
	assert.Equal(t, "p1", m["id"])
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns(testEntity{})
	assert.Equal(t, []string{"id", "version", "name", "price", "created_at"}, cols)
}

func TestExtractDBColumnsPointer(t *testing.T) {
	cols := ExtractDBColumns(&testEntity{})
	assert.Equal(t, []string{"id", "version", "name", "price", "created_at"}, cols)
}
