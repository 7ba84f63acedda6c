package store

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{
		"type":     {"offer"},
		"location": {"  Nairobi "},
		"owner_id": {"12"},
		"ignored":  {"x"},
		"category": {""},
	}
	filters, err := FiltersFromQuery(values, PostFilters)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Filter{
		{Column: "type", Op: OpEq, Value: "offer"},
		{Column: "location", Op: OpILike, Value: "Nairobi"},
		{Column: "owner_id", Op: OpEq, Value: uint(12)},
	}, filters)
}

func TestFiltersFromQuery_BadValue(t *testing.T) {
	_, err := FiltersFromQuery(url.Values{"owner_id": {"abc"}}, PostFilters)
	assert.Error(t, err)

	_, err = FiltersFromQuery(url.Values{"from": {"next tuesday"}}, EventFilters)
	assert.Error(t, err)
}

func TestFiltersFromQuery_EventRange(t *testing.T) {
	filters, err := FiltersFromQuery(url.Values{"from": {"2026-05-01"}, "to": {"2026-05-31T23:59:59Z"}}, EventFilters)
	require.NoError(t, err)
	require.Len(t, filters, 2)
	assert.Equal(t, Filter{Column: "start_at", Op: OpGTE, Value: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}, filters[0])
	assert.Equal(t, OpLTE, filters[1].Op)
}

func TestAllowed_DropsUnknownColumns(t *testing.T) {
	in := []Filter{
		{Column: "status", Op: OpEq, Value: "active"},
		{Column: "password", Op: OpEq, Value: "x"},
		{Column: "status", Op: OpILike, Value: "act"},
		{Column: "category", Op: OpEq, Value: "   "},
	}
	assert.Equal(t, []Filter{{Column: "status", Op: OpEq, Value: "active"}}, allowed(in, PostFilters))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\d`, escapeLike(`c:\d`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "0", "-1", "1.5", "abc"} {
		_, err := ParseID(bad)
		assert.Error(t, err, bad)
	}
}
