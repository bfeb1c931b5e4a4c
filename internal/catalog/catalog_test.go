package catalog

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/orderbot/internal/provider"
)

func mustServices(t *testing.T, raw string) []provider.Service {
	t.Helper()
	var services []provider.Service
	require.NoError(t, json.Unmarshal([]byte(raw), &services))
	return services
}

func TestCleanName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Instagram Likes [Instant] (Max 10K) Server 3", "Instagram Likes"},
		{"TikTok  Views   server12", "TikTok Views"},
		{"Plain Name", "Plain Name"},
		{"   ", ""},
		{"Observers Count", "Observers Count"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CleanName(tc.in), "input %q", tc.in)
	}
}

func TestCleanNameTruncatesLongNames(t *testing.T) {
	long := "Very Long Service Name That Keeps Going And Going"
	got := CleanName(long)
	require.LessOrEqual(t, len([]rune(got)), maxNameLength+3)
	require.True(t, len(got) > 3 && got[len(got)-3:] == "...")
}

func TestBuildAppliesMarginAndDedupes(t *testing.T) {
	services := mustServices(t, `[
		{"id":1,"name":"Likes [Fast]","category":"Instagram","price":1000,"min":10,"max":1000,"refill":true},
		{"id":2,"name":"Likes (Server 2)","category":"Instagram","price":1200,"min":10,"max":1000},
		{"id":3,"name":"Likes [Fast]","category":"TikTok","price":500,"min":10,"max":1000}
	]`)

	c := Build(services, 20)
	require.Equal(t, 1, c.Len())

	item, ok := c.ByID(1)
	require.True(t, ok)
	require.Equal(t, "Likes", item.Name)
	require.InDelta(t, 1200.0, item.PricePerK, 0.001)

	// Rows cleaning to an already-seen name are dropped, the first
	// occurrence wins even across categories.
	_, ok = c.ByID(2)
	require.False(t, ok)
	_, ok = c.ByID(3)
	require.False(t, ok)

	require.Equal(t, []string{"Instagram"}, c.Categories())
}

func TestCategoryPageOutOfRangeResets(t *testing.T) {
	var rows string
	for i := 0; i < 10; i++ {
		if i > 0 {
			rows += ","
		}
		rows += fmt.Sprintf(`{"id":%d,"name":"Svc %d","category":"Cat %d","price":100,"min":1,"max":10}`, i+1, i+1, i+1)
	}
	c := Build(mustServices(t, "["+rows+"]"), 0)

	names, current, total := c.CategoryPage(0)
	require.Equal(t, 2, total)
	require.Equal(t, 0, current)
	require.Len(t, names, CategoryPageSize)

	names, current, _ = c.CategoryPage(1)
	require.Equal(t, 1, current)
	require.Len(t, names, 2)

	// Any out-of-range index resets to the first page.
	_, current, _ = c.CategoryPage(2)
	require.Equal(t, 0, current)
	_, current, _ = c.CategoryPage(-1)
	require.Equal(t, 0, current)
	_, current, _ = c.CategoryPage(7)
	require.Equal(t, 0, current)
}

func TestCategoryPageEmptyCatalog(t *testing.T) {
	c := Build(nil, 10)
	names, current, total := c.CategoryPage(0)
	require.Nil(t, names)
	require.Zero(t, current)
	require.Zero(t, total)
}

func TestTotalRoundsToNearestUnit(t *testing.T) {
	require.Equal(t, int64(600), Total(1200, 500))
	require.Equal(t, int64(2), Total(1500, 1)) // 1.5 rounds up
	require.Equal(t, int64(0), Total(400, 1))  // 0.4 rounds down
	require.Equal(t, int64(12345), Total(12345, 1000))
}

func TestAdjustedPrice(t *testing.T) {
	require.InDelta(t, 1150.0, AdjustedPrice(1000, 15), 0.001)
	require.InDelta(t, 1000.0, AdjustedPrice(1000, 0), 0.001)
}
