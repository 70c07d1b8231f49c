package helpers

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	parse := func(query string) PageRequest {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/x?"+query, nil)
		return ParsePaginationParams(c, 15, 100)
	}

	t.Run("Defaults", func(t *testing.T) {
		assert.Equal(t, PageRequest{Page: 1, PerPage: 15}, parse(""))
		assert.Equal(t, PageRequest{Page: 1, PerPage: 15}, parse("page=abc&per_page=-3"))
	})

	t.Run("ExplicitAndCapped", func(t *testing.T) {
		assert.Equal(t, PageRequest{Page: 3, PerPage: 20}, parse("page=3&per_page=20"))
		assert.Equal(t, PageRequest{Page: 2, PerPage: 100}, parse("page=2&per_page=500"))
	})

	t.Run("OffsetLimit", func(t *testing.T) {
		offset, limit := CalculateOffsetLimit(3, 10)
		assert.Equal(t, uint64(20), offset)
		assert.Equal(t, uint64(10), limit)

		offset, _ = CalculateOffsetLimit(0, 10)
		assert.Equal(t, uint64(0), offset)
	})

	t.Run("HugePage_OffsetStaysInRange", func(t *testing.T) {
		req := parse("page=100000000000000000&per_page=100")
		assert.Equal(t, 100, req.PerPage)
		assert.LessOrEqual(t, req.Page, math.MaxInt/100)

		offset, _ := CalculateOffsetLimit(req.Page, req.PerPage)
		assert.LessOrEqual(t, offset, uint64(math.MaxInt64))

		offset, limit := CalculateOffsetLimit(math.MaxInt, 1)
		assert.LessOrEqual(t, offset, uint64(math.MaxInt64))
		assert.Equal(t, uint64(1), limit)
	})

	t.Run("PaginationInfo", func(t *testing.T) {
		info := NewPaginationInfo(21, 2, 10)
		assert.Equal(t, 3, info.TotalPages)
		assert.Equal(t, 2, info.CurrentPage)
		assert.Equal(t, int64(21), info.TotalItems)

		empty := NewPaginationInfo(0, 1, 10)
		assert.Equal(t, 1, empty.TotalPages)
	})
}

func TestSearchHelpers(t *testing.T) {
	t.Run("SplitSearchTerms", func(t *testing.T) {
		assert.Equal(t, []string{"Jane", "Doe"}, SplitSearchTerms("  Jane \t Doe "))
		assert.Empty(t, SplitSearchTerms("   "))
	})

	t.Run("ContainsPattern_EscapesWildcards", func(t *testing.T) {
		assert.Equal(t, "%Jane%", ContainsPattern("Jane"))
		assert.Equal(t, `%50\%\_off\\%`, ContainsPattern(`50%_off\`))
	})

	t.Run("ParseBoolParam", func(t *testing.T) {
		for _, raw := range []string{"1", "true", "YES", "on"} {
			v, err := ParseBoolParam(raw)
			require.NoError(t, err)
			assert.True(t, v, raw)
		}
		for _, raw := range []string{"0", "false", "no", "Off"} {
			v, err := ParseBoolParam(raw)
			require.NoError(t, err)
			assert.False(t, v, raw)
		}
		_, err := ParseBoolParam("maybe")
		assert.Error(t, err)
	})
}

func TestTimeAndStringHelpers(t *testing.T) {
	t.Run("DateOnly", func(t *testing.T) {
		loc := time.FixedZone("X", 3*3600)
		in := time.Date(2024, 1, 1, 23, 30, 0, 0, loc)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DateOnly(in))
	})

	t.Run("ParseDate", func(t *testing.T) {
		d, err := ParseDate("2024-02-29")
		require.NoError(t, err)
		assert.Equal(t, "2024-02-29", d.Format(DateLayout))

		_, err = ParseDate("2024-13-01")
		assert.Error(t, err)
	})

	t.Run("NilIfBlank", func(t *testing.T) {
		blank := "  "
		text := " hi "
		assert.Nil(t, NilIfBlank(nil))
		assert.Nil(t, NilIfBlank(&blank))
		require.NotNil(t, NilIfBlank(&text))
		assert.Equal(t, "hi", *NilIfBlank(&text))
	})

	t.Run("UniqueInt64s", func(t *testing.T) {
		assert.Equal(t, []int64{3, 1, 2}, UniqueInt64s([]int64{3, 1, 3, 2, 1}))
		assert.Empty(t, UniqueInt64s(nil))
	})
}
