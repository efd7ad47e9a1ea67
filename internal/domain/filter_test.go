package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterMatch(t *testing.T) {
	plant := Plant{
		Country:    "China",
		ISO3:       "CHN",
		Year:       iptr(2005),
		CapacityMW: fptr(1200),
		ResVolMCM:  fptr(39300),
	}

	t.Run("zero filter matches everything", func(t *testing.T) {
		assert.True(t, Filter{}.Match(plant))
		assert.True(t, Filter{}.Match(Plant{}))
		assert.True(t, Filter{}.IsZero())
	})

	t.Run("minimum capacity", func(t *testing.T) {
		assert.True(t, Filter{MinCapacityMW: fptr(1000)}.Match(plant))
		assert.True(t, Filter{MinCapacityMW: fptr(1200)}.Match(plant), "bound is inclusive")
		assert.False(t, Filter{MinCapacityMW: fptr(1500)}.Match(plant))
	})

	t.Run("minimum reservoir volume", func(t *testing.T) {
		assert.True(t, Filter{MinResVolMCM: fptr(10000)}.Match(plant))
		assert.False(t, Filter{MinResVolMCM: fptr(50000)}.Match(plant))
	})

	t.Run("year range is inclusive", func(t *testing.T) {
		in := Filter{Years: &YearRange{Start: 2000, End: 2010}}
		assert.True(t, in.Match(plant), "2005 inside [2000,2010]")

		edges := Filter{Years: &YearRange{Start: 2005, End: 2005}}
		assert.True(t, edges.Match(plant), "bounds themselves are included")

		old := plant
		old.Year = iptr(1995)
		assert.False(t, in.Match(old), "1995 outside [2000,2010]")
	})

	t.Run("missing value on a filtered field excludes", func(t *testing.T) {
		blank := Plant{Country: "China"}
		assert.False(t, Filter{MinCapacityMW: fptr(0)}.Match(blank))
		assert.False(t, Filter{MinResVolMCM: fptr(0)}.Match(blank))
		assert.False(t, Filter{Years: &YearRange{Start: 1900, End: 2100}}.Match(blank))
	})

	t.Run("country multi-select", func(t *testing.T) {
		assert.True(t, Filter{Countries: []string{"Brazil", "China"}}.Match(plant))
		assert.False(t, Filter{Countries: []string{"Brazil", "Norway"}}.Match(plant))
	})
}

func TestApplyFilter(t *testing.T) {
	rows := []Plant{
		{Country: "China", Year: iptr(2005), CapacityMW: fptr(1200)},
		{Country: "Brazil", Year: iptr(2010), CapacityMW: fptr(850)},
		{Country: "Canada", Year: iptr(1995), CapacityMW: fptr(500)},
		{Country: "Norway", Year: nil, CapacityMW: fptr(300)},
	}

	t.Run("applies every bound", func(t *testing.T) {
		f := Filter{
			MinCapacityMW: fptr(600),
			Years:         &YearRange{Start: 2000, End: 2010},
		}

		got := ApplyFilter(rows, f)

		require.Len(t, got, 2)
		assert.Equal(t, "China", got[0].Country)
		assert.Equal(t, "Brazil", got[1].Country)
	})

	t.Run("idempotent", func(t *testing.T) {
		f := Filter{MinCapacityMW: fptr(600), Years: &YearRange{Start: 2000, End: 2010}}

		once := ApplyFilter(rows, f)
		twice := ApplyFilter(once, f)

		assert.Equal(t, once, twice)
	})

	t.Run("empty result is valid", func(t *testing.T) {
		got := ApplyFilter(rows, Filter{MinCapacityMW: fptr(99999)})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("preserves input order", func(t *testing.T) {
		got := ApplyFilter(rows, Filter{MinCapacityMW: fptr(0)})
		require.Len(t, got, 3, "row with missing capacity excluded even at min 0")
		assert.Equal(t, "China", got[0].Country)
		assert.Equal(t, "Brazil", got[1].Country)
		assert.Equal(t, "Canada", got[2].Country)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		before := len(rows)
		_ = ApplyFilter(rows, Filter{Countries: []string{"China"}})
		assert.Len(t, rows, before)
	})
}

func TestComputeBounds(t *testing.T) {
	t.Run("observed extrema", func(t *testing.T) {
		rows := []Plant{
			{Country: "China", Year: iptr(2005), CapacityMW: fptr(1200), ResVolMCM: fptr(39300)},
			{Country: "Brazil", Year: iptr(2010), CapacityMW: fptr(850)},
			{Country: "Canada", Year: iptr(1995), CapacityMW: nil, ResVolMCM: fptr(120)},
			{Country: "Brazil"},
		}

		b := ComputeBounds(rows)

		require.NotNil(t, b.MinCapacityMW)
		assert.Equal(t, 850.0, *b.MinCapacityMW)
		require.NotNil(t, b.MaxCapacityMW)
		assert.Equal(t, 1200.0, *b.MaxCapacityMW)
		require.NotNil(t, b.MinResVolMCM)
		assert.Equal(t, 120.0, *b.MinResVolMCM)
		require.NotNil(t, b.MaxResVolMCM)
		assert.Equal(t, 39300.0, *b.MaxResVolMCM)
		require.NotNil(t, b.MinYear)
		assert.Equal(t, 1995, *b.MinYear)
		require.NotNil(t, b.MaxYear)
		assert.Equal(t, 2010, *b.MaxYear)
		assert.Equal(t, []string{"Brazil", "Canada", "China"}, b.Countries)
	})

	t.Run("empty table has nil extrema", func(t *testing.T) {
		b := ComputeBounds(nil)

		assert.Nil(t, b.MinCapacityMW)
		assert.Nil(t, b.MaxCapacityMW)
		assert.Nil(t, b.MinYear)
		assert.Nil(t, b.MaxYear)
		assert.Empty(t, b.Countries)
	})

	t.Run("single value collapses min and max", func(t *testing.T) {
		b := ComputeBounds([]Plant{{Country: "Norway", CapacityMW: fptr(300)}})

		require.NotNil(t, b.MinCapacityMW)
		require.NotNil(t, b.MaxCapacityMW)
		assert.Equal(t, *b.MinCapacityMW, *b.MaxCapacityMW)
	})
}
