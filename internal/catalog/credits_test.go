package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCrew(t *testing.T) {
	crew := []CrewMember{
		{ID: 1, Name: "Gaffer", Job: "Gaffer"},
		{ID: 2, Name: "Dir", Job: "Director"},
		{ID: 3, Name: "Comp", Job: "Music"},
		{ID: 4, Name: "Edit", Job: "Editor"},
		{ID: 5, Name: "Writer", Job: "Screenplay"},
	}

	got := KeyCrew(crew)

	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 3, 5}, []int{got[0].ID, got[1].ID, got[2].ID})
}

func TestKeyCrew_Capped(t *testing.T) {
	var crew []CrewMember
	for i := 0; i < 20; i++ {
		crew = append(crew, CrewMember{ID: i, Job: "Producer"})
	}
	assert.Len(t, KeyCrew(crew), MaxKeyCrew)
	assert.Empty(t, KeyCrew(nil))
}

func TestTopCast(t *testing.T) {
	cast := []CastMember{
		{ID: 30, Order: 3},
		{ID: 10, Order: 1},
		{ID: 0, Order: 0},
		{ID: 20, Order: 2},
	}

	got := TopCast(cast, 2)

	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ID)
	assert.Equal(t, 10, got[1].ID)
	// input is left untouched
	assert.Equal(t, 30, cast[0].ID)

	assert.Len(t, TopCast(cast, 12), 4)
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"popular", CategoryPopular, false},
		{"now_playing", CategoryNowPlaying, false},
		{"now-playing", CategoryNowPlaying, false},
		{"top-rated", CategoryTopRated, false},
		{"upcoming", CategoryUpcoming, false},
		{"search", CategorySearch, false},
		{"trending", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Now Playing", CategoryNowPlaying.Label())
	assert.Equal(t, "Search", CategorySearch.Label())
	assert.False(t, CategorySearch.IsListing())
	assert.True(t, CategoryTopRated.IsListing())
}
