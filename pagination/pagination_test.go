package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name        string
		page, limit string
		want        Params
	}{
		{"defaults", "", "", Params{Page: 1, Limit: DefaultLimit}},
		{"explicit", "3", "25", Params{Page: 3, Limit: 25}},
		{"negative page", "-2", "5", Params{Page: 1, Limit: 5}},
		{"zero limit", "2", "0", Params{Page: 2, Limit: DefaultLimit}},
		{"limit clamped", "1", "1000", Params{Page: 1, Limit: MaxLimit}},
		{"garbage", "abc", "x", Params{Page: 1, Limit: DefaultLimit}},
		{"page capped", "9223372036854775807", "10", Params{Page: MaxPage, Limit: 10}},
		{"page beyond int range", "99999999999999999999999", "10", Params{Page: MaxPage, Limit: 10}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Parse(tc.page, tc.limit))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 40, Params{Page: 3, Limit: 20}.Offset())
	assert.Equal(t, (MaxPage-1)*MaxLimit, Params{Page: math.MaxInt, Limit: math.MaxInt}.Offset())
	assert.Equal(t, 0, Params{Page: -5, Limit: 10}.Offset())
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(Params{Page: 2, Limit: 10}, 25)
	assert.Equal(t, 3, m.Pages)
	assert.True(t, m.HasNext)
	assert.True(t, m.HasPrev)

	m = NewMeta(Params{Page: 1, Limit: 10}, 0)
	assert.Equal(t, 0, m.Pages)
	assert.False(t, m.HasNext)
	assert.False(t, m.HasPrev)

	m = NewMeta(Params{Page: 3, Limit: 10}, 30)
	assert.Equal(t, 3, m.Pages)
	assert.False(t, m.HasNext)
}
