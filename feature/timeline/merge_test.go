package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(refs []Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ID
	}
	return out
}

func TestMergeByTime(t *testing.T) {
	home := []Ref{
		{ID: "5", Kind: "post", PostedAt: 500},
		{ID: "3", Kind: "post", PostedAt: 300},
		{ID: "1", Kind: "post", PostedAt: 100},
	}
	mentions := []Ref{
		{ID: "4", Kind: "post", PostedAt: 400},
		{ID: "3", Kind: "post", PostedAt: 300},
		{ID: "2", Kind: "post", PostedAt: 100},
	}

	got := MergeByTime(home, mentions)
	assert.Equal(t, []string{"5", "4", "3", "2", "1"}, ids(got))
}

func TestMergeByTime_TieBreaksOnID(t *testing.T) {
	a := []Ref{{ID: "9", Kind: "post", PostedAt: 1}}
	b := []Ref{{ID: "10", Kind: "post", PostedAt: 1}}
	assert.Equal(t, []string{"10", "9"}, ids(MergeByTime(a, b)))
}

func TestMergeByTime_KindsDoNotCollide(t *testing.T) {
	a := []Ref{{ID: "1", Kind: "post", PostedAt: 2}}
	b := []Ref{{ID: "1", Kind: "account"}}
	assert.Len(t, MergeByTime(a, b), 2)
}

func TestMergeByTime_Empty(t *testing.T) {
	assert.Empty(t, MergeByTime())
	assert.Empty(t, MergeByTime(nil, []Ref{}))
}
