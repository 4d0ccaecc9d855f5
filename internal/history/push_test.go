package history

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestPush(t *testing.T) {
	tests := []struct {
		name     string
		history  []string
		sel      string
		capacity int
		want     []string
	}{
		{name: "into empty history", history: nil, sel: "a", capacity: 3, want: []string{"a"}},
		{name: "new selector goes first", history: []string{"b", "c"}, sel: "a", capacity: 3, want: []string{"a", "b", "c"}},
		{name: "existing selector moves to front", history: []string{"b", "a", "c"}, sel: "a", capacity: 3, want: []string{"a", "b", "c"}},
		{name: "already first stays single", history: []string{"a", "b"}, sel: "a", capacity: 3, want: []string{"a", "b"}},
		{name: "oldest entry falls off", history: []string{"b", "c", "d"}, sel: "a", capacity: 3, want: []string{"a", "b", "c"}},
		{name: "duplicate at the tail of a full history", history: []string{"b", "c", "a"}, sel: "a", capacity: 3, want: []string{"a", "b", "c"}},
		{name: "empty selector leaves history alone", history: []string{"b", "c"}, sel: "", capacity: 3, want: []string{"b", "c"}},
		{name: "empty selector on empty history", history: nil, sel: "", capacity: 3, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Push(tt.history, tt.sel, tt.capacity)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Push() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPush_DefaultCapacity(t *testing.T) {
	var h []string
	for i := 0; i < 25; i++ {
		h = Push(h, fmt.Sprintf("div:nth-child(%d)", i), 0)
	}
	assert.Len(t, h, 10)
	assert.Equal(t, "div:nth-child(24)", h[0])
	assert.Equal(t, "div:nth-child(15)", h[9])
}

func TestPush_DoesNotModifyInput(t *testing.T) {
	in := []string{"b", "a", "c"}
	_ = Push(in, "a", 3)
	assert.Equal(t, []string{"b", "a", "c"}, in)
}

func TestPush_Unique(t *testing.T) {
	var h []string
	for _, s := range []string{"a", "b", "a", "c", "b", "a", "d"} {
		h = Push(h, s, 10)
	}
	if diff := cmp.Diff([]string{"d", "a", "b", "c"}, h); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}
