package pager

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		existing []item
		incoming []item
		want     []int
	}{
		{name: "empty", want: []int{}},
		{name: "append", existing: []item{{ID: 1}}, incoming: []item{{ID: 2}}, want: []int{1, 2}},
		{name: "overlap keeps first", existing: []item{{ID: 1}, {ID: 2}}, incoming: []item{{ID: 2}, {ID: 3}}, want: []int{1, 2, 3}},
		{name: "duplicates within page", incoming: []item{{ID: 4}, {ID: 4}, {ID: 5}}, want: []int{4, 5}},
		{name: "all duplicates", existing: []item{{ID: 1}}, incoming: []item{{ID: 1}}, want: []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Merge(tt.existing, tt.incoming)))
		})
	}
}

func TestMerge_DoesNotAliasInput(t *testing.T) {
	existing := make([]item, 1, 8)
	existing[0] = item{ID: 1}

	merged := Merge(existing, []item{{ID: 2}})
	merged[0].Name = "changed"

	assert.Equal(t, "", existing[0].Name)
}

func TestUpsertAndRemove(t *testing.T) {
	items := []item{{ID: 1}, {ID: 2}}

	assert.Equal(t, []int{3, 1, 2}, ids(Upsert(items, item{ID: 3}, true)))
	assert.Equal(t, []int{1, 2, 3}, ids(Upsert(items, item{ID: 3}, false)))
	assert.Equal(t, []int{1, 2}, ids(Upsert(items, item{ID: 2, Name: "x"}, true)))
	assert.Equal(t, []int{2}, ids(Remove(items, 1)))
	assert.Equal(t, []int{1, 2}, ids(Remove(items, 9)))
}

type displayErr struct{ text string }

func (e displayErr) Error() string   { return "raw " + e.text }
func (e displayErr) Display() string { return e.text }

func TestMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback string
		want     string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: errors.New("API error: 404 Not Found"), want: "API error: 404 Not Found"},
		{name: "wrapped", err: fmt.Errorf("load: %w", errors.New("x")), want: "load: x"},
		{name: "wrapped displayer", err: fmt.Errorf("get locations page 2: %w", displayErr{"API error: 500 boom"}), want: "API error: 500 boom"},
		{name: "empty uses fallback", err: errors.New(" "), fallback: "try again", want: "try again"},
		{name: "empty default fallback", err: errors.New(""), want: DefaultFallbackMessage},
		{name: "timeout", err: context.DeadlineExceeded, fallback: "down", want: "Request timed out. down"},
		{name: "cancelled", err: context.Canceled, want: "Request cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err, tt.fallback))
		})
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "PaginationError", PhasePaginationError.String())
	assert.Equal(t, "Unknown", Phase(99).String())
}
