package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEntry(t *testing.T) {
	valid := Target{Anchor: "group__acia6850.html", Kind: KindNamespace}

	tests := []struct {
		name    string
		entry   *Entry
		wantErr error
	}{
		{
			name:    "valid entry",
			entry:   &Entry{Name: "acia6850", NormalizedName: "acia6850", Targets: []Target{valid}},
			wantErr: nil,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantErr: ErrInvalidEntry,
		},
		{
			name:    "empty name",
			entry:   &Entry{Targets: []Target{valid}},
			wantErr: ErrEmptyName,
		},
		{
			name:    "missing normalized name",
			entry:   &Entry{Name: "x", Targets: []Target{valid}},
			wantErr: ErrEmptyName,
		},
		{
			name:    "no targets",
			entry:   &Entry{Name: "x", NormalizedName: "x"},
			wantErr: ErrNoTargets,
		},
		{
			name: "target without anchor",
			entry: &Entry{Name: "x", NormalizedName: "x", Targets: []Target{
				{Kind: KindFunction},
			}},
			wantErr: ErrEmptyAnchor,
		},
		{
			name: "target with unknown kind",
			entry: &Entry{Name: "x", NormalizedName: "x", Targets: []Target{
				{Anchor: "x.html", Kind: "widget"},
			}},
			wantErr: ErrUnknownKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntry(tt.entry)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidEntry)
		})
	}
}

func TestIsSorted(t *testing.T) {
	target := Target{Anchor: "x.html", Kind: KindVariable}
	sorted := &Shard{Key: "a", Entries: []Entry{
		NewEntry("Apple", target),
		NewEntry("apples", target),
		NewEntry("azure", target),
	}}
	assert.True(t, IsSorted(sorted))

	unsorted := &Shard{Key: "a", Entries: []Entry{
		NewEntry("azure", target),
		NewEntry("Apple", target),
	}}
	assert.False(t, IsSorted(unsorted))
	assert.True(t, IsSorted(&Shard{Key: "a"}))
}

func TestShardErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")

	loadErr := &ShardLoadError{Key: "a", Err: cause}
	assert.ErrorIs(t, loadErr, cause)
	assert.Contains(t, loadErr.Error(), `shard "a"`)

	malformed := &MalformedEntryError{Key: "b", Index: 3, Err: cause}
	assert.ErrorIs(t, malformed, cause)
	assert.Contains(t, malformed.Error(), "malformed entry 3")
}
