package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/storage"
	"github.com/poiesic/symfind/storage/dir"
)

const searchDir = "testdata/search"

func readSearchIndex(t *testing.T) []byte {
	t.Helper()
	payload, err := os.ReadFile(filepath.Join(searchDir, "searchdata.js"))
	require.NoError(t, err)
	return payload
}

func TestParseSearchIndex(t *testing.T) {
	payload := readSearchIndex(t)

	tests := []struct {
		section     string
		wantContent string
	}{
		{section: "all", wantContent: "abcdefghiklmnoprstuvwxyz"},
		{section: "variables", wantContent: "abcdefghiklmnopqrstuvwxy"},
		{section: "functions", wantContent: "_acd~"},
	}
	for _, tt := range tests {
		t.Run(tt.section, func(t *testing.T) {
			layout, err := ParseSearchIndex(payload, tt.section)
			require.NoError(t, err)
			assert.Equal(t, tt.section, layout.Section)
			assert.Equal(t, tt.wantContent, layout.Content)
			assert.Equal(t, tt.section+"_%s.js", layout.PathPattern())
		})
	}

	_, err := ParseSearchIndex(payload, "defines")
	assert.ErrorIs(t, err, ErrUnknownSection)

	_, err = ParseSearchIndex([]byte("var searchData=[];"), "all")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDoxygenLayout_FileKeys(t *testing.T) {
	variables := &DoxygenLayout{Section: "variables", Content: "abcdefghiklmnopqrstuvwxy"}
	functions := &DoxygenLayout{Section: "functions", Content: "_acd~"}

	tests := []struct {
		name   string
		layout *DoxygenLayout
		key    core.ShardKey
		want   []core.ShardKey
	}{
		{name: "first letter", layout: variables, key: "a", want: []core.ShardKey{"0"}},
		{name: "hex numbering", layout: variables, key: "r", want: []core.ShardKey{"10"}},
		{name: "skipped letter", layout: variables, key: "j"},
		{name: "catch-all gathers symbols", layout: functions, key: core.CatchAllKey, want: []core.ShardKey{"0", "4"}},
		{name: "letter after symbol", layout: functions, key: "c", want: []core.ShardKey{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.layout.FileKeys(tt.key))
		})
	}
}

func TestDoxygenCodec_DecodesDoxygenOutput(t *testing.T) {
	tests := []struct {
		file        string
		key         core.ShardKey
		wantEntries int
	}{
		{file: "all_0.js", key: "a", wantEntries: 174},
		{file: "variables_10.js", key: "r", wantEntries: 49},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			payload, err := os.ReadFile(filepath.Join(searchDir, tt.file))
			require.NoError(t, err)

			shard, malformed, err := (&DoxygenCodec{}).Decode(tt.key, payload)
			require.NoError(t, err)
			assert.Empty(t, malformed)
			require.Len(t, shard.Entries, tt.wantEntries)
			for _, e := range shard.Entries {
				assert.True(t, strings.HasPrefix(e.NormalizedName, string(tt.key)), "%s filed under %s", e.Name, tt.key)
			}
		})
	}
}

func TestDoxygenCodec_OwnerScopeFromDoxygenOutput(t *testing.T) {
	payload, err := os.ReadFile(filepath.Join(searchDir, "all_0.js"))
	require.NoError(t, err)
	shard, _, err := (&DoxygenCodec{}).Decode("a", payload)
	require.NoError(t, err)

	var acia *core.Entry
	for i := range shard.Entries {
		if shard.Entries[i].Name == "acia6850" {
			acia = &shard.Entries[i]
		}
	}
	require.NotNil(t, acia)

	scopes := make(map[string]string)
	for _, target := range acia.Targets {
		scopes[target.Anchor] = target.Scope
	}
	assert.Equal(t, "", scopes["../namespaceacia6850.html"])
	assert.Equal(t, "", scopes["../bbc__submodules_8h.html#a2689e042521fe4e461ec3b6edc42d35d"])
	assert.Equal(t, "acia6850", scopes["../group__acia6850.html#ga271b089729adae13742dbb8d4afe3d4a"])
	assert.Equal(t, "", scopes["../group__acia6850.html"])
}

func TestDoxygenSource_Fetch(t *testing.T) {
	layout, err := ParseSearchIndex(readSearchIndex(t), "all")
	require.NoError(t, err)
	files, err := dir.NewSource(searchDir, layout.PathPattern())
	require.NoError(t, err)
	source, err := NewDoxygenSource(files, layout)
	require.NoError(t, err)
	assert.Equal(t, files.Location(), source.Location())

	store, err := NewStore(source, WithCodec(&DoxygenCodec{}))
	require.NoError(t, err)

	shard, err := store.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, shard.Entries, 174)

	// "b" is listed in the section but its file is not in testdata.
	_, err = store.Load(context.Background(), "b")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// "j" has no file at all.
	_, err = source.Fetch(context.Background(), "j")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = source.Fetch(context.Background(), "ab")
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestDoxygenSource_MergesCatchAllFiles(t *testing.T) {
	root := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(body), 0o644))
	}
	write("functions_0.js", "var searchData=\n[\n  ['_5finit',['_init',['../a.html#a1',1,'hal::_init()']]],\n];\n")
	write("functions_4.js", "var searchData=\n[\n  ['_7etimer',['~Timer',['../classTimer.html#a2',1,'hal::Timer::~Timer()']]]\n];\n")

	layout := &DoxygenLayout{Section: "functions", Content: "_acd~"}
	files, err := dir.NewSource(root, layout.PathPattern())
	require.NoError(t, err)
	source, err := NewDoxygenSource(files, layout)
	require.NoError(t, err)

	payload, err := source.Fetch(context.Background(), core.CatchAllKey)
	require.NoError(t, err)

	shard, malformed, err := (&DoxygenCodec{Category: core.KindFunction}).Decode(core.CatchAllKey, payload)
	require.NoError(t, err)
	assert.Empty(t, malformed)
	require.Len(t, shard.Entries, 2)
	names := []string{shard.Entries[0].Name, shard.Entries[1].Name}
	assert.ElementsMatch(t, []string{"_init", "~Timer"}, names)
}

func TestNewDoxygenSource_Errors(t *testing.T) {
	_, err := NewDoxygenSource(nil, &DoxygenLayout{Section: "all"})
	assert.ErrorIs(t, err, ErrSourceRequired)

	files, err := dir.NewSource(searchDir, "all_%s.js")
	require.NoError(t, err)
	_, err = NewDoxygenSource(files, nil)
	assert.ErrorIs(t, err, ErrUnknownSection)
}
