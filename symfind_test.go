package symfind

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/index"
	"github.com/poiesic/symfind/search"
	"github.com/poiesic/symfind/storage"
)

func writeShards(t *testing.T, entries ...core.Entry) string {
	t.Helper()
	root := t.TempDir()
	for _, shard := range index.Partition(entries, index.DefaultKeyLength) {
		payload, err := index.EncodeJSON(shard.Entries)
		require.NoError(t, err)
		path := filepath.Join(root, storage.ShardPath("", shard.Key))
		require.NoError(t, os.WriteFile(path, payload, 0o644))
	}
	return root
}

func sampleEntries() []core.Entry {
	return []core.Entry{
		core.NewEntry("acia6850", core.Target{Anchor: "group__acia6850.html", Kind: core.KindNamespace}),
		core.NewEntry("addr_control_status",
			core.Target{Anchor: "group__acia6850.html#gga1", Scope: "acia6850", Kind: core.KindEnumValue}),
		core.NewEntry("Timer",
			core.Target{Anchor: "classTimer.html", Kind: core.KindClass},
			core.Target{Anchor: "hal_8h.html#a1", Scope: "hal", Kind: core.KindFunction}),
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symfind.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
location = "https://docs.example.com/html/search"
codec = "doxygen"
key_length = 2
doxygen_section = "functions"
fetch_timeout = "3s"
fetch_rate = 5.0
debounce = "80ms"
group_limit = 10
kind_order = ["function", "class"]
result_cache_size = 0
cache_dir = "/var/cache/symfind"

[s3]
endpoint = "localhost:9000"
insecure = true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com/html/search", cfg.Location)
	assert.Equal(t, "doxygen", cfg.Codec)
	assert.Equal(t, 2, cfg.KeyLength)
	assert.Equal(t, "functions", cfg.DoxygenSection)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 5.0, cfg.FetchRate)
	assert.Equal(t, 80*time.Millisecond, cfg.Debounce)
	assert.Equal(t, []string{"function", "class"}, cfg.KindOrder)
	require.NotNil(t, cfg.ResultCacheSize)
	assert.Equal(t, 0, *cfg.ResultCacheSize)
	assert.Equal(t, "localhost:9000", cfg.S3.Endpoint)
	assert.True(t, cfg.S3.Insecure)

	searchConfig, err := cfg.SearchConfig()
	require.NoError(t, err)
	assert.Equal(t, 80*time.Millisecond, searchConfig.Debounce)
	assert.Equal(t, 10, searchConfig.GroupLimit)
	assert.Equal(t, []core.Kind{core.KindFunction, core.KindClass}, searchConfig.KindOrder)
	assert.Equal(t, 0, searchConfig.ResultCacheSize)
	assert.Equal(t, 4, searchConfig.Workers)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("location = \"x\"\ndebounse = \"1s\"\n"), 0o644))
	_, err := LoadConfig(unknown)
	assert.ErrorIs(t, err, search.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "debounse")

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestConfig_SearchConfigDefaults(t *testing.T) {
	cfg, err := (&Config{}).SearchConfig()
	require.NoError(t, err)
	assert.Equal(t, search.DefaultConfig(), cfg)

	_, err = (&Config{KindOrder: []string{"widget"}}).SearchConfig()
	assert.ErrorIs(t, err, search.ErrInvalidConfig)

	_, err = (&Config{GroupLimit: -1}).SearchConfig()
	assert.ErrorIs(t, err, search.ErrInvalidConfig)
}

func TestConfig_OpenSource(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name         string
		cfg          Config
		wantLocation string
		wantErr      error
	}{
		{name: "plain directory", cfg: Config{Location: root}, wantLocation: "file://" + filepath.ToSlash(root)},
		{name: "file url", cfg: Config{Location: "file://" + filepath.ToSlash(root)}, wantLocation: "file://" + filepath.ToSlash(root)},
		{name: "https", cfg: Config{Location: "https://docs.example.com/search", FetchRate: 2}, wantLocation: "https://docs.example.com/search/"},
		{name: "s3", cfg: Config{Location: "s3://docs/html/search", S3: S3Config{Endpoint: "localhost:9000"}}, wantLocation: "s3://docs/html/search"},
		{name: "s3 without endpoint", cfg: Config{Location: "s3://docs/search"}, wantErr: storage.ErrInvalidLocation},
		{name: "missing directory", cfg: Config{Location: filepath.Join(root, "nope")}, wantErr: storage.ErrInvalidLocation},
		{name: "unsupported scheme", cfg: Config{Location: "ftp://docs.example.com"}, wantErr: storage.ErrInvalidLocation},
		{name: "bad pattern", cfg: Config{Location: root, PathPattern: "%d.js"}, wantErr: storage.ErrInvalidLocation},
		{name: "empty", cfg: Config{}, wantErr: ErrLocationRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := tt.cfg.OpenSource()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLocation, source.Location())
		})
	}
}

func TestOpen_Search(t *testing.T) {
	root := writeShards(t, sampleEntries()...)

	finder, err := Open(&Config{Location: root})
	require.NoError(t, err)
	defer finder.Close()

	results, err := finder.Search(context.Background(), "acia")
	require.NoError(t, err)
	require.Len(t, results.Groups, 2)
	assert.Equal(t, core.KindEnumValue, results.Groups[0].Kind)
	assert.Equal(t, "addr_control_status", results.Groups[0].Hits[0].Name)
	assert.Equal(t, core.KindNamespace, results.Groups[1].Kind)
	assert.Empty(t, results.Failed)

	results, err = finder.Search(context.Background(), "timer")
	require.NoError(t, err)
	assert.Len(t, results.Groups, 2)
}

func TestOpen_Sessions(t *testing.T) {
	root := writeShards(t, sampleEntries()...)

	finder, err := Open(&Config{Location: root, Debounce: time.Millisecond})
	require.NoError(t, err)
	defer finder.Close()

	delivered := make(chan *search.Results, 1)
	finder.OnResults(func(r *search.Results) { delivered <- r })
	finder.SubmitQuery("Timer")

	select {
	case r := <-delivered:
		assert.Equal(t, "timer", r.Query)
		assert.Equal(t, uint64(1), r.Generation)
		assert.Equal(t, 2, r.Len())
	case <-time.After(5 * time.Second):
		t.Fatal("no results delivered")
	}
}

func TestOpen_PersistentCache(t *testing.T) {
	root := writeShards(t, sampleEntries()...)
	cacheDir := t.TempDir()
	cfg := &Config{Location: root, CacheDir: cacheDir}

	finder, err := Open(cfg)
	require.NoError(t, err)
	_, err = finder.Search(context.Background(), "timer")
	require.NoError(t, err)
	require.NoError(t, finder.Close())

	// Shards come back from the cache once the payloads are gone.
	require.NoError(t, os.Remove(filepath.Join(root, "t.json")))

	finder, err = Open(cfg)
	require.NoError(t, err)
	defer finder.Close()
	results, err := finder.Search(context.Background(), "timer")
	require.NoError(t, err)
	assert.Empty(t, results.Failed)
	assert.Equal(t, 2, results.Len())
}

func hitNames(results *search.Results, kind core.Kind) []string {
	group := results.Group(kind)
	if group == nil {
		return nil
	}
	names := make([]string, len(group.Hits))
	for i, hit := range group.Hits {
		names[i] = hit.Name
	}
	return names
}

func TestOpen_PersistentCacheSeparatesLayouts(t *testing.T) {
	root := t.TempDir()
	write := func(pattern string, entry core.Entry) {
		payload, err := index.EncodeJSON([]core.Entry{entry})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(root, storage.ShardPath(pattern, "a")), payload, 0o644))
	}
	write("classes_%s.json", core.NewEntry("alpha_class", core.Target{Anchor: "classAlpha.html", Kind: core.KindClass}))
	write("functions_%s.json", core.NewEntry("alpha_fn", core.Target{Anchor: "alpha_8h.html#a1", Kind: core.KindFunction}))
	cacheDir := t.TempDir()

	find := func(cfg *Config) *search.Results {
		finder, err := Open(cfg)
		require.NoError(t, err)
		defer finder.Close()
		results, err := finder.Search(context.Background(), "alpha")
		require.NoError(t, err)
		return results
	}

	classes := find(&Config{Location: root, PathPattern: "classes_%s.json", CacheDir: cacheDir})
	assert.Equal(t, []string{"alpha_class"}, hitNames(classes, core.KindClass))

	functions := find(&Config{Location: root, PathPattern: "functions_%s.json", CacheDir: cacheDir})
	assert.Equal(t, []string{"alpha_fn"}, hitNames(functions, core.KindFunction))
	assert.Nil(t, functions.Group(core.KindClass))

	// Codec and key length are part of the namespace too.
	cfg := &Config{Location: root, PathPattern: "functions_%s.json", CacheDir: cacheDir}
	base := cfg.cacheNamespace(mustSource(t, cfg), &index.JSONCodec{}, 1)
	assert.NotEqual(t, base, cfg.cacheNamespace(mustSource(t, cfg), &index.JSONCodec{}, 2))
	doxygen, err := index.NewDoxygenCodec("")
	require.NoError(t, err)
	assert.NotEqual(t, base, cfg.cacheNamespace(mustSource(t, cfg), doxygen, 1))
}

func mustSource(t *testing.T, cfg *Config) storage.Source {
	t.Helper()
	source, err := cfg.OpenSource()
	require.NoError(t, err)
	return source
}

func TestOpen_DoxygenSection(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"searchdata.js", "all_0.js"} {
		payload, err := os.ReadFile(filepath.Join("index", "testdata", "search", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(root, name), payload, 0o644))
	}

	finder, err := Open(&Config{Location: root, DoxygenSection: "all"})
	require.NoError(t, err)
	defer finder.Close()

	results, err := finder.Search(context.Background(), "acc_is")
	require.NoError(t, err)
	assert.Empty(t, results.Failed)
	assert.Equal(t, []string{"acc_is_zero"}, hitNames(results, core.KindFunction))

	// "b" is listed in searchdata.js but its file is absent.
	results, err = finder.Search(context.Background(), "bbc")
	require.NoError(t, err)
	assert.Zero(t, results.Len())

	_, err = Open(&Config{Location: root, DoxygenSection: "all", KeyLength: 2})
	assert.ErrorIs(t, err, index.ErrInvalidKeyLength)

	_, err = Open(&Config{Location: root, DoxygenSection: "defines"})
	assert.ErrorIs(t, err, index.ErrUnknownSection)
}

func TestOpen_Metrics(t *testing.T) {
	root := writeShards(t, sampleEntries()...)
	reg := prometheus.NewRegistry()

	finder, err := Open(&Config{Location: root}, WithRegistry(reg))
	require.NoError(t, err)
	defer finder.Close()

	_, err = finder.Search(context.Background(), "acia")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "symfind_shard_loads_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOpen_Errors(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no location", cfg: Config{}},
		{name: "unknown codec", cfg: Config{Location: root, Codec: "yaml"}},
		{name: "bad key length", cfg: Config{Location: root, KeyLength: 7}},
		{name: "bad kind order", cfg: Config{Location: root, KindOrder: []string{"widget"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder, err := Open(&tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, finder)
		})
	}
}

func TestFinder_CloseTwice(t *testing.T) {
	finder, err := Open(&Config{Location: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, finder.Close())
	assert.ErrorIs(t, finder.Close(), search.ErrEngineClosed)
}
