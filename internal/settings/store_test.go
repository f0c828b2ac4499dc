package settings

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/webfetch/internal/model"
)

type fakeStorage struct {
	mu      sync.Mutex
	data    []byte
	loads   atomic.Int32
	gate    chan struct{}
	loadErr error
	saveErr error
	removed bool
}

func (f *fakeStorage) Load(ctx context.Context) ([]byte, error) {
	f.loads.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, nil
}

func (f *fakeStorage) Save(ctx context.Context, data []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = data
	return nil
}

func (f *fakeStorage) Remove(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = nil
	f.removed = true
	return nil
}

func TestStore_EnsureNormalizes(t *testing.T) {
	fs := &fakeStorage{data: []byte(`{"firecrawlApiKey":"k","autoOpenNote":"false"}`)}
	st := NewStore(fs)

	got, err := st.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "k", got.FirecrawlAPIKey)
	assert.False(t, got.AutoOpenNote)
	assert.Equal(t, model.ServiceFirecrawl, got.DefaultService)

	_, err = st.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), fs.loads.Load())
	assert.Equal(t, got, st.Get())
}

func TestStore_EnsureFirstRun(t *testing.T) {
	st := NewStore(&fakeStorage{})
	got, err := st.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
}

func TestStore_EnsureCoalescesConcurrentLoads(t *testing.T) {
	fs := &fakeStorage{gate: make(chan struct{}), data: []byte(`{"defaultService":"jina"}`)}
	st := NewStore(fs)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]model.PluginSettings, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := st.Ensure(context.Background())
			assert.NoError(t, err)
			results[i] = s
		}()
	}

	close(fs.gate)
	wg.Wait()

	assert.Equal(t, int32(1), fs.loads.Load())
	for _, r := range results {
		assert.Equal(t, model.ServiceJina, r.DefaultService)
	}
}

func TestStore_EnsureErrorIsRetried(t *testing.T) {
	fs := &fakeStorage{loadErr: errors.New("kernel offline")}
	st := NewStore(fs)

	got, err := st.Ensure(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel offline")
	assert.Equal(t, Defaults(), got)

	fs.loadErr = nil
	fs.data = []byte(`{"defaultNotebookId":"nb"}`)
	got, err = st.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "nb", got.DefaultNotebookID)
	assert.Equal(t, int32(2), fs.loads.Load())
}

func TestStore_SavePersistsImmediately(t *testing.T) {
	fs := &fakeStorage{}
	st := NewStore(fs)

	next := Defaults()
	next.FirecrawlAPIKey = "fc-1"
	next.DefaultService = model.ServiceJina
	require.NoError(t, st.Save(context.Background(), next))

	assert.Equal(t, next, st.Get())
	var stored map[string]any
	require.NoError(t, json.Unmarshal(fs.data, &stored))
	assert.Equal(t, "fc-1", stored["firecrawlApiKey"])
	assert.Equal(t, "jina", stored["defaultService"])
	assert.Equal(t, true, stored["autoOpenNote"])

	// Saved record round-trips through normalization unchanged.
	assert.Equal(t, next, Normalize(fs.data))
}

func TestStore_SaveFailureKeepsCurrent(t *testing.T) {
	fs := &fakeStorage{saveErr: errors.New("disk full")}
	st := NewStore(fs)

	next := Defaults()
	next.FirecrawlAPIKey = "fc-1"
	err := st.Save(context.Background(), next)
	require.Error(t, err)
	assert.Equal(t, Defaults(), st.Get())
}

func TestStore_Update(t *testing.T) {
	fs := &fakeStorage{data: []byte(`{"firecrawlApiKey":"old","defaultNotebookId":"nb"}`)}
	st := NewStore(fs)

	key := " new "
	got, err := st.Update(context.Background(), Patch{FirecrawlAPIKey: &key})
	require.NoError(t, err)
	assert.Equal(t, "new", got.FirecrawlAPIKey)
	assert.Equal(t, "nb", got.DefaultNotebookID)
	assert.Equal(t, got, Normalize(fs.data))
}

func TestStore_Remove(t *testing.T) {
	fs := &fakeStorage{data: []byte(`{"firecrawlApiKey":"k"}`)}
	st := NewStore(fs)
	_, err := st.Ensure(context.Background())
	require.NoError(t, err)

	require.NoError(t, st.Remove(context.Background()))
	assert.True(t, fs.removed)
	assert.Equal(t, Defaults(), st.Get())

	got, err := st.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
	assert.Equal(t, int32(2), fs.loads.Load())
}

func TestStore_SaveDuringLoadWins(t *testing.T) {
	fs := &fakeStorage{data: []byte(`{"firecrawlApiKey":"stale"}`), gate: make(chan struct{})}
	st := NewStore(fs)

	done := make(chan model.PluginSettings)
	go func() {
		got, err := st.Ensure(context.Background())
		assert.NoError(t, err)
		done <- got
	}()

	require.Eventually(t, func() bool { return fs.loads.Load() == 1 }, time.Second, time.Millisecond)

	next := Defaults()
	next.FirecrawlAPIKey = "fresh"
	require.NoError(t, st.Save(context.Background(), next))
	close(fs.gate)

	got := <-done
	assert.Equal(t, "fresh", got.FirecrawlAPIKey)
	assert.Equal(t, "fresh", st.Get().FirecrawlAPIKey)
}

func TestStore_EnsureIgnoresFirstCallerCancel(t *testing.T) {
	fs := &fakeStorage{data: []byte(`{"firecrawlApiKey":"k"}`), gate: make(chan struct{})}
	st := NewStore(fs)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := st.Ensure(ctx)
		first <- err
	}()
	require.Eventually(t, func() bool { return fs.loads.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan model.PluginSettings, 1)
	go func() {
		got, err := st.Ensure(context.Background())
		assert.NoError(t, err)
		second <- got
	}()

	cancel()
	close(fs.gate)

	require.NoError(t, <-first)
	assert.Equal(t, "k", (<-second).FirecrawlAPIKey)
	assert.Equal(t, int32(1), fs.loads.Load())
}
