package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sells-group/webfetch/internal/config"
	"github.com/sells-group/webfetch/pkg/siyuan"
)

// fakeKernel emulates the kernel endpoints the commands use, with an
// in-memory file store.
type fakeKernel struct {
	srv *httptest.Server

	mu      sync.Mutex
	files   map[string][]byte
	created []siyuan.CreateDocRequest
}

func newFakeKernel(t *testing.T) *fakeKernel {
	t.Helper()
	k := &fakeKernel{files: make(map[string][]byte)}
	k.srv = httptest.NewServer(http.HandlerFunc(k.handle))
	t.Cleanup(k.srv.Close)
	return k
}

func (k *fakeKernel) handle(w http.ResponseWriter, r *http.Request) {
	k.mu.Lock()
	defer k.mu.Unlock()

	switch r.URL.Path {
	case "/api/notebook/lsNotebooks":
		w.Write([]byte(`{"code":0,"msg":"","data":{"notebooks":[{"id":"nb1","name":"Inbox","closed":false},{"id":"nb2","name":"Old","closed":true}]}}`))
	case "/api/filetree/createDocWithMd":
		var req siyuan.CreateDocRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		k.created = append(k.created, req)
		w.Write([]byte(`{"code":0,"msg":"","data":"20240101120000-abcdefg"}`))
	case "/api/file/getFile":
		var body struct{ Path string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		data, ok := k.files[body.Path]
		if !ok {
			w.WriteHeader(http.StatusAccepted)
			w.Write([]byte(`{"code":404,"msg":"file does not exist"}`))
			return
		}
		w.Write(data)
	case "/api/file/putFile":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		k.files[r.FormValue("path")] = data
		w.Write([]byte(`{"code":0,"msg":"","data":null}`))
	case "/api/file/removeFile":
		var body struct{ Path string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		delete(k.files, body.Path)
		w.Write([]byte(`{"code":0,"msg":"","data":null}`))
	default:
		http.NotFound(w, r)
	}
}

func (k *fakeKernel) setFile(path, content string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.files[path] = []byte(content)
}

func (k *fakeKernel) file(path string) ([]byte, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	data, ok := k.files[path]
	return data, ok
}

func (k *fakeKernel) createdDocs() []siyuan.CreateDocRequest {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]siyuan.CreateDocRequest(nil), k.created...)
}

const testSettingsPath = "/data/storage/petal/siyuan-plugin-web-fetch/web-fetch-settings"

// testConfig returns defaults pointing at the fake kernel.
func testConfig(kernelURL, jinaURL string) *config.Config {
	c := &config.Config{}
	c.SiYuan.BaseURL = kernelURL
	c.SiYuan.PluginName = "siyuan-plugin-web-fetch"
	c.Jina.BaseURL = jinaURL
	c.Scrape.MaxAttempts = 1
	c.Lang = "en_US"
	c.Server.Port = 8080
	return c
}
