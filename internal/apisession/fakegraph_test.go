package apisession

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const apiVersion = "/v18.0"

// fakeGraph is an in-memory stand-in for the Graph API endpoints the manager
// uses. Connections are served in pages of the requested limit.
type fakeGraph struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	pages     map[string]map[string]any
	posts     map[string][]map[string]any
	comments  map[string][]map[string]any
	insights  map[string][]map[string]any
	denied    map[string]bool
	seq       int
	gets      int
	lastQuery url.Values
}

func newFakeGraph(t *testing.T) *fakeGraph {
	f := &fakeGraph{
		t:        t,
		pages:    map[string]map[string]any{},
		posts:    map[string][]map[string]any{},
		comments: map[string][]map[string]any{},
		insights: map[string][]map[string]any{},
		denied:   map[string]bool{},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGraph) baseURL() string {
	return f.srv.URL + apiVersion
}

func (f *fakeGraph) factory() ClientFactory {
	return NewGraphClientFactory(f.baseURL(), f.srv.Client())
}

func (f *fakeGraph) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeGraph) postCount(pageID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts[pageID])
}

func (f *fakeGraph) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, 100, "bad form")
		return
	}

	token := r.Form.Get("access_token")
	if token == "" || token == "expired" {
		writeError(w, http.StatusBadRequest, 190, "Error validating access token: Session has expired")
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, apiVersion), "/"), "/")

	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		f.gets++
		f.lastQuery = r.URL.Query()
		f.serveConnection(w, r, parts[0], parts[1])
	case r.Method == http.MethodGet && len(parts) == 1:
		f.gets++
		f.serveObject(w, parts[0])
	case r.Method == http.MethodPost && len(parts) == 2:
		f.createEdge(w, r, parts[0], parts[1])
	case r.Method == http.MethodPost && len(parts) == 1:
		f.editObject(w, r, parts[0])
	case r.Method == http.MethodDelete && len(parts) == 1:
		f.deleteObject(w, parts[0])
	default:
		writeError(w, http.StatusNotFound, 803, "unknown path")
	}
}

func (f *fakeGraph) serveConnection(w http.ResponseWriter, r *http.Request, id, connection string) {
	var items []map[string]any
	switch connection {
	case "posts":
		items = f.posts[id]
	case "comments":
		items = f.comments[id]
	case "insights":
		writeJSON(w, map[string]any{"data": f.insights[id]})
		return
	default:
		writeError(w, http.StatusBadRequest, 100, "unknown connection")
		return
	}

	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("after"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 25
	}

	end := min(offset+limit, len(items))
	if offset > end {
		offset = end
	}

	resp := map[string]any{"data": items[offset:end]}
	if end < len(items) {
		next := url.Values{
			"access_token": {q.Get("access_token")},
			"fields":       {q.Get("fields")},
			"limit":        {strconv.Itoa(limit)},
			"after":        {strconv.Itoa(end)},
		}
		resp["paging"] = map[string]any{
			"next": fmt.Sprintf("%s/%s/%s?%s", f.baseURL(), id, connection, next.Encode()),
		}
	}
	writeJSON(w, resp)
}

func (f *fakeGraph) serveObject(w http.ResponseWriter, id string) {
	if page, ok := f.pages[id]; ok {
		writeJSON(w, page)
		return
	}
	if obj := f.find(id); obj != nil {
		writeJSON(w, obj)
		return
	}
	writeError(w, http.StatusBadRequest, 100, "Unsupported get request")
}

func (f *fakeGraph) createEdge(w http.ResponseWriter, r *http.Request, id, connection string) {
	if f.denied[id] {
		writeError(w, http.StatusForbidden, 200, "(#200) The user hasn't authorized the application to perform this action")
		return
	}

	f.seq++
	newID := fmt.Sprintf("%s_%d", id, f.seq)
	obj := map[string]any{"id": newID, "message": r.PostForm.Get("message")}

	switch connection {
	case "feed":
		f.posts[id] = append([]map[string]any{obj}, f.posts[id]...)
	case "comments":
		obj["from"] = map[string]any{"id": "page", "name": "The Page"}
		f.comments[id] = append(f.comments[id], obj)
	default:
		writeError(w, http.StatusBadRequest, 100, "unknown edge")
		return
	}
	writeJSON(w, map[string]any{"id": newID})
}

func (f *fakeGraph) editObject(w http.ResponseWriter, r *http.Request, id string) {
	obj := f.find(id)
	if obj == nil {
		writeError(w, http.StatusBadRequest, 100, "Object does not exist")
		return
	}
	obj["message"] = r.PostForm.Get("message")
	writeJSON(w, map[string]any{"success": true})
}

func (f *fakeGraph) deleteObject(w http.ResponseWriter, id string) {
	for _, store := range []map[string][]map[string]any{f.posts, f.comments} {
		for parent, items := range store {
			for i, item := range items {
				if item["id"] == id {
					store[parent] = append(items[:i:i], items[i+1:]...)
					writeJSON(w, map[string]any{"success": true})
					return
				}
			}
		}
	}
	writeError(w, http.StatusBadRequest, 100, "Object does not exist")
}

func (f *fakeGraph) find(id string) map[string]any {
	for _, store := range []map[string][]map[string]any{f.posts, f.comments} {
		for _, items := range store {
			for _, item := range items {
				if item["id"] == id {
					return item
				}
			}
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message":    msg,
			"type":       "OAuthException",
			"code":       code,
			"fbtrace_id": "trace",
		},
	})
}
