// Package apitest provides an in-memory stand-in for the remote REST API.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// Units served with their reservations nested, the way the API returns
// them.
var nested = map[string]struct {
	source string
	field  string
}{
	"/tables/": {source: "/reservations/", field: "table"},
	"/rooms/":  {source: "/room-reservations/", field: "room"},
}

type Request struct {
	Method string
	Path   string
	Body   string
	Header http.Header
}

type failure struct {
	status int
	body   string
}

type collection struct {
	nextID   int
	items    map[int]map[string]interface{}
	versions map[int]int
}

// Server keeps one collection per resource path and records every
// request.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	collections map[string]*collection
	requests    []Request
	failures    map[string]failure
}

func New(t testing.TB) *Server {
	s := &Server{
		collections: make(map[string]*collection),
		failures:    make(map[string]failure),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) coll(path string) *collection {
	c, ok := s.collections[path]
	if !ok {
		c = &collection{nextID: 1, items: make(map[int]map[string]interface{}), versions: make(map[int]int)}
		s.collections[path] = c
	}
	return c
}

// Seed stores items under path and returns their ids. Items without an id
// get the next free one.
func (s *Server) Seed(path string, items ...interface{}) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(path)
	ids := make([]int, 0, len(items))
	for _, item := range items {
		obj := toMap(item)
		id := intField(obj, "id")
		if id == 0 {
			id = c.nextID
		}
		if id >= c.nextID {
			c.nextID = id + 1
		}
		obj["id"] = id
		if _, ok := obj["created_at"]; !ok || obj["created_at"] == nil {
			obj["created_at"] = time.Now().UTC().Format("2006-01-02T15:04:05.000000")
		}
		c.items[id] = obj
		c.versions[id]++
		ids = append(ids, id)
	}
	return ids
}

// Get decodes the stored item into out.
func (s *Server) Get(path string, id int, out interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.coll(path).items[id]
	if !ok {
		return false
	}
	data, _ := json.Marshal(obj)
	return json.Unmarshal(data, out) == nil
}

func (s *Server) Count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.coll(path).items)
}

// Fail makes every request matching method and path answer with status
// until cleared with Fail(method, path, 0, "").
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(s.failures, key)
		return
	}
	s.failures[key] = failure{status: status, body: body}
}

// Requests returns the recorded requests whose method matches and whose
// path starts with prefix.
func (s *Server) Requests(method, prefix string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if (method == "" || r.Method == method) && strings.HasPrefix(r.Path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: string(body), Header: r.Header.Clone()})
	if f, ok := s.failures[r.Method+" "+r.URL.Path]; ok {
		writeRaw(w, f.status, f.body)
		return
	}

	path, id, err := split(r.URL.Path)
	if err != nil {
		writeRaw(w, http.StatusNotFound, `{"detail":"Not found."}`)
		return
	}
	c := s.coll(path)

	if id == 0 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, s.list(path, c))
		case http.MethodPost:
			obj := map[string]interface{}{}
			if err := json.Unmarshal(body, &obj); err != nil {
				writeRaw(w, http.StatusBadRequest, `{"detail":"JSON parse error"}`)
				return
			}
			delete(obj, "id")
			obj["created_at"] = time.Now().UTC().Format("2006-01-02T15:04:05.000000")
			obj["id"] = c.nextID
			c.items[c.nextID] = obj
			c.versions[c.nextID] = 1
			c.nextID++
			writeJSON(w, http.StatusCreated, s.expand(path, obj))
		default:
			writeRaw(w, http.StatusMethodNotAllowed, `{"detail":"Method not allowed."}`)
		}
		return
	}

	obj, ok := c.items[id]
	if !ok {
		writeRaw(w, http.StatusNotFound, `{"detail":"Not found."}`)
		return
	}
	etag := fmt.Sprintf(`"v%d"`, c.versions[id])

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("ETag", etag)
		writeJSON(w, http.StatusOK, s.expand(path, obj))
	case http.MethodPatch, http.MethodPut:
		if match := r.Header.Get("If-Match"); match != "" && match != etag {
			writeRaw(w, http.StatusPreconditionFailed, `{"detail":"Precondition failed."}`)
			return
		}
		fields := map[string]interface{}{}
		if err := json.Unmarshal(body, &fields); err != nil {
			writeRaw(w, http.StatusBadRequest, `{"detail":"JSON parse error"}`)
			return
		}
		if r.Method == http.MethodPut {
			fields["created_at"] = obj["created_at"]
			obj = fields
		} else {
			for k, v := range fields {
				obj[k] = v
			}
		}
		obj["id"] = id
		c.items[id] = obj
		c.versions[id]++
		w.Header().Set("ETag", fmt.Sprintf(`"v%d"`, c.versions[id]))
		writeJSON(w, http.StatusOK, s.expand(path, obj))
	case http.MethodDelete:
		delete(c.items, id)
		delete(c.versions, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeRaw(w, http.StatusMethodNotAllowed, `{"detail":"Method not allowed."}`)
	}
}

func (s *Server) list(path string, c *collection) []map[string]interface{} {
	ids := make([]int, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.expand(path, c.items[id]))
	}
	return out
}

// expand attaches nested reservations to units.
func (s *Server) expand(path string, obj map[string]interface{}) map[string]interface{} {
	n, ok := nested[path]
	if !ok {
		return obj
	}
	out := make(map[string]interface{}, len(obj)+1)
	for k, v := range obj {
		out[k] = v
	}
	id := intField(obj, "id")
	reservations := []map[string]interface{}{}
	src := s.coll(n.source)
	for _, rid := range sortedIDs(src) {
		if intField(src.items[rid], n.field) == id {
			reservations = append(reservations, src.items[rid])
		}
	}
	out["reservations"] = reservations
	return out
}

func sortedIDs(c *collection) []int {
	ids := make([]int, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// split turns "/tables/3/" into ("/tables/", 3).
func split(p string) (string, int, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	switch len(parts) {
	case 1:
		return "/" + parts[0] + "/", 0, nil
	case 2:
		id, err := strconv.Atoi(parts[1])
		if err != nil || id <= 0 {
			return "", 0, fmt.Errorf("bad id %q", parts[1])
		}
		return "/" + parts[0] + "/", id, nil
	}
	return "", 0, fmt.Errorf("unknown path %q", p)
}

func toMap(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	obj := map[string]interface{}{}
	if err := json.Unmarshal(data, &obj); err != nil {
		panic(err)
	}
	return obj
}

func intField(obj map[string]interface{}, key string) int {
	switch v := obj[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
