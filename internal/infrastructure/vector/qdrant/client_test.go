package qdrant

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
)

func TestIndexChunksEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "docs")
	doc := &domain.Document{ID: "doc-1", Filename: "a.txt", Namespace: "course"}
	chunks := []string{"a", "b"}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.IndexChunks(context.Background(), doc, chunks, vectors); err != nil {
		t.Fatalf("first IndexChunks() error = %v", err)
	}
	if err := client.IndexChunks(context.Background(), doc, chunks, vectors); err != nil {
		t.Fatalf("second IndexChunks() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/docs" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "docs")
	doc := &domain.Document{ID: "doc-1", Filename: "a.txt"}
	err := client.IndexChunks(context.Background(), doc, []string{"a"}, [][]float32{{0.1, 0.2}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := err.Error(); got == "" || !strings.Contains(got, "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}

func TestSearchMapsPayloadToChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/search" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"result":[
				{"id":"p-1","score":0.91,"payload":{"doc_id":"doc-1","filename":"guide.pdf","chunk_index":3,"text":"formative assessment checks progress"}},
				{"id":"p-2","score":0.72,"payload":{"doc_id":"doc-1","filename":"guide.pdf","chunk_index":4,"text":"summative assessment grades outcomes"}}
			]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "docs")
	chunks, err := client.Search(context.Background(), []float32{0.1, 0.2}, 5, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ID != "p-1" || chunks[0].Filename != "guide.pdf" || chunks[0].ChunkIndex != 3 {
		t.Fatalf("unexpected first chunk %+v", chunks[0])
	}
	if chunks[0].Similarity != 0.91 {
		t.Fatalf("expected similarity 0.91, got %v", chunks[0].Similarity)
	}
}

func TestSearchSendsNamespaceFilter(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/search" {
			buf, _ := io.ReadAll(r.Body)
			gotBody = string(buf)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"result":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "docs")
	_, err := client.Search(context.Background(), []float32{0.1}, 3, domain.SearchFilter{Namespace: "pedagogy"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !strings.Contains(gotBody, `"namespace"`) || !strings.Contains(gotBody, `"pedagogy"`) {
		t.Fatalf("expected namespace filter in request, got %s", gotBody)
	}
}

func TestNeighborsExcludesAnchorPoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"result":[
				{"id":"p-2","payload":{"filename":"guide.pdf","chunk_index":5,"text":"anchor"}}
			]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/scroll":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"result":{"points":[
				{"id":"p-1","payload":{"filename":"guide.pdf","chunk_index":4,"text":"before"}},
				{"id":"p-2","payload":{"filename":"guide.pdf","chunk_index":5,"text":"anchor"}},
				{"id":"p-3","payload":{"filename":"guide.pdf","chunk_index":6,"text":"after"}}
			]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "docs")
	neighbors, err := client.Neighbors(context.Background(), "p-2", 1)
	if err != nil {
		t.Fatalf("Neighbors() error = %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(neighbors))
	}
	for _, n := range neighbors {
		if n.ID == "p-2" {
			t.Fatalf("anchor point should be excluded")
		}
	}
	if neighbors[0].Text != "before" || neighbors[1].Text != "after" {
		t.Fatalf("unexpected neighbor texts %q %q", neighbors[0].Text, neighbors[1].Text)
	}
}

func TestNeighborsUnknownPointReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"result":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "docs")
	neighbors, err := client.Neighbors(context.Background(), "missing", 2)
	if err != nil {
		t.Fatalf("Neighbors() error = %v", err)
	}
	if len(neighbors) != 0 {
		t.Fatalf("expected no neighbors, got %d", len(neighbors))
	}
}
