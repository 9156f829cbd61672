package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/antonvels/edu-rag-chat/internal/core/domain"
	"github.com/antonvels/edu-rag-chat/internal/core/ports"
)

// Router dispatches extraction by file extension, falling back to the default
// extractor for anything unregistered.
type Router struct {
	fallback ports.TextExtractor
	byExt    map[string]ports.TextExtractor
}

func NewRouter(fallback ports.TextExtractor) *Router {
	return &Router{
		fallback: fallback,
		byExt:    make(map[string]ports.TextExtractor),
	}
}

// Register binds an extension (with or without the leading dot) to an
// extractor. Registration is not safe for concurrent use; wire everything at
// startup.
func (r *Router) Register(ext string, e ports.TextExtractor) *Router {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	r.byExt[ext] = e
	return r
}

func (r *Router) Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedText, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(doc.Filename), "."))
	if e, ok := r.byExt[ext]; ok {
		return e.Extract(ctx, doc)
	}
	return r.fallback.Extract(ctx, doc)
}
