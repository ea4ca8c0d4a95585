package engine

import (
	"context"
	"fmt"

	"github.com/vk/chartbook/internal/book"
	"github.com/vk/chartbook/internal/ctxlog"
)

// LoadBook finds, parses, and merges one or more HCL book files from a
// given path into a single collection. Files merge in lexical path order
// so the resulting insertion order is stable across runs.
func LoadBook(ctx context.Context, bookPath string) (book.Collection, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("LoadBook started.", "path", bookPath)

	hclFiles, err := ResolveBookPath(ctx, bookPath)
	if err != nil {
		return book.Collection{}, fmt.Errorf("failed to resolve book path '%s': %w", bookPath, err)
	}

	if len(hclFiles) == 0 {
		logger.Warn("No .hcl files found at the specified path.", "path", bookPath)
		return book.Collection{}, nil
	}

	logger.Info("Found HCL files to process.", "count", len(hclFiles), "path", bookPath)

	collections := make([]book.Collection, 0, len(hclFiles))
	for _, file := range hclFiles {
		c, err := DecodeBookFile(ctx, file)
		if err != nil {
			return book.Collection{}, fmt.Errorf("failed to load book file '%s': %w", file, err)
		}
		collections = append(collections, c)
	}

	merged := book.Merge(collections...)
	logger.Debug("Finished loading and merging book files.", "files", len(hclFiles), "total_items", merged.Len())
	return merged, nil
}
