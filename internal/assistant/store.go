// Package assistant wraps the OpenAI Assistants API as the remote
// document store: upload a Markdown blob into a vector store, replace it,
// delete it, plus first-run bootstrap of the vector store and assistant.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"kbsync/internal/metrics"
)

const (
	assistantName  = "Support Docs Assistant"
	assistantModel = "gpt-4o-mini"

	assistantInstructions = `You are a customer-support assistant.
- Tone: helpful, factual, concise.
- Only answer using the uploaded docs.
- Max 5 bullet points; else link to the doc.
- Cite up to 3 "Article URL:" lines per reply.`

	callTimeout = 60 * time.Second
)

// Store uploads and removes documents in one OpenAI vector store.
type Store struct {
	client        *openai.Client
	vectorStoreID string
	limiter       *rate.Limiter
}

// NewStore creates a Store bound to an existing vector store id.
func NewStore(apiKey, vectorStoreID string) *Store {
	return &Store{
		client:        openai.NewClient(apiKey),
		vectorStoreID: vectorStoreID,
		// Uploads are paced to stay clear of per-minute API limits.
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
}

// VectorStoreID returns the bound vector store id.
func (s *Store) VectorStoreID() string {
	return s.vectorStoreID
}

// Upload creates a file with purpose "assistants" and attaches it to the
// vector store. The returned file id is the document's remote reference;
// it becomes live only once both steps succeed.
func (s *Store) Upload(ctx context.Context, name string, content []byte) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	start := time.Now()
	file, err := s.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    name,
		Bytes:   content,
		Purpose: openai.PurposeAssistants,
	})
	metrics.StoreOperationDuration.WithLabelValues("upload").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreOperations.WithLabelValues("upload", "error").Inc()
		return "", fmt.Errorf("create file %s: %w", name, err)
	}

	if _, err := s.client.CreateVectorStoreFile(ctx, s.vectorStoreID, openai.VectorStoreFileRequest{
		FileID: file.ID,
	}); err != nil {
		metrics.StoreOperations.WithLabelValues("upload", "error").Inc()
		// The orphaned file is not in the vector store, so it is not live;
		// clean it up on a best-effort basis.
		if delErr := s.client.DeleteFile(ctx, file.ID); delErr != nil {
			slog.Warn("Could not clean up detached file",
				slog.String("file_id", file.ID),
				slog.String("error", delErr.Error()))
		}
		return "", fmt.Errorf("attach file %s to vector store: %w", name, err)
	}

	metrics.StoreOperations.WithLabelValues("upload", "success").Inc()
	return file.ID, nil
}

// Remove detaches a file from the vector store and deletes the file
// object. A file that is already gone counts as removed.
func (s *Store) Remove(ctx context.Context, fileID string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	start := time.Now()
	err := s.client.DeleteVectorStoreFile(ctx, s.vectorStoreID, fileID)
	if err != nil && !isNotFound(err) {
		metrics.StoreOperationDuration.WithLabelValues("remove").Observe(time.Since(start).Seconds())
		metrics.StoreOperations.WithLabelValues("remove", "error").Inc()
		return fmt.Errorf("detach file %s: %w", fileID, err)
	}

	if err := s.client.DeleteFile(ctx, fileID); err != nil && !isNotFound(err) {
		metrics.StoreOperationDuration.WithLabelValues("remove").Observe(time.Since(start).Seconds())
		metrics.StoreOperations.WithLabelValues("remove", "error").Inc()
		return fmt.Errorf("delete file %s: %w", fileID, err)
	}

	metrics.StoreOperationDuration.WithLabelValues("remove").Observe(time.Since(start).Seconds())
	metrics.StoreOperations.WithLabelValues("remove", "success").Inc()
	return nil
}

// Bootstrap ensures the vector store and assistant exist and that the
// assistant's file search points at the current vector store. Resources
// are created on first run; a pre-existing assistant is re-pointed every
// run, since the store id can change through an override or a fresh
// bootstrap. The updated state must be persisted by the caller before
// any uploads happen.
func Bootstrap(ctx context.Context, apiKey string, st State) (State, error) {
	return bootstrap(ctx, openai.NewClient(apiKey), st)
}

func bootstrap(ctx context.Context, client *openai.Client, st State) (State, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if st.VectorStoreID == "" {
		vs, err := client.CreateVectorStore(ctx, openai.VectorStoreRequest{
			Name: "support-articles",
		})
		if err != nil {
			return st, fmt.Errorf("create vector store: %w", err)
		}
		st.VectorStoreID = vs.ID
		slog.Info("Created vector store", slog.String("vector_store_id", vs.ID))
	}

	fileSearch := &openai.AssistantToolResource{
		FileSearch: &openai.AssistantToolFileSearch{
			VectorStoreIDs: []string{st.VectorStoreID},
		},
	}

	if st.AssistantID == "" {
		name := assistantName
		instructions := assistantInstructions
		a, err := client.CreateAssistant(ctx, openai.AssistantRequest{
			Model:        assistantModel,
			Name:         &name,
			Instructions: &instructions,
			Tools: []openai.AssistantTool{
				{Type: openai.AssistantToolTypeFileSearch},
			},
			ToolResources: fileSearch,
		})
		if err != nil {
			return st, fmt.Errorf("create assistant: %w", err)
		}
		st.AssistantID = a.ID
		slog.Info("Created assistant", slog.String("assistant_id", a.ID))
		return st, nil
	}

	if _, err := client.ModifyAssistant(ctx, st.AssistantID, openai.AssistantRequest{
		Model:         assistantModel,
		ToolResources: fileSearch,
	}); err != nil {
		return st, fmt.Errorf("attach vector store to assistant: %w", err)
	}
	slog.Info("Attached vector store to assistant",
		slog.String("assistant_id", st.AssistantID),
		slog.String("vector_store_id", st.VectorStoreID))

	return st, nil
}

func isNotFound(err error) bool {
	var apiErr *openai.APIError
	return errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound
}
