// Package advisor implements the auto-breakpoint advisor: a best-effort
// call to a suggestion endpoint that proposes breakpoints for the current
// file set. Suggestions are inserted through the shared breakpoint store;
// the advisor is never required for core operation and none of its failures
// propagate to the session.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/polyrun/debug-client/internal/breakpoints"
	"github.com/polyrun/debug-client/internal/errors"
	"github.com/polyrun/debug-client/internal/paths"
	"github.com/polyrun/debug-client/pkg/types"
)

// FileSource is the editor collaborator providing the current file set and
// live content.
type FileSource interface {
	Files() []types.FileDescriptor
	Content(fileID string) (string, bool)
}

// suggestRequest is the body of POST /breakpoints/auto.
type suggestRequest struct {
	Language string          `json:"language"`
	Files    []types.RunFile `json:"files"`
}

// suggestResponse is the success body of POST /breakpoints/auto.
type suggestResponse struct {
	Breakpoints []suggestion `json:"breakpoints"`
}

type suggestion struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Advisor calls the suggestion endpoint and inserts the results.
type Advisor struct {
	url    string
	httpc  *http.Client
	files  FileSource
	store  *breakpoints.Store
	logger *slog.Logger

	// busy rejects overlapping invocations outright; requests are not
	// queued.
	busy atomic.Bool
}

// New creates an advisor targeting the given suggestion endpoint.
func New(url string, files FileSource, store *breakpoints.Store, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{
		url:    url,
		httpc:  &http.Client{Timeout: 30 * time.Second},
		files:  files,
		store:  store,
		logger: logger,
	}
}

// Suggest sends the current file set to the suggestion service and inserts
// any breakpoint that does not already exist, up to the store's capacity.
// The report is always well-formed; network and validation failures are
// carried in it rather than returned.
func (a *Advisor) Suggest(ctx context.Context, language string) types.AdvisorReport {
	if !a.busy.CompareAndSwap(false, true) {
		return types.AdvisorReport{
			Outcome: types.AdvisorBusy,
			Message: errors.AdvisorBusy().Message,
		}
	}
	defer a.busy.Store(false)

	descriptors := a.files.Files()
	idx := paths.BuildIndex(descriptors)

	req := suggestRequest{Language: language}
	for _, fd := range descriptors {
		content, ok := a.files.Content(fd.FileID)
		if !ok {
			continue
		}
		req.Files = append(req.Files, types.RunFile{Name: fd.FilePath, Content: content})
	}

	suggestions, err := a.fetch(ctx, req)
	if err != nil {
		a.logger.Warn("breakpoint suggestion failed", "error", err)
		return types.AdvisorReport{
			Outcome: types.AdvisorError,
			Message: errors.AdvisorFailed(err).Message,
		}
	}

	inserted := 0
	for _, sug := range suggestions {
		fd, ok := resolveSuggestion(idx, sug.File)
		if !ok {
			// Suggestions for files outside the current set are dropped
			// silently.
			continue
		}
		_, added, err := a.store.Add(fd.FileID, sug.Line, "")
		if err != nil {
			// Store at capacity; nothing further can be inserted.
			break
		}
		if added {
			inserted++
		}
	}

	if inserted == 0 {
		return types.AdvisorReport{
			Outcome: types.AdvisorEmpty,
			Message: "no new breakpoints suggested",
		}
	}
	return types.AdvisorReport{
		Outcome:  types.AdvisorInserted,
		Inserted: inserted,
		Message:  fmt.Sprintf("inserted %d suggested breakpoints", inserted),
	}
}

func (a *Advisor) fetch(ctx context.Context, req suggestRequest) ([]suggestion, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpc.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("suggestion service returned status %d", resp.StatusCode)
	}

	var parsed suggestResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unreadable suggestion response: %w", err)
	}
	return parsed.Breakpoints, nil
}

// resolveSuggestion maps a suggested file reference back to a descriptor,
// trying the exact reference, its canonical path, and the bare filename in
// turn.
func resolveSuggestion(idx *paths.Index, file string) (types.FileDescriptor, bool) {
	if fd, ok := idx.Resolve(file); ok {
		return fd, true
	}
	if fd, ok := idx.Resolve(paths.Canonicalize(file)); ok {
		return fd, true
	}
	for _, fd := range idx.Descriptors() {
		if fd.FileName == file {
			return fd, true
		}
	}
	return types.FileDescriptor{}, false
}
