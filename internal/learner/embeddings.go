package learner

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
)

// EmbeddingStore owns the optional embeddings.jsonl (spec §4.D): one
// {session_id, vector} per recorded session, only written when a
// Vectorizer is configured. Its absence is a first-class state handled
// by the semantic stream simply finding nothing to compare against.
type EmbeddingStore struct {
	path string
}

// NewEmbeddingStore opens the embedding store rooted at workspace/data.
func NewEmbeddingStore(workspaceRoot string) *EmbeddingStore {
	return &EmbeddingStore{path: filepath.Join(workspaceRoot, "data", "embeddings.jsonl")}
}

func (e *EmbeddingStore) lockPath() string { return e.path + ".lock" }

// Append records one session's embedding vector.
func (e *EmbeddingStore) Append(sessionID string, vector []float32) error {
	release, err := (fileLock{path: e.lockPath()}).acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "creating embeddings directory")
	}

	rec := embeddingRecord{SessionID: sessionID, Vector: vector}
	data, err := json.Marshal(rec)
	if err != nil {
		return ctxerr.Wrap(ctxerr.Invariant, err, "marshaling embedding record")
	}

	f, err := os.OpenFile(e.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "opening embeddings.jsonl")
	}
	_, werr := f.Write(append(data, '\n'))
	cerr := f.Close()
	if werr != nil {
		return ctxerr.Wrap(ctxerr.IO, werr, "appending to embeddings.jsonl")
	}
	return cerr
}

// All returns every embedding currently on disk, in append order. A
// missing embeddings.jsonl is an empty set, not an error.
func (e *EmbeddingStore) All() ([]embeddingRecord, error) {
	f, err := os.Open(e.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ctxerr.Wrap(ctxerr.IO, err, "reading embeddings.jsonl")
	}
	defer f.Close()

	var records []embeddingRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec embeddingRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, ctxerr.Wrap(ctxerr.IO, err, "scanning embeddings.jsonl")
	}
	return records, nil
}
