package learner

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/nickcrew/claude-ctx/internal/config"
	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/logging"
)

// HistoryStore owns history.jsonl: an append-only log of SessionRecords
// pruned by the retention policy (spec §4 Lifecycle, §9 Open Question:
// "180 days or 5000 records, pruned on every 100th append" is the
// decision recorded in the design ledger for the unstated original
// trigger/limit).
type HistoryStore struct {
	path       string
	retention  config.RetentionConfig
	appendsSeen int
}

// NewHistoryStore opens the history store rooted at workspace/data.
func NewHistoryStore(workspaceRoot string, retention config.RetentionConfig) *HistoryStore {
	return &HistoryStore{
		path:      filepath.Join(workspaceRoot, "data", "history.jsonl"),
		retention: retention,
	}
}

func (h *HistoryStore) lockPath() string {
	return h.path + ".lock"
}

// Append writes one SessionRecord, then prunes every PruneEvery calls
// (spec §4.D, §5: "exclusion lock held for the duration of a single
// append").
func (h *HistoryStore) Append(rec SessionRecord) error {
	release, err := (fileLock{path: h.lockPath()}).acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "creating history directory")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return ctxerr.Wrap(ctxerr.Invariant, err, "marshaling session record")
	}

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "opening history.jsonl")
	}
	_, werr := f.Write(append(data, '\n'))
	cerr := f.Close()
	if werr != nil {
		return ctxerr.Wrap(ctxerr.IO, werr, "appending to history.jsonl")
	}
	if cerr != nil {
		return ctxerr.Wrap(ctxerr.IO, cerr, "closing history.jsonl")
	}

	h.appendsSeen++
	if h.retention.PruneEvery > 0 && h.appendsSeen%h.retention.PruneEvery == 0 {
		if perr := h.prune(); perr != nil {
			logging.Get(logging.CategoryLearner).Warnw("history prune failed", "error", perr)
		}
	}
	return nil
}

// All returns every SessionRecord currently on disk, in append order.
// A missing history.jsonl is treated as an empty history rather than
// an error: no sessions have been recorded yet.
func (h *HistoryStore) All() ([]SessionRecord, error) {
	f, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ctxerr.Wrap(ctxerr.IO, err, "reading history.jsonl")
	}
	defer f.Close()

	var records []SessionRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec SessionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // skip a corrupt line rather than fail the whole read
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, ctxerr.Wrap(ctxerr.IO, err, "scanning history.jsonl")
	}
	return records, nil
}

// PruneNow forces an immediate prune outside the normal every-Nth-append
// schedule, for the out-of-band ctx-maintain utility, and returns the
// number of records retained.
func (h *HistoryStore) PruneNow() (int, error) {
	if err := h.prune(); err != nil {
		return 0, err
	}
	all, err := h.All()
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// Recent returns at most the last n SessionRecords.
func (h *HistoryStore) Recent(n int) ([]SessionRecord, error) {
	all, err := h.All()
	if err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(all) {
		return all, nil
	}
	return all[len(all)-n:], nil
}

// prune rewrites history.jsonl keeping at most MaxRecords entries no
// older than MaxAge, via stage+rename so a crash mid-prune never
// leaves a partially-written file (spec §5 invariant: "no operation
// partially mutates a file's contents").
func (h *HistoryStore) prune() error {
	all, err := h.All()
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-h.retention.MaxAge)
	kept := make([]SessionRecord, 0, len(all))
	for _, rec := range all {
		if h.retention.MaxAge > 0 && rec.Timestamp.Before(cutoff) {
			continue
		}
		kept = append(kept, rec)
	}
	if h.retention.MaxRecords > 0 && len(kept) > h.retention.MaxRecords {
		kept = kept[len(kept)-h.retention.MaxRecords:]
	}
	if len(kept) == len(all) {
		return nil
	}

	tmp := h.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return ctxerr.Wrap(ctxerr.IO, err, "staging pruned history")
	}
	w := bufio.NewWriter(f)
	for _, rec := range kept {
		data, merr := json.Marshal(rec)
		if merr != nil {
			continue
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return ctxerr.Wrap(ctxerr.IO, err, "flushing pruned history")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return ctxerr.Wrap(ctxerr.IO, err, "closing pruned history")
	}
	if err := os.Rename(tmp, h.path); err != nil {
		os.Remove(tmp)
		return ctxerr.Wrap(ctxerr.IO, err, "renaming pruned history into place")
	}
	logging.Get(logging.CategoryLearner).Infow("history pruned", "kept", len(kept), "dropped", len(all)-len(kept))
	return nil
}
