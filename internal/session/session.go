// Package session holds the per-user interactive state: the selected note,
// the text last loaded or saved for it, and the transient log of
// evaluations run during the session.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/knoweval/internal/archive"
	"github.com/ziadkadry99/knoweval/internal/audit"
	"github.com/ziadkadry99/knoweval/internal/evaluator"
	"github.com/ziadkadry99/knoweval/internal/knowledge"
)

// ProgressFunc receives staged progress while an evaluation runs.
type ProgressFunc func(current, total int, message string)

// Deps are the collaborators shared by every session.
type Deps struct {
	Store     *knowledge.Store
	Archive   *archive.Archive
	Evaluator *evaluator.Evaluator
	// Audit is optional.
	Audit  audit.Logger
	Logger *zap.Logger
	// Source tags audit entries with the surface driving the session.
	Source audit.Source
}

// Request describes one evaluation. Content is the editor text, which may
// differ from what is saved on disk.
type Request struct {
	File    string
	Content string
	Focus   evaluator.Focus
	Model   string
}

// Entry is one line of the transient evaluation log.
type Entry struct {
	File      string            `json:"file"`
	Timestamp time.Time         `json:"timestamp"`
	Model     string            `json:"model"`
	Focus     evaluator.Focus   `json:"focus"`
	Raw       string            `json:"raw,omitempty"`
	Result    *evaluator.Result `json:"result,omitempty"`
	Err       string            `json:"error,omitempty"`
}

// Outcome is a successful evaluation and where it was archived.
type Outcome struct {
	Evaluation *evaluator.Evaluation `json:"evaluation"`
	Record     string                `json:"record"`
	Path       string                `json:"path"`
}

// Section kinds, used by the surfaces to color the panels.
const (
	KindPositive   = "positive"
	KindNegative   = "negative"
	KindSuggestion = "suggestion"
	KindRaw        = "raw"
)

// Section is one displayable part of an evaluation.
type Section struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Sections returns the non-empty feedback sections in display order. When
// all three are empty the raw response is returned as a single section.
func (o *Outcome) Sections() []Section {
	return SectionsFor(o.Evaluation.Result, o.Evaluation.Raw)
}

// SectionsFor builds display sections from a result and its raw text.
func SectionsFor(r evaluator.Result, raw string) []Section {
	var out []Section
	add := func(kind, title, body string) {
		if strings.TrimSpace(body) != "" {
			out = append(out, Section{Kind: kind, Title: title, Body: body})
		}
	}
	add(KindPositive, "What's Right", r.WhatsRight)
	add(KindNegative, "What's Wrong", r.WhatsWrong)
	add(KindSuggestion, "Recommendations", r.Recommendations)
	if len(out) == 0 {
		out = append(out, Section{Kind: KindRaw, Title: "Raw Response", Body: raw})
	}
	return out
}

// Session is the state of one interactive session. It is safe for
// concurrent use; evaluations are serialized.
type Session struct {
	ID      string
	Created time.Time

	deps Deps
	log  *zap.Logger

	evalMu sync.Mutex

	mu       sync.Mutex
	selected string
	baseline string
	lastUsed time.Time
	entries  []Entry
}

// New creates a session with the given ID.
func New(id string, deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Source == "" {
		deps.Source = audit.SourceCLI
	}
	now := time.Now()
	return &Session{
		ID:       id,
		Created:  now,
		deps:     deps,
		log:      logger.With(zap.String("session", id)),
		lastUsed: now,
	}
}

// Store returns the knowledge store behind the session.
func (s *Session) Store() *knowledge.Store { return s.deps.Store }

// Selected returns the selected note and the text last loaded or saved
// for it.
func (s *Session) Selected() (name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.baseline
}

// LastUsed reports when the session last did anything.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Select makes name the current note and returns its content. The editor
// baseline is replaced, never merged.
func (s *Session) Select(name string) (*knowledge.File, error) {
	f, err := s.deps.Store.Get(name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.selected = name
	s.baseline = f.Content
	s.lastUsed = time.Now()
	s.mu.Unlock()
	return f, nil
}

// Save writes text to name when it differs from the last loaded or saved
// text and reports whether a write happened. Saving a note other than the
// selected one compares against its content on disk and selects it.
func (s *Session) Save(ctx context.Context, name, text string) (bool, error) {
	s.mu.Lock()
	selected, baseline := s.selected, s.baseline
	s.mu.Unlock()

	if name != selected {
		current, err := s.deps.Store.Read(name)
		if err != nil {
			return false, err
		}
		baseline = current
	}

	if text == baseline {
		s.setSelection(name, text)
		return false, nil
	}

	if err := s.deps.Store.Update(name, text); err != nil {
		return false, err
	}
	s.setSelection(name, text)
	s.log.Debug("note saved", zap.String("file", name), zap.Int("bytes", len(text)))
	s.audit(ctx, audit.Entry{
		Action:  audit.ActionNoteUpdated,
		File:    name,
		Summary: fmt.Sprintf("Saved %s (%d bytes)", name, len(text)),
	})
	return true, nil
}

// Create makes a new note and selects it.
func (s *Session) Create(ctx context.Context, name, content string) (*knowledge.File, error) {
	f, err := s.deps.Store.Create(name, content)
	if err != nil {
		return nil, err
	}
	s.setSelection(name, content)
	s.log.Info("note created", zap.String("file", name))
	s.audit(ctx, audit.Entry{
		Action:  audit.ActionNoteCreated,
		File:    name,
		Summary: "Created " + name,
	})
	return f, nil
}

// Delete removes a note. The selection is cleared when it was the deleted
// note. Archived evaluations are kept.
func (s *Session) Delete(ctx context.Context, name string) error {
	if err := s.deps.Store.Delete(name); err != nil {
		return err
	}
	s.mu.Lock()
	if s.selected == name {
		s.selected = ""
		s.baseline = ""
	}
	s.lastUsed = time.Now()
	s.mu.Unlock()

	s.log.Info("note deleted", zap.String("file", name))
	s.audit(ctx, audit.Entry{
		Action:  audit.ActionNoteDeleted,
		File:    name,
		Summary: "Deleted " + name,
	})
	return nil
}

// Evaluate runs one evaluation. The attempt is always added to the
// transient log; the result is archived only when the response decoded.
// A second call waits for the first to finish.
func (s *Session) Evaluate(ctx context.Context, req Request, progress ProgressFunc) (*Outcome, error) {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	if _, err := s.deps.Store.Stat(req.File); err != nil {
		return nil, err
	}

	total := len(evaluator.Stages)
	step := func(i int) {
		if progress != nil {
			progress(i+1, total, evaluator.Stages[i])
		}
	}

	step(0)
	step(1)
	step(2)
	started := time.Now()
	ev, err := s.deps.Evaluator.Evaluate(ctx, req.Content, req.Focus, req.Model)
	if err != nil {
		s.appendEntry(Entry{
			File:      req.File,
			Timestamp: time.Now(),
			Model:     req.Model,
			Focus:     req.Focus,
			Err:       err.Error(),
		})
		s.log.Warn("evaluation failed",
			zap.String("file", req.File),
			zap.String("model", req.Model),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		s.audit(ctx, audit.Entry{
			Action:  audit.ActionEvaluationFailed,
			File:    req.File,
			Model:   req.Model,
			Focus:   string(req.Focus),
			Summary: "Evaluation of " + req.File + " failed",
			Detail:  err.Error(),
		})
		return nil, err
	}
	step(3)

	result := ev.Result
	s.appendEntry(Entry{
		File:      req.File,
		Timestamp: time.Now(),
		Model:     ev.Model,
		Focus:     ev.Focus,
		Raw:       ev.Raw,
		Result:    &result,
	})

	path, err := s.deps.Archive.Save(req.File, archive.Record{
		Result:   ev.Result,
		Provider: ev.Provider,
		Model:    ev.Model,
		Focus:    string(ev.Focus),
	})
	if err != nil {
		return nil, fmt.Errorf("archiving evaluation: %w", err)
	}
	record := filepath.Base(path)

	s.log.Info("evaluation recorded",
		zap.String("file", req.File),
		zap.String("model", ev.Model),
		zap.String("focus", string(ev.Focus)),
		zap.String("record", record),
		zap.Int("input_tokens", ev.InputTokens),
		zap.Int("output_tokens", ev.OutputTokens),
		zap.Float64("cost_usd", ev.CostUSD),
		zap.Duration("elapsed", time.Since(started)),
	)
	s.audit(ctx, audit.Entry{
		Action:  audit.ActionEvaluationRecorded,
		File:    req.File,
		Model:   ev.Model,
		Focus:   string(ev.Focus),
		Record:  record,
		Summary: "Evaluated " + req.File,
		Detail:  fmt.Sprintf("%d input tokens, %d output tokens, ~$%.4f", ev.InputTokens, ev.OutputTokens, ev.CostUSD),
	})

	return &Outcome{Evaluation: ev, Record: record, Path: path}, nil
}

// EvaluateFile evaluates the saved content of a note.
func (s *Session) EvaluateFile(ctx context.Context, name string, focus evaluator.Focus, model string, progress ProgressFunc) (*Outcome, error) {
	content, err := s.deps.Store.Read(name)
	if err != nil {
		return nil, err
	}
	return s.Evaluate(ctx, Request{File: name, Content: content, Focus: focus, Model: model}, progress)
}

// History lists the archived records of a note, oldest first.
func (s *Session) History(name string) ([]string, error) {
	return s.deps.Archive.List(name)
}

// Record loads one archived record of a note.
func (s *Session) Record(name, record string) (*archive.Record, error) {
	return s.deps.Archive.Load(name, record)
}

// RecordInfo returns size and modification time of an archived record.
func (s *Session) RecordInfo(name, record string) (*knowledge.FileInfo, error) {
	return s.deps.Archive.Info(name, record)
}

// Log returns a copy of the transient evaluation log.
func (s *Session) Log() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Session) setSelection(name, text string) {
	s.mu.Lock()
	s.selected = name
	s.baseline = text
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func (s *Session) appendEntry(e Entry) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func (s *Session) audit(ctx context.Context, e audit.Entry) {
	if s.deps.Audit == nil {
		return
	}
	e.Source = s.deps.Source
	e.SessionID = s.ID
	// The activity log is a side channel; a failed write never fails the action.
	if err := s.deps.Audit.Log(context.WithoutCancel(ctx), e); err != nil {
		s.log.Warn("recording activity", zap.String("action", string(e.Action)), zap.Error(err))
	}
}
