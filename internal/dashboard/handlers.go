package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/knoweval/internal/archive"
	"github.com/ziadkadry99/knoweval/internal/config"
	"github.com/ziadkadry99/knoweval/internal/evaluator"
	"github.com/ziadkadry99/knoweval/internal/knowledge"
	"github.com/ziadkadry99/knoweval/internal/session"
)

// noteInfo is a knowledge file as listed in the sidebar.
type noteInfo struct {
	knowledge.FileInfo
	SizeLabel     string `json:"size_label"`
	ModifiedLabel string `json:"modified_label"`
}

func newNoteInfo(fi knowledge.FileInfo) noteInfo {
	return noteInfo{FileInfo: fi, SizeLabel: fi.SizeLabel(), ModifiedLabel: fi.ModifiedLabel()}
}

type noteResponse struct {
	noteInfo
	Content string `json:"content"`
}

type createRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type saveRequest struct {
	Content string `json:"content"`
}

// evaluateRequest is the body of POST /api/notes/{name}/evaluate and of a
// websocket "evaluate" frame. A nil Content evaluates the saved note.
type evaluateRequest struct {
	Content *string `json:"content"`
	Focus   string  `json:"focus"`
	Model   string  `json:"model"`
}

type renderedSection struct {
	session.Section
	HTML string `json:"html"`
}

type evaluationResponse struct {
	File         string            `json:"file"`
	Record       string            `json:"record"`
	Provider     string            `json:"provider"`
	Model        string            `json:"model"`
	Focus        evaluator.Focus   `json:"focus"`
	Result       evaluator.Result  `json:"result"`
	Sections     []renderedSection `json:"sections"`
	Raw          string            `json:"raw"`
	InputTokens  int               `json:"input_tokens"`
	OutputTokens int               `json:"output_tokens"`
	CostUSD      float64           `json:"cost_usd"`
}

type recordResponse struct {
	File     string            `json:"file"`
	Name     string            `json:"name"`
	Info     noteInfo          `json:"info"`
	Document json.RawMessage   `json:"document"`
	Sections []renderedSection `json:"sections"`
}

type focusOption struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
	Hint  string `json:"hint"`
}

type optionsResponse struct {
	Provider     config.ProviderType `json:"provider"`
	Models       []config.Model      `json:"models"`
	DefaultModel string              `json:"default_model"`
	Focuses      []focusOption       `json:"focuses"`
	Stages       []string            `json:"stages"`
}

type sessionResponse struct {
	ID       string          `json:"id"`
	Selected string          `json:"selected"`
	Log      []session.Entry `json:"log"`
}

func (d *Dashboard) handleListNotes(w http.ResponseWriter, r *http.Request) {
	files, err := d.store.ListInfo()
	if err != nil {
		d.writeError(w, err)
		return
	}
	notes := make([]noteInfo, len(files))
	for i, f := range files {
		notes[i] = newNoteInfo(f)
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

func (d *Dashboard) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	f, err := d.session(w, r).Create(r.Context(), req.Name, req.Content)
	if err != nil {
		d.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, noteResponse{noteInfo: newNoteInfo(f.FileInfo), Content: f.Content})
}

func (d *Dashboard) handleGetNote(w http.ResponseWriter, r *http.Request) {
	f, err := d.session(w, r).Select(noteParam(r))
	if err != nil {
		d.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, noteResponse{noteInfo: newNoteInfo(f.FileInfo), Content: f.Content})
}

func (d *Dashboard) handleSaveNote(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	name := noteParam(r)
	saved, err := d.session(w, r).Save(r.Context(), name, req.Content)
	if err != nil {
		d.writeError(w, err)
		return
	}
	resp := map[string]any{"saved": saved}
	if info, err := d.store.Stat(name); err == nil {
		resp["info"] = newNoteInfo(*info)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (d *Dashboard) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := d.session(w, r).Delete(r.Context(), noteParam(r)); err != nil {
		d.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dashboard) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	// The evaluation runs to completion even if the browser goes away.
	ctx := context.WithoutCancel(r.Context())
	resp, err := d.evaluate(ctx, d.session(w, r), noteParam(r), req, nil)
	if err != nil {
		d.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// evaluate is shared by the HTTP and websocket handlers.
func (d *Dashboard) evaluate(ctx context.Context, s *session.Session, name string, req evaluateRequest, progress session.ProgressFunc) (*evaluationResponse, error) {
	focus, err := evaluator.ParseFocus(req.Focus)
	if err != nil {
		return nil, err
	}
	model := req.Model
	if model == "" {
		model = d.defaultModel
	}

	var out *session.Outcome
	if req.Content == nil {
		out, err = s.EvaluateFile(ctx, name, focus, model, progress)
	} else {
		out, err = s.Evaluate(ctx, session.Request{File: name, Content: *req.Content, Focus: focus, Model: model}, progress)
	}
	if err != nil {
		return nil, err
	}

	ev := out.Evaluation
	return &evaluationResponse{
		File:         name,
		Record:       out.Record,
		Provider:     ev.Provider,
		Model:        ev.Model,
		Focus:        ev.Focus,
		Result:       ev.Result,
		Sections:     d.renderSections(out.Sections()),
		Raw:          ev.Raw,
		InputTokens:  ev.InputTokens,
		OutputTokens: ev.OutputTokens,
		CostUSD:      ev.CostUSD,
	}, nil
}

func (d *Dashboard) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	name := noteParam(r)
	s := d.session(w, r)
	records, err := s.History(name)
	if err != nil {
		d.writeError(w, err)
		return
	}
	infos := make([]noteInfo, 0, len(records))
	for _, rec := range records {
		info, err := d.recordInfo(s, name, rec)
		if err != nil {
			d.writeError(w, err)
			return
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, map[string]any{"file": name, "records": infos})
}

func (d *Dashboard) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	name := noteParam(r)
	recordName := urlParam(r, "record")
	s := d.session(w, r)

	rec, err := s.Record(name, recordName)
	if err != nil {
		d.writeError(w, err)
		return
	}
	info, err := d.recordInfo(s, name, recordName)
	if err != nil {
		d.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{
		File:     name,
		Name:     rec.Name,
		Info:     info,
		Document: rec.Raw,
		Sections: d.renderSections(session.SectionsFor(rec.Result, string(rec.Raw))),
	})
}

func (d *Dashboard) recordInfo(s *session.Session, name, record string) (noteInfo, error) {
	info, err := s.RecordInfo(name, record)
	if err != nil {
		return noteInfo{}, err
	}
	return newNoteInfo(*info), nil
}

func (d *Dashboard) handleOptions(w http.ResponseWriter, r *http.Request) {
	focuses := make([]focusOption, len(evaluator.Focuses))
	for i, f := range evaluator.Focuses {
		focuses[i] = focusOption{Label: string(f), Slug: f.Slug(), Hint: f.Hint()}
	}
	writeJSON(w, http.StatusOK, optionsResponse{
		Provider:     d.provider,
		Models:       d.models,
		DefaultModel: d.defaultModel,
		Focuses:      focuses,
		Stages:       evaluator.Stages,
	})
}

func (d *Dashboard) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s := d.session(w, r)
	selected, _ := s.Selected()
	writeJSON(w, http.StatusOK, sessionResponse{ID: s.ID, Selected: selected, Log: s.Log()})
}

func (d *Dashboard) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		d.sessions.End(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dashboard) renderSections(sections []session.Section) []renderedSection {
	out := make([]renderedSection, len(sections))
	for i, sec := range sections {
		out[i] = renderedSection{Section: sec}
		if sec.Kind == session.KindRaw {
			continue
		}
		html, err := d.renderer.Render(sec.Body)
		if err != nil {
			d.log.Warn("rendering feedback", zap.String("section", sec.Kind), zap.Error(err))
			continue
		}
		out[i].HTML = html
	}
	return out
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, knowledge.ErrInvalidName),
		errors.Is(err, evaluator.ErrUnknownFocus),
		errors.Is(err, evaluator.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, knowledge.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, knowledge.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, evaluator.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, evaluator.ErrMalformedResponse),
		errors.Is(err, archive.ErrCorruptRecord):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (d *Dashboard) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		d.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func noteParam(r *http.Request) string {
	return urlParam(r, "name")
}

func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
