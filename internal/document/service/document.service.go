package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"aidoc/internal/api"
	"aidoc/internal/document/model"
	"aidoc/pkg/logger"
	"aidoc/pkg/validation"

	"golang.org/x/sync/semaphore"
)

var (
	ErrNoSelection = errors.New("no document selected")
	ErrEmptyTitle  = errors.New("document title is required")
	ErrEmptyPrompt = errors.New("prompt is required")
	ErrBusy        = errors.New("previous request is still running")
	ErrCancelled   = errors.New("cancelled")
	// ErrStale means the workspace moved on (another selection, or a reset)
	// while the request was in flight, so its result was dropped.
	ErrStale = errors.New("workspace changed while the request was running")
)

// Flow names one user action. At most one request per flow is in flight.
type Flow string

const (
	FlowList   Flow = "list"
	FlowCreate Flow = "create"
	FlowSelect Flow = "select"
	FlowDelete Flow = "delete"
	FlowSave   Flow = "save"
	FlowAssist Flow = "assist"
)

// Repository is the backend surface the workspace needs.
type Repository interface {
	List(ctx context.Context) ([]model.Document, error)
	Create(ctx context.Context, title string) (*model.Document, error)
	Content(ctx context.Context, id int) (string, error)
	UpdateContent(ctx context.Context, id int, content string) error
	Delete(ctx context.Context, id int) error
	Assist(ctx context.Context, id int, req model.AssistRequest) (string, error)
}

// ConfirmFunc asks the user to confirm deleting doc.
type ConfirmFunc func(doc model.Document) bool

// DocumentService owns the client's in-memory workspace: the document list,
// the selection, the editor buffer and the assist prompt. State changes only
// after the server confirms; the lock is never held across a request.
type DocumentService struct {
	Repo Repository

	mu       sync.Mutex
	docs     []model.Document
	selected *model.Document
	buffer   string
	prompt   string
	// gen increments on Reset; results from an older generation are dropped.
	gen uint64

	guards map[Flow]*semaphore.Weighted
}

func NewDocumentService(repo Repository) *DocumentService {
	guards := make(map[Flow]*semaphore.Weighted)
	for _, f := range []Flow{FlowList, FlowCreate, FlowSelect, FlowDelete, FlowSave, FlowAssist} {
		guards[f] = semaphore.NewWeighted(1)
	}
	return &DocumentService{Repo: repo, guards: guards}
}

func (s *DocumentService) acquire(f Flow) (func(), error) {
	sem := s.guards[f]
	if !sem.TryAcquire(1) {
		logger.Sugar.Debugf("Rejected %s: already in flight", f)
		return nil, ErrBusy
	}
	return func() { sem.Release(1) }, nil
}

func (s *DocumentService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Load fetches the document list, keeping the server's order.
func (s *DocumentService) Load(ctx context.Context) ([]model.Document, error) {
	release, err := s.acquire(FlowList)
	if err != nil {
		return nil, err
	}
	defer release()

	gen := s.generation()
	docs, err := s.Repo.List(ctx)
	if err != nil {
		logger.Sugar.Errorf("Failed to load documents: %v", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil, ErrStale
	}
	s.docs = docs
	return append([]model.Document(nil), docs...), nil
}

// Create makes a document, appends it to the list and selects it with an
// empty buffer.
func (s *DocumentService) Create(ctx context.Context, title string) (*model.Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, api.Validation(ErrEmptyTitle.Error(), ErrEmptyTitle)
	}
	req := model.CreateDocRequest{Title: title}
	if err := validation.Struct(req); err != nil {
		return nil, api.Validation(err.Error(), err)
	}

	release, err := s.acquire(FlowCreate)
	if err != nil {
		return nil, err
	}
	defer release()

	gen := s.generation()
	doc, err := s.Repo.Create(ctx, req.Title)
	if err != nil {
		logger.Sugar.Errorf("Failed to create document: %v", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil, ErrStale
	}
	s.docs = append(s.docs, *doc)
	selected := *doc
	s.selected = &selected
	s.buffer = ""
	logger.Sugar.Infof("Created document %d", doc.ID)
	return doc, nil
}

// Select loads id's content into the buffer. Unsaved edits to the previous
// selection are discarded.
func (s *DocumentService) Select(ctx context.Context, id int) error {
	release, err := s.acquire(FlowSelect)
	if err != nil {
		return err
	}
	defer release()

	gen := s.generation()
	content, err := s.Repo.Content(ctx, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to load document %d: %v", id, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrStale
	}
	doc := s.lookupLocked(id)
	s.selected = &doc
	s.buffer = content
	return nil
}

// Delete removes id after confirm approves it. Deleting the selected
// document clears the selection and the buffer.
func (s *DocumentService) Delete(ctx context.Context, id int, confirm ConfirmFunc) error {
	s.mu.Lock()
	doc := s.lookupLocked(id)
	s.mu.Unlock()

	if confirm == nil || !confirm(doc) {
		return ErrCancelled
	}

	release, err := s.acquire(FlowDelete)
	if err != nil {
		return err
	}
	defer release()

	gen := s.generation()
	if err := s.Repo.Delete(ctx, id); err != nil {
		logger.Sugar.Errorf("Failed to delete document %d: %v", id, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrStale
	}
	for i, d := range s.docs {
		if d.ID == id {
			s.docs = append(s.docs[:i:i], s.docs[i+1:]...)
			break
		}
	}
	if s.selected != nil && s.selected.ID == id {
		s.selected = nil
		s.buffer = ""
	}
	logger.Sugar.Infof("Deleted document %d", id)
	return nil
}

// Save sends the whole buffer as the selected document's content.
func (s *DocumentService) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return ErrNoSelection
	}
	id, content := s.selected.ID, s.buffer
	s.mu.Unlock()

	release, err := s.acquire(FlowSave)
	if err != nil {
		return err
	}
	defer release()

	if err := s.Repo.UpdateContent(ctx, id, content); err != nil {
		logger.Sugar.Errorf("Failed to save document %d: %v", id, err)
		return err
	}
	logger.Sugar.Infof("Saved document %d (%d bytes)", id, len(content))
	return nil
}

// Assist asks the backend to generate text for the current prompt and
// buffer. On success the text is appended to the buffer after a blank line
// and the prompt is cleared; on failure neither changes.
func (s *DocumentService) Assist(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return "", ErrNoSelection
	}
	if strings.TrimSpace(s.prompt) == "" {
		s.mu.Unlock()
		return "", ErrEmptyPrompt
	}
	id, gen := s.selected.ID, s.gen
	req := model.AssistRequest{CurrentText: s.buffer, UserPrompt: s.prompt}
	s.mu.Unlock()

	release, err := s.acquire(FlowAssist)
	if err != nil {
		return "", err
	}
	defer release()

	generated, err := s.Repo.Assist(ctx, id, req)
	if err != nil {
		logger.Sugar.Errorf("AI assist failed for document %d: %v", id, err)
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.selected == nil || s.selected.ID != id {
		return "", ErrStale
	}
	s.buffer += "\n\n" + generated
	s.prompt = ""
	return generated, nil
}

// Documents returns a copy of the list.
func (s *DocumentService) Documents() []model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Document(nil), s.docs...)
}

func (s *DocumentService) Selected() (model.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return model.Document{}, false
	}
	return *s.selected, true
}

func (s *DocumentService) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

// SetBuffer records the user's edits. Without a selection there is no
// buffer and the call is ignored.
func (s *DocumentService) SetBuffer(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != nil {
		s.buffer = content
	}
}

func (s *DocumentService) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

func (s *DocumentService) SetPrompt(p string) {
	s.mu.Lock()
	s.prompt = p
	s.mu.Unlock()
}

// Reset drops the whole workspace, e.g. on logout. Requests still in
// flight will not apply their results.
func (s *DocumentService) Reset() {
	s.mu.Lock()
	s.docs = nil
	s.selected = nil
	s.buffer = ""
	s.prompt = ""
	s.gen++
	s.mu.Unlock()
}

func (s *DocumentService) lookupLocked(id int) model.Document {
	for _, d := range s.docs {
		if d.ID == id {
			return d
		}
	}
	return model.Document{ID: id}
}
