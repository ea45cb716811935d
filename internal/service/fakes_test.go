package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/model"
	"github.com/sakif/codecraft/internal/repository"
)

// =========================================================================
// IN-MEMORY STORE
// =========================================================================
//
// fakeStore implements every repository port with maps. failOn makes the
// named method return an error, to exercise partial-failure paths.

type fakeStore struct {
	mu       sync.Mutex
	nextID   int
	clock    time.Time
	users    map[string]*model.User // by external id
	snippets map[string]*model.Snippet
	comments map[string]*model.Comment
	stars    map[string]*model.Star
	execs    []model.Execution
	failOn   map[string]error
	calls    map[string]int
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    map[string]*model.User{},
		snippets: map[string]*model.Snippet{},
		comments: map[string]*model.Comment{},
		stars:    map[string]*model.Star{},
		failOn:   map[string]error{},
		calls:    map[string]int{},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// enter records the call and returns the injected failure, if any. Callers hold mu.
func (f *fakeStore) enter(method string) error {
	f.calls[method]++
	return f.failOn[method]
}

func (f *fakeStore) id(prefix string) (string, time.Time) {
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	return fmt.Sprintf("%s-%03d", prefix, f.nextID), f.clock
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateUser"); err != nil {
		return err
	}
	if _, ok := f.users[u.ExternalID]; ok {
		return apperror.Conflict("user", u.ExternalID)
	}
	u.ID, u.CreatedAt = f.id("user")
	u.UpdatedAt = u.CreatedAt
	stored := *u
	f.users[u.ExternalID] = &stored
	return nil
}

func (f *fakeStore) GetUserByExternalID(_ context.Context, externalID string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetUserByExternalID"); err != nil {
		return nil, err
	}
	u, ok := f.users[externalID]
	if !ok {
		return nil, apperror.NotFound("user", externalID)
	}
	out := *u
	return &out, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeStore) CreateSnippet(_ context.Context, s *model.Snippet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateSnippet"); err != nil {
		return err
	}
	s.ID, s.CreatedAt = f.id("snip")
	stored := *s
	f.snippets[s.ID] = &stored
	return nil
}

func (f *fakeStore) GetSnippetByID(_ context.Context, id string) (*model.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetSnippetByID"); err != nil {
		return nil, err
	}
	s, ok := f.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	out := *s
	return &out, nil
}

func (f *fakeStore) ListSnippets(_ context.Context) ([]model.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Snippet, 0, len(f.snippets))
	for _, s := range f.snippets {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) DeleteSnippet(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteSnippet"); err != nil {
		return err
	}
	if _, ok := f.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(f.snippets, id)
	return nil
}

func (f *fakeStore) CreateComment(_ context.Context, c *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID, c.CreatedAt = f.id("cmt")
	stored := *c
	f.comments[c.ID] = &stored
	return nil
}

func (f *fakeStore) ListComments(_ context.Context, snippetID string) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Comment{}
	for _, c := range f.comments {
		if c.SnippetID == snippetID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) DeleteCommentsBySnippet(_ context.Context, snippetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteCommentsBySnippet"); err != nil {
		return err
	}
	for id, c := range f.comments {
		if c.SnippetID == snippetID {
			delete(f.comments, id)
		}
	}
	return nil
}

func (f *fakeStore) GetStar(_ context.Context, userID, snippetID string) (*model.Star, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetStar"); err != nil {
		return nil, err
	}
	for _, s := range f.stars {
		if s.UserID == userID && s.SnippetID == snippetID {
			out := *s
			return &out, nil
		}
	}
	return nil, apperror.NotFound("star", userID+"/"+snippetID)
}

func (f *fakeStore) CreateStar(_ context.Context, star *model.Star) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateStar"); err != nil {
		return err
	}
	for _, s := range f.stars {
		if s.UserID == star.UserID && s.SnippetID == star.SnippetID {
			return apperror.Conflict("star", star.UserID+"/"+star.SnippetID)
		}
	}
	star.ID, star.CreatedAt = f.id("star")
	stored := *star
	f.stars[star.ID] = &stored
	return nil
}

func (f *fakeStore) DeleteStar(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stars, id)
	return nil
}

func (f *fakeStore) CountStars(_ context.Context, snippetID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.stars {
		if s.SnippetID == snippetID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteStarsBySnippet(_ context.Context, snippetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteStarsBySnippet"); err != nil {
		return err
	}
	for id, s := range f.stars {
		if s.SnippetID == snippetID {
			delete(f.stars, id)
		}
	}
	return nil
}

func (f *fakeStore) ListStarsByUser(_ context.Context, userID string) ([]model.Star, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Star{}
	for _, s := range f.stars {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) CreateExecution(_ context.Context, e *model.Execution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateExecution"); err != nil {
		return err
	}
	e.ID, e.CreatedAt = f.id("exec")
	f.execs = append(f.execs, *e)
	return nil
}

// ListExecutions ignores the cursor; pagination is covered by the repository tests.
func (f *fakeStore) ListExecutions(_ context.Context, userID, _ string, limit int) (*model.ExecutionPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &model.ExecutionPage{Executions: []model.Execution{}}
	for i := len(f.execs) - 1; i >= 0 && len(page.Executions) < limit; i-- {
		if f.execs[i].UserID == userID {
			page.Executions = append(page.Executions, f.execs[i])
		}
	}
	return page, nil
}

func (f *fakeStore) ListAllExecutions(_ context.Context, userID string) ([]model.Execution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Execution{}
	for _, e := range f.execs {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// addUser seeds a user directly, bypassing the service.
func (f *fakeStore) addUser(externalID, name string, isPro bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, at := f.id("user")
	f.users[externalID] = &model.User{ID: id, ExternalID: externalID, Name: name, IsPro: isPro, CreatedAt: at, UpdatedAt: at}
}
