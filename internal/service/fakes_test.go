package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sakif/creo-studio/internal/apperror"
	"github.com/sakif/creo-studio/internal/events"
	"github.com/sakif/creo-studio/internal/generator"
	"github.com/sakif/creo-studio/internal/model"
)

// fakeStore is an in-memory stand-in for the SQL store. Set the *Err fields
// to simulate a database failure.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]*model.User
	generations []model.Generation
	todos       []model.Todo
	nextID      int
	clock       time.Time

	createUserErr error
	listErr       error
	createErr     error
	listCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*model.User),
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick hands out strictly increasing ids and timestamps.
func (f *fakeStore) tick() (string, time.Time) {
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	return fmt.Sprintf("id-%03d", f.nextID), f.clock
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createUserErr != nil {
		return f.createUserErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("User already registered")
		}
	}
	user.ID, user.CreatedAt = f.tick()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) CreateGeneration(_ context.Context, gen *model.Generation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	gen.ID, gen.CreatedAt = f.tick()
	f.generations = append(f.generations, *gen)
	return nil
}

func (f *fakeStore) ListGenerations(_ context.Context, userID string) ([]model.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Generation{}
	for _, g := range f.generations {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) GetGeneration(_ context.Context, userID, id string) (*model.Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.generations {
		if g.ID == id && g.UserID == userID {
			copied := g
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("generation", id)
}

func (f *fakeStore) DeleteGeneration(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, g := range f.generations {
		if g.ID == id && g.UserID == userID {
			f.generations = append(f.generations[:i], f.generations[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("generation", id)
}

func (f *fakeStore) CreateTodo(_ context.Context, todo *model.Todo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	todo.ID, todo.CreatedAt = f.tick()
	todo.UpdatedAt = todo.CreatedAt
	f.todos = append(f.todos, *todo)
	return nil
}

func (f *fakeStore) ListTodos(_ context.Context, userID string) ([]model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Todo{}
	for _, t := range f.todos {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) SetTodoCompleted(_ context.Context, userID, id string, completed bool) (*model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.todos {
		if f.todos[i].ID == id && f.todos[i].UserID == userID {
			f.todos[i].Completed = completed
			copied := f.todos[i]
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("todo", id)
}

func (f *fakeStore) DeleteTodo(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.todos {
		if t.ID == id && t.UserID == userID {
			f.todos = append(f.todos[:i], f.todos[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("todo", id)
}

// mapCache is a Cache backed by a map.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	return b, ok
}

func (c *mapCache) Set(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *mapCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
}

func (c *mapCache) Ping(context.Context) error { return nil }

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// stubGenerator returns a fixed image or err.
type stubGenerator struct {
	err   error
	calls int
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (*generator.Result, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &generator.Result{
		ImageURL:       "/placeholder.png",
		Description:    "about " + prompt,
		EnhancedPrompt: prompt,
	}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
