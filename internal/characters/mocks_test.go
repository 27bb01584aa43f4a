package characters

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/your-org/charstudio/internal/gemini"
	"github.com/your-org/charstudio/internal/models"
	"github.com/your-org/charstudio/internal/storage"
)

const testBucket = "studio"

type fakeProfiles struct {
	mu    sync.Mutex
	items map[string]models.Character
	order []string

	createErr error
	getErr    error
	listErr   error

	creates atomic.Int32
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{items: map[string]models.Character{}}
}

func (f *fakeProfiles) CreateCharacter(_ context.Context, c *models.Character) error {
	f.creates.Add(1)
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c.CreatedAt = time.Now()
	f.items[c.ID] = *c
	f.order = append(f.order, c.ID)
	return nil
}

func (f *fakeProfiles) GetCharacter(_ context.Context, id string) (*models.Character, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &c, nil
}

// ListCharactersByOwner returns insertion order, not creation-time order.
func (f *fakeProfiles) ListCharactersByOwner(_ context.Context, ownerID string) ([]models.Character, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Character
	for _, id := range f.order {
		if c := f.items[id]; c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeProfiles) put(c models.Character) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[c.ID] = c
	f.order = append(f.order, c.ID)
}

func (f *fakeProfiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string]storage.Object

	putErr error
	getErr error

	puts atomic.Int32
	gets atomic.Int32
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string]storage.Object{}}
}

func (f *fakeBlobs) PutObject(_ context.Context, key string, data []byte, contentType string) error {
	f.puts.Add(1)
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = storage.Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

func (f *fakeBlobs) GetObject(_ context.Context, key string) (*storage.Object, error) {
	f.gets.Add(1)
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &obj, nil
}

func (f *fakeBlobs) ObjectURL(_ context.Context, key string) (string, error) {
	return "http://minio.test:9000/" + testBucket + "/" + key + "?X-Amz-Signature=sig", nil
}

func (f *fakeBlobs) KeyFromURL(rawURL string) (string, error) {
	return storage.ObjectKeyFromURL(rawURL, testBucket)
}

type fakeAnalyzer struct {
	analyzeFunc func(ctx context.Context, image []byte, mimeType string) (*gemini.CharacterTraits, error)
	calls       atomic.Int32
}

func (f *fakeAnalyzer) AnalyzeCharacter(ctx context.Context, image []byte, mimeType string) (*gemini.CharacterTraits, error) {
	f.calls.Add(1)
	if f.analyzeFunc != nil {
		return f.analyzeFunc(ctx, image, mimeType)
	}
	return &gemini.CharacterTraits{Name: "Nameless", Description: "d", Keywords: []string{}}, nil
}

type fakeIllustrator struct {
	generateFunc func(ctx context.Context, req gemini.VisualizationRequest) (*gemini.Image, error)
	calls        atomic.Int32
	last         gemini.VisualizationRequest
}

func (f *fakeIllustrator) GenerateVisualization(ctx context.Context, req gemini.VisualizationRequest) (*gemini.Image, error) {
	f.calls.Add(1)
	f.last = req
	if f.generateFunc != nil {
		return f.generateFunc(ctx, req)
	}
	return &gemini.Image{Data: []byte("img"), MIMEType: "image/png"}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.LibraryEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt models.LibraryEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
