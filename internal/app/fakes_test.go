package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"claimintake/internal/ai"
	"claimintake/internal/model"
)

// memDB is a tiny in-memory stand-in for the relational store.
type memDB struct {
	mu        sync.Mutex
	tenants   map[string]model.Tenant
	cases     map[string]model.Case
	files     []model.File
	responses []model.Response
	links     []model.ResponseFile
	clock     time.Time

	failResponseCreate error
	failFileBatch      error
	failLinkBatch      error
	failFileList       error
}

func newMemDB() *memDB {
	return &memDB{
		tenants: map[string]model.Tenant{},
		cases:   map[string]model.Case{},
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *memDB) seedTenant(name string) model.Tenant {
	db.mu.Lock()
	defer db.mu.Unlock()
	t := model.Tenant{ID: uuid.NewString(), Name: name, CreatedAt: db.tick()}
	db.tenants[t.ID] = t
	return t
}

func (db *memDB) seedCase(tenantID, name string) model.Case {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := model.Case{ID: uuid.NewString(), TenantID: tenantID, CaseName: name, Status: model.CaseStatusOpen, CreatedAt: db.tick()}
	db.cases[c.ID] = c
	return c
}

func (db *memDB) seedFile(f model.File) model.File {
	db.mu.Lock()
	defer db.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.UploadedAt = db.tick()
	db.files = append(db.files, f)
	return f
}

func (db *memDB) responseRows() []model.Response {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]model.Response(nil), db.responses...)
}

func (db *memDB) fileRows() []model.File {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]model.File(nil), db.files...)
}

func (db *memDB) linkRows() []model.ResponseFile {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]model.ResponseFile(nil), db.links...)
}

type tenantStore struct{ db *memDB }

func (s tenantStore) Create(_ context.Context, t *model.Tenant) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = s.db.tick()
	s.db.tenants[t.ID] = *t
	return nil
}

func (s tenantStore) List(_ context.Context) ([]model.Tenant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.Tenant, 0, len(s.db.tenants))
	for _, t := range s.db.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s tenantStore) GetByID(_ context.Context, id string) (*model.Tenant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tenants[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

type caseStore struct{ db *memDB }

func (s caseStore) Create(_ context.Context, c *model.Case) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = s.db.tick()
	s.db.cases[c.ID] = *c
	return nil
}

func (s caseStore) ListByTenantID(_ context.Context, tenantID string) ([]model.Case, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Case
	for _, c := range s.db.cases {
		if c.TenantID == tenantID && !c.DeletedAt.Valid {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s caseStore) GetByIDAndTenantID(_ context.Context, id, tenantID string) (*model.Case, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.cases[id]
	if !ok || c.TenantID != tenantID || c.DeletedAt.Valid {
		return nil, nil
	}
	return &c, nil
}

func (s caseStore) Update(_ context.Context, id, tenantID string, patch map[string]any) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.cases[id]
	if !ok || c.TenantID != tenantID {
		return nil
	}
	if v, ok := patch["case_name"].(string); ok {
		c.CaseName = v
	}
	if v, ok := patch["status"].(model.CaseStatus); ok {
		c.Status = v
	}
	s.db.cases[id] = c
	return nil
}

func (s caseStore) SoftDelete(_ context.Context, id, tenantID string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.cases[id]
	if !ok || c.TenantID != tenantID || c.DeletedAt.Valid {
		return false, nil
	}
	now := s.db.tick()
	c.DeletedAt.Time, c.DeletedAt.Valid = now, true
	s.db.cases[id] = c
	for i := range s.db.files {
		if s.db.files[i].CaseID == id {
			s.db.files[i].DeletedAt.Time, s.db.files[i].DeletedAt.Valid = now, true
		}
	}
	return true, nil
}

type fileStore struct{ db *memDB }

func (s fileStore) CreateBatch(_ context.Context, files []model.File) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failFileBatch != nil {
		return s.db.failFileBatch
	}
	// Like gorm, one batch shares a single default timestamp.
	batchTime := s.db.tick()
	for i := range files {
		files[i].ID = uuid.NewString()
		if files[i].UploadedAt.IsZero() {
			files[i].UploadedAt = batchTime
		}
		s.db.files = append(s.db.files, files[i])
	}
	return nil
}

func (s fileStore) ListByCase(_ context.Context, tenantID, caseID string) ([]model.File, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failFileList != nil {
		return nil, s.db.failFileList
	}
	var out []model.File
	for _, f := range s.db.files {
		if f.TenantID == tenantID && f.CaseID == caseID && !f.DeletedAt.Valid {
			out = append(out, f)
		}
	}
	// Same ordering as FileRepository.ListByCase.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s fileStore) ListByIDs(_ context.Context, tenantID string, ids []string) ([]model.File, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []model.File
	for _, f := range s.db.files {
		if want[f.ID] && f.TenantID == tenantID && !f.DeletedAt.Valid {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s fileStore) SoftDeleteByIDs(_ context.Context, tenantID string, ids []string) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for i := range s.db.files {
		f := &s.db.files[i]
		if want[f.ID] && f.TenantID == tenantID && !f.DeletedAt.Valid {
			f.DeletedAt.Time, f.DeletedAt.Valid = s.db.tick(), true
			n++
		}
	}
	return n, nil
}

type responseStore struct{ db *memDB }

func (s responseStore) Create(_ context.Context, r *model.Response) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failResponseCreate != nil {
		return s.db.failResponseCreate
	}
	r.ID = uuid.NewString()
	r.CreatedAt = s.db.tick()
	s.db.responses = append(s.db.responses, *r)
	return nil
}

func (s responseStore) ListByCase(_ context.Context, tenantID, caseID string) ([]model.Response, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.Response
	for i := len(s.db.responses) - 1; i >= 0; i-- {
		r := s.db.responses[i]
		if r.TenantID == tenantID && r.CaseID == caseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s responseStore) GetLatestByCase(ctx context.Context, tenantID, caseID string) (*model.Response, error) {
	list, _ := s.ListByCase(ctx, tenantID, caseID)
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (s responseStore) GetByIDAndTenantID(_ context.Context, id, tenantID string) (*model.Response, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, r := range s.db.responses {
		if r.ID == id && r.TenantID == tenantID {
			return &r, nil
		}
	}
	return nil, nil
}

type linkStore struct{ db *memDB }

func (s linkStore) CreateBatch(_ context.Context, links []model.ResponseFile) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failLinkBatch != nil {
		return s.db.failLinkBatch
	}
	for _, l := range links {
		dup := false
		for _, existing := range s.db.links {
			if existing == l {
				dup = true
				break
			}
		}
		if !dup {
			s.db.links = append(s.db.links, l)
		}
	}
	return nil
}

func (s linkStore) ListFilesByResponseID(_ context.Context, responseID string) ([]model.File, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []model.File
	for _, l := range s.db.links {
		if l.ResponseID != responseID {
			continue
		}
		for _, f := range s.db.files {
			if f.ID == l.FileID && !f.DeletedAt.Valid {
				out = append(out, f)
			}
		}
	}
	return out, nil
}

// memObjects is an in-memory object store. failPut makes Put fail for keys
// containing the given substring.
type memObjects struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	gets    map[string]int
	failPut string
	failGet error
}

func newMemObjects() *memObjects {
	return &memObjects{blobs: map[string][]byte{}, gets: map[string]int{}}
}

func (o *memObjects) Bucket() string { return "claims-test" }

func (o *memObjects) Put(_ context.Context, key string, body []byte, _ string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failPut != "" && strings.Contains(key, o.failPut) {
		return errors.New("put object failed: access denied")
	}
	o.blobs[key] = append([]byte(nil), body...)
	return nil
}

func (o *memObjects) Get(_ context.Context, key string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gets[key]++
	if o.failGet != nil {
		return nil, o.failGet
	}
	b, ok := o.blobs[key]
	if !ok {
		return nil, fmt.Errorf("get object failed: no such key %s", key)
	}
	return b, nil
}

func (o *memObjects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.blobs, key)
	return nil
}

func (o *memObjects) SignURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://signed.example/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

func (o *memObjects) getCount(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gets[key]
}

func (o *memObjects) keys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.blobs))
	for k := range o.blobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
	down    bool
}

func newMemCache() *memCache { return &memCache{entries: map[string]string{}} }

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return "", false, errors.New("dial tcp: connection refused")
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return errors.New("dial tcp: connection refused")
	}
	c.sets++
	c.entries[key] = text
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memCache) snapshot() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// fakeGenerator replays scripted replies and records every prompt.
type fakeGenerator struct {
	mu      sync.Mutex
	replies []string
	prompts []string
	panicOn string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.panicOn != "" && strings.Contains(prompt, g.panicOn) {
		panic("generator exploded")
	}
	i := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	return g.replies[len(g.replies)-1], nil
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type harness struct {
	db       *memDB
	objects  *memObjects
	cache    *memCache
	gen      *fakeGenerator
	pipeline *Pipeline
	cases    *CaseService
	tenant   model.Tenant
}

const approvedJSON = `{"decision":"APPROVED","reasoning":"Police report supports the claimed amount.","confidence":91,"riskScore":"LOW","flags":["POLICE_REPORT_AVAILABLE"]}`

func newHarness(replies ...string) *harness {
	if len(replies) == 0 {
		replies = []string{approvedJSON}
	}
	db := newMemDB()
	h := &harness{
		db:      db,
		objects: newMemObjects(),
		cache:   newMemCache(),
		gen:     &fakeGenerator{replies: replies},
	}
	h.tenant = db.seedTenant("Acme Mutual")
	h.pipeline = NewPipeline(PipelineDeps{
		Tenants:   tenantStore{db},
		Cases:     caseStore{db},
		Files:     fileStore{db},
		Responses: responseStore{db},
		Links:     linkStore{db},
		Objects:   h.objects,
		Cache:     h.cache,
		Analyzer:  ai.NewAnalyzer(h.gen, nil),
	})
	h.cases = NewCaseService(CaseServiceDeps{
		Tenants:    tenantStore{db},
		Cases:      caseStore{db},
		Files:      fileStore{db},
		Responses:  responseStore{db},
		Links:      linkStore{db},
		Objects:    h.objects,
		Cache:      h.cache,
		PresignTTL: 10 * time.Minute,
	})
	return h
}
