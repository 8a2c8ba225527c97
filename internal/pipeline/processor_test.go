package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/blob"
	"github.com/joseph-ayodele/contracts-parser/internal/contracts"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
	"github.com/joseph-ayodele/contracts-parser/internal/extract"
	"github.com/joseph-ayodele/contracts-parser/internal/llm"
	"github.com/joseph-ayodele/contracts-parser/internal/merge"
	"github.com/joseph-ayodele/contracts-parser/internal/repository"
)

type stubFields struct {
	mu      sync.Mutex
	byGroup map[string]entity.Fields
	errs    map[string]error
	panics  map[string]string
	seen    []string
}

func (s *stubFields) ExtractFields(_ context.Context, req llm.ExtractRequest) (entity.Fields, []byte, error) {
	s.mu.Lock()
	s.seen = append(s.seen, req.Group.Name)
	s.mu.Unlock()
	if msg, ok := s.panics[req.Group.Name]; ok {
		panic(msg)
	}
	if err := s.errs[req.Group.Name]; err != nil {
		return nil, nil, err
	}
	return s.byGroup[req.Group.Name].Clone(), nil, nil
}

type fixture struct {
	repo   *repository.MemoryStore
	proc   *Processor
	fields *stubFields
}

func newFixture(t *testing.T, text extract.Func) *fixture {
	t.Helper()
	repo := repository.NewMemoryStore()
	blobs := blob.LocalFS{Root: t.TempDir()}
	if _, err := blobs.Put(constants.StoredFilename("c1"), strings.NewReader("%PDF-1.4")); err != nil {
		t.Fatalf("put: %v", err)
	}
	now := time.Now().UTC()
	if err := repo.Create(context.Background(), &entity.Contract{
		ID: "c1", Status: constants.StatusPending, FileKey: constants.StoredFilename("c1"),
		Filename: "a.pdf", CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	m, err := merge.NewMerger(nil)
	if err != nil {
		t.Fatalf("merger: %v", err)
	}
	fs := &stubFields{
		byGroup: map[string]entity.Fields{
			constants.GroupParties.Name: {
				constants.FieldPartyIdentification: entity.FromAny(map[string]any{"name": "ACME Corp"}),
			},
			constants.GroupTerms.Name: {
				constants.FieldPaymentStructure: entity.FromAny(map[string]any{"payment_terms": "Net 30"}),
			},
		},
		errs:   map[string]error{},
		panics: map[string]string{},
	}
	tracker := contracts.NewTracker(repo, nil)
	p := NewProcessor(nil, tracker,
		NewTextStage(blobs, text, nil),
		NewFieldsStage(fs, m, nil),
	)
	return &fixture{repo: repo, proc: p, fields: fs}
}

func okText(_ context.Context, path string) (string, error) {
	if !strings.HasSuffix(path, "c1.pdf") {
		return "", errors.New("unexpected path " + path)
	}
	return "This agreement between ACME Corp and Widgets Inc.", nil
}

func TestProcessContractCompletes(t *testing.T) {
	f := newFixture(t, okText)
	if err := f.proc.ProcessContract(context.Background(), "c1"); err != nil {
		t.Fatalf("ProcessContract: %v", err)
	}
	c, err := f.repo.Get(context.Background(), "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Status != constants.StatusCompleted || c.Progress != 100 || c.Error != nil || c.Data == nil {
		t.Fatalf("contract = %+v", c)
	}
	name, _ := c.Data.Category(constants.FieldPartyIdentification).Get("name").Str()
	if name != "ACME Corp" {
		t.Fatalf("name = %q", name)
	}
	terms, _ := c.Data.Category(constants.FieldPaymentStructure).Get("payment_terms").Str()
	if terms != "Net 30" {
		t.Fatalf("payment_terms = %q", terms)
	}
	if !c.Data.Category(constants.FieldServiceLevelAgreements).IsNull() {
		t.Fatalf("missing category should be null")
	}
	if len(f.fields.seen) != 2 {
		t.Fatalf("groups called = %v", f.fields.seen)
	}
}

func TestProcessContractExtractFailure(t *testing.T) {
	f := newFixture(t, func(context.Context, string) (string, error) {
		return "", errors.New("pdftotext: exit status 1")
	})
	err := f.proc.ProcessContract(context.Background(), "c1")
	if err == nil {
		t.Fatalf("expected error")
	}
	c, _ := f.repo.Get(context.Background(), "c1")
	if c.Status != constants.StatusFailed || c.Progress != 100 || c.Data != nil {
		t.Fatalf("contract = %+v", c)
	}
	if c.Error == nil || *c.Error != "pdftotext: exit status 1" {
		t.Fatalf("error = %v", c.Error)
	}
	if len(f.fields.seen) != 0 {
		t.Fatalf("llm should not be called, saw %v", f.fields.seen)
	}
}

func TestProcessContractLLMFailure(t *testing.T) {
	f := newFixture(t, okText)
	f.fields.errs[constants.GroupTerms.Name] = errors.New("GROQ_API_KEY not configured")

	if err := f.proc.ProcessContract(context.Background(), "c1"); err == nil {
		t.Fatalf("expected error")
	}
	c, _ := f.repo.Get(context.Background(), "c1")
	if c.Status != constants.StatusFailed || c.Data != nil {
		t.Fatalf("contract = %+v", c)
	}
	if c.Error == nil || *c.Error != "GROQ_API_KEY not configured" {
		t.Fatalf("error = %v", c.Error)
	}
}

func TestProcessContractRecoversPanic(t *testing.T) {
	f := newFixture(t, func(context.Context, string) (string, error) {
		panic("boom")
	})
	err := f.proc.ProcessContract(context.Background(), "c1")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v", err)
	}
	c, _ := f.repo.Get(context.Background(), "c1")
	if c.Status != constants.StatusFailed || c.Error == nil || !strings.Contains(*c.Error, "boom") {
		t.Fatalf("contract = %+v", c)
	}
}

func TestProcessContractRecoversFieldGroupPanic(t *testing.T) {
	f := newFixture(t, okText)
	f.fields.panics[constants.GroupParties.Name] = "llm boom"

	err := f.proc.ProcessContract(context.Background(), "c1")
	if err == nil || err.Error() != "panic: llm boom" {
		t.Fatalf("err = %v", err)
	}
	c, _ := f.repo.Get(context.Background(), "c1")
	if c.Status != constants.StatusFailed || c.Data != nil {
		t.Fatalf("contract = %+v", c)
	}
	if c.Error == nil || *c.Error != "panic: llm boom" {
		t.Fatalf("error = %v", c.Error)
	}
}

func TestProcessContractCancelledStillRecordsFailure(t *testing.T) {
	f := newFixture(t, func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := f.proc.ProcessContract(ctx, "c1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	c, _ := f.repo.Get(context.Background(), "c1")
	if c.Status != constants.StatusFailed {
		t.Fatalf("status = %s", c.Status)
	}
}

func TestProcessContractTerminalIsNoop(t *testing.T) {
	f := newFixture(t, okText)
	if err := f.proc.ProcessContract(context.Background(), "c1"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := f.proc.ProcessContract(context.Background(), "c1"); err == nil {
		t.Fatalf("second run should be rejected")
	}
	c, _ := f.repo.Get(context.Background(), "c1")
	if c.Status != constants.StatusCompleted {
		t.Fatalf("status = %s", c.Status)
	}
}
