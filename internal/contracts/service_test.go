package contracts

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/async"
	"github.com/joseph-ayodele/contracts-parser/internal/blob"
	"github.com/joseph-ayodele/contracts-parser/internal/common"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
	"github.com/joseph-ayodele/contracts-parser/internal/repository"
)

type recordingQueue struct {
	jobs []async.Job
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, job async.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Shutdown(context.Context) {}

func newTestService(t *testing.T) (*Service, *repository.MemoryStore, *recordingQueue, blob.LocalFS) {
	t.Helper()
	repo := repository.NewMemoryStore()
	q := &recordingQueue{}
	fs := blob.LocalFS{Root: t.TempDir()}
	return NewService(repo, fs, q, nil), repo, q, fs
}

func TestSubmitStoresAndEnqueues(t *testing.T) {
	svc, repo, q, fs := newTestService(t)
	ctx := common.WithRequestID(context.Background(), "req-1")

	c, err := svc.Submit(ctx, SubmitRequest{Filename: "Master Agreement.PDF", Body: strings.NewReader("%PDF-1.4")})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.Status != constants.StatusPending || c.Progress != 0 {
		t.Fatalf("contract = %+v", c)
	}
	if c.FileKey != c.ID+".pdf" || c.SizeBytes != 8 || len(c.ContentHash) != 64 || c.Filename != "Master Agreement.PDF" {
		t.Fatalf("upload metadata = %+v", c)
	}
	if c.CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}
	if !fs.Exists(c.FileKey) {
		t.Fatalf("file not stored")
	}
	if len(q.jobs) != 1 || q.jobs[0].ContractID != c.ID || q.jobs[0].TraceID != "req-1" {
		t.Fatalf("jobs = %+v", q.jobs)
	}
	if _, err := repo.Get(ctx, c.ID); err != nil {
		t.Fatalf("contract not registered: %v", err)
	}
}

func TestSubmitRejectsNonPDF(t *testing.T) {
	svc, repo, q, _ := newTestService(t)
	_, err := svc.Submit(context.Background(), SubmitRequest{Filename: "notes.txt", Body: strings.NewReader("hi")})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if common.HTTPStatus(err) != http.StatusBadRequest || common.MessageOf(err) != "Only PDF files are supported." {
		t.Fatalf("status=%d message=%q", common.HTTPStatus(err), common.MessageOf(err))
	}
	all, _ := repo.List(context.Background(), nil)
	if len(all) != 0 || len(q.jobs) != 0 {
		t.Fatalf("rejected upload left state behind")
	}
}

func TestSubmitQueueClosed(t *testing.T) {
	svc, _, q, _ := newTestService(t)
	q.err = async.ErrQueueClosed
	_, err := svc.Submit(context.Background(), SubmitRequest{Filename: "a.pdf", Body: strings.NewReader("x")})
	if common.HTTPStatus(err) != http.StatusServiceUnavailable {
		t.Fatalf("got %v", err)
	}
}

func TestStatusDataAndNotFound(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Status(ctx, "missing")
	if !errors.Is(err, common.ErrNotFound) || common.MessageOf(err) != "Contract not found." {
		t.Fatalf("status missing: %v", err)
	}
	if _, err := svc.Data(ctx, "missing"); common.HTTPStatus(err) != http.StatusNotFound {
		t.Fatalf("data missing: %v", err)
	}

	c, _ := svc.Submit(ctx, SubmitRequest{Filename: "a.pdf", Body: strings.NewReader("x")})
	_, err = svc.Data(ctx, c.ID)
	if common.HTTPStatus(err) != http.StatusBadRequest || common.MessageOf(err) != "Contract processing not complete." {
		t.Fatalf("data before completion: %v", err)
	}

	tr := NewTracker(repo, nil)
	_, _ = tr.Begin(ctx, c.ID)
	_, _ = tr.Complete(ctx, c.ID, &entity.Document{Score: 50})
	got, err := svc.Data(ctx, c.ID)
	if err != nil || got.Data.Score != 50 {
		t.Fatalf("data after completion: %+v, %v", got, err)
	}
}

func TestListFilters(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		c, err := svc.Submit(ctx, SubmitRequest{Filename: "a.pdf", Body: strings.NewReader("x")})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		ids = append(ids, c.ID)
	}
	tr := NewTracker(repo, nil)
	_, _ = tr.Begin(ctx, ids[1])

	all, _ := svc.List(ctx, "")
	if len(all) != 3 || all[0].ID != ids[0] || all[2].ID != ids[2] {
		t.Fatalf("list order wrong")
	}
	processing, _ := svc.List(ctx, "processing")
	if len(processing) != 1 || processing[0].ID != ids[1] {
		t.Fatalf("processing filter = %d items", len(processing))
	}
	bogus, err := svc.List(ctx, "archived")
	if err != nil || bogus == nil || len(bogus) != 0 {
		t.Fatalf("unknown status = %v, %v", bogus, err)
	}
}

func TestOpenFile(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.OpenFile(ctx, "missing"); common.MessageOf(err) != "File not found." {
		t.Fatalf("missing contract: %v", err)
	}

	c, _ := svc.Submit(ctx, SubmitRequest{Filename: "a.pdf", Body: strings.NewReader("%PDF-data")})
	f, got, err := svc.OpenFile(ctx, c.ID)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	b, _ := io.ReadAll(f)
	if string(b) != "%PDF-data" || got.ID != c.ID {
		t.Fatalf("content=%q id=%s", b, got.ID)
	}

	// registered contract whose file vanished
	_ = repo.Create(ctx, &entity.Contract{ID: "ghost", Status: constants.StatusPending, FileKey: "ghost.pdf"})
	if _, _, err := svc.OpenFile(ctx, "ghost"); common.HTTPStatus(err) != http.StatusNotFound || common.MessageOf(err) != "File not found." {
		t.Fatalf("missing file: %v", err)
	}
}
