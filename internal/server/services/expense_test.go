package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dkolesnikov/expensio/internal/common"
	"github.com/dkolesnikov/expensio/internal/server/auth"
	"github.com/dkolesnikov/expensio/internal/server/config"
	"github.com/dkolesnikov/expensio/internal/server/models"
)

type fakeExpensesRepo struct {
	createOut *models.Expense
	createErr error

	getOut *models.Expense
	getErr error

	listOut []*models.Expense
	listErr error

	totalOut float64

	updateErr error
	deleteErr error

	rangeFrom time.Time
	rangeTo   time.Time

	receiptID  string
	receiptKey string
}

func (f *fakeExpensesRepo) Create(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	e.ID = "e1"
	return e, nil
}

func (f *fakeExpensesRepo) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Expense, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeExpensesRepo) ListByUser(ctx context.Context, userID string) ([]*models.Expense, error) {
	return f.listOut, f.listErr
}

func (f *fakeExpensesRepo) ListByUserAndCategory(ctx context.Context, userID, category string) ([]*models.Expense, error) {
	return f.listOut, f.listErr
}

func (f *fakeExpensesRepo) ListByUserInRange(ctx context.Context, userID string, from, to time.Time) ([]*models.Expense, error) {
	f.rangeFrom, f.rangeTo = from, to
	return f.listOut, f.listErr
}

func (f *fakeExpensesRepo) TotalByUser(ctx context.Context, userID string) (float64, error) {
	return f.totalOut, nil
}

func (f *fakeExpensesRepo) TotalByUserAndCategory(ctx context.Context, userID, category string) (float64, error) {
	return f.totalOut, nil
}

func (f *fakeExpensesRepo) Update(ctx context.Context, e *models.Expense) error { return f.updateErr }

func (f *fakeExpensesRepo) SetReceiptKey(ctx context.Context, id, userID, key string) error {
	f.receiptID, f.receiptKey = id, key
	return nil
}

func (f *fakeExpensesRepo) Delete(ctx context.Context, id, userID string) error { return f.deleteErr }

func ctxWithUser() context.Context {
	return auth.ContextWithPrincipal(context.Background(),
		&models.User{ID: "u1", Username: "alice"})
}

func newExpenseService(t *testing.T, repo *fakeExpensesRepo) (*ExpenseService, func()) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	rm := &fakeRepoManager{e: repo}
	cfg := &config.Config{S3Bucket: "receipts", S3Region: "us-east-1"}
	return NewExpenseService(db, rm, cfg), func() { db.Close() }
}

func TestAdd(t *testing.T) {
	repo := &fakeExpensesRepo{}
	s, cleanup := newExpenseService(t, repo)
	defer cleanup()

	e, err := s.Add(ctxWithUser(), 12.50, "lunch", "food")
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if e.ID != "e1" {
		t.Errorf("expected generated id, got %q", e.ID)
	}
	if e.UserID != "u1" {
		t.Errorf("expected owner u1, got %q", e.UserID)
	}
}

func TestAdd_NoPrincipal(t *testing.T) {
	s, cleanup := newExpenseService(t, &fakeExpensesRepo{})
	defer cleanup()

	_, err := s.Add(context.Background(), 12.50, "lunch", "food")
	if !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("expected ErrorUnauthorized, got %v", err)
	}
}

func TestListLastWeek(t *testing.T) {
	repo := &fakeExpensesRepo{listOut: []*models.Expense{{ID: "e1"}}}
	s, cleanup := newExpenseService(t, repo)
	defer cleanup()

	list, err := s.ListLastWeek(ctxWithUser())
	if err != nil {
		t.Fatalf("ListLastWeek error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(list))
	}

	window := repo.rangeTo.Sub(repo.rangeFrom)
	if window < 6*24*time.Hour || window > 8*24*time.Hour {
		t.Errorf("expected a seven day window, got %v", window)
	}
}

func TestTotal(t *testing.T) {
	repo := &fakeExpensesRepo{totalOut: 42.50}
	s, cleanup := newExpenseService(t, repo)
	defer cleanup()

	total, err := s.Total(ctxWithUser())
	if err != nil {
		t.Fatalf("Total error: %v", err)
	}
	if total != 42.50 {
		t.Errorf("expected 42.50, got %v", total)
	}
}

func TestDelete_CommitsOnSuccess(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeExpensesRepo{getOut: &models.Expense{ID: "e1", UserID: "u1"}}
	rm := &fakeRepoManager{e: repo}
	s := NewExpenseService(db, rm, &config.Config{})

	if err := s.Delete(ctxWithUser(), "e1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDelete_RollsBackWhenMissing(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeExpensesRepo{getErr: common.ErrorNotFound}
	rm := &fakeRepoManager{e: repo}
	s := NewExpenseService(db, rm, &config.Config{})

	if err := s.Delete(ctxWithUser(), "e1"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func withStubbedPresign(t *testing.T) {
	t.Helper()

	origPut, origGet := presignPutObject, presignGetObject
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://s3.local/put/" + *in.Key}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://s3.local/get/" + *in.Key}, nil
	}
	t.Cleanup(func() {
		presignPutObject, presignGetObject = origPut, origGet
	})
}

func TestAttachReceipt(t *testing.T) {
	withStubbedPresign(t)

	repo := &fakeExpensesRepo{getOut: &models.Expense{ID: "e1", UserID: "u1"}}
	s, cleanup := newExpenseService(t, repo)
	defer cleanup()

	upload, err := s.AttachReceipt(ctxWithUser(), "e1")
	if err != nil {
		t.Fatalf("AttachReceipt error: %v", err)
	}
	if !strings.HasPrefix(upload.Key, "receipts/") {
		t.Errorf("unexpected storage key %q", upload.Key)
	}
	if upload.URL != "https://s3.local/put/"+upload.Key {
		t.Errorf("unexpected URL %q", upload.URL)
	}
	if repo.receiptID != "e1" || repo.receiptKey != upload.Key {
		t.Errorf("receipt key not recorded: id=%q key=%q", repo.receiptID, repo.receiptKey)
	}
}

func TestReceiptURL(t *testing.T) {
	withStubbedPresign(t)

	repo := &fakeExpensesRepo{getOut: &models.Expense{ID: "e1", UserID: "u1", ReceiptKey: "receipts/abc"}}
	s, cleanup := newExpenseService(t, repo)
	defer cleanup()

	url, err := s.ReceiptURL(ctxWithUser(), "e1")
	if err != nil {
		t.Fatalf("ReceiptURL error: %v", err)
	}
	if url != "https://s3.local/get/receipts/abc" {
		t.Errorf("unexpected URL %q", url)
	}
}

func TestReceiptURL_NoReceipt(t *testing.T) {
	repo := &fakeExpensesRepo{getOut: &models.Expense{ID: "e1", UserID: "u1"}}
	s, cleanup := newExpenseService(t, repo)
	defer cleanup()

	_, err := s.ReceiptURL(ctxWithUser(), "e1")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestGetRandomStorageKey(t *testing.T) {
	k1 := GetRandomStorageKey()
	k2 := GetRandomStorageKey()
	if k1 == k2 {
		t.Error("expected unique keys")
	}
	if !strings.HasPrefix(k1, "receipts/") {
		t.Errorf("unexpected key %q", k1)
	}
}
