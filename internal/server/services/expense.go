package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkolesnikov/expensio/internal/common"
	"github.com/dkolesnikov/expensio/internal/dbx"
	"github.com/dkolesnikov/expensio/internal/server/auth"
	sc "github.com/dkolesnikov/expensio/internal/server/config"
	"github.com/dkolesnikov/expensio/internal/server/models"
	"github.com/dkolesnikov/expensio/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ReceiptUpload carries the storage key recorded on the expense and the
// presigned URL the client uploads the receipt to.
type ReceiptUpload struct {
	Key string
	URL string
}

// ExpenseService implements the expense record operations. Every method takes
// the acting user from the request context and scopes storage access to them;
// a context without a principal yields ErrorUnauthorized.
type ExpenseService struct {
	db          *sql.DB
	repomanager repomanager.RepoManager
	config      *sc.Config
}

func NewExpenseService(db *sql.DB, repomanager repomanager.RepoManager, config *sc.Config) *ExpenseService {
	return &ExpenseService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

// GetRandomStorageKey builds an object key partitioned by date so buckets stay
// listable as receipts accumulate.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("receipts/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func principal(ctx context.Context) (*models.User, error) {
	user, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

func (s *ExpenseService) Add(ctx context.Context, amount float64, description, category string) (*models.Expense, error) {
	user, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Expenses(s.db)
	expense := &models.Expense{
		UserID:      user.ID,
		Amount:      amount,
		Description: description,
		Category:    category,
	}
	e, err := repo.Create(ctx, expense)
	if err != nil {
		return nil, fmt.Errorf("error creating expense: %w", err)
	}
	return e, nil
}

func (s *ExpenseService) Get(ctx context.Context, id string) (*models.Expense, error) {
	user, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Expenses(s.db).GetByIDAndUser(ctx, id, user.ID)
}

func (s *ExpenseService) List(ctx context.Context) ([]*models.Expense, error) {
	user, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Expenses(s.db).ListByUser(ctx, user.ID)
}

func (s *ExpenseService) ListByCategory(ctx context.Context, category string) ([]*models.Expense, error) {
	user, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Expenses(s.db).ListByUserAndCategory(ctx, user.ID, category)
}

func (s *ExpenseService) ListInRange(ctx context.Context, from, to time.Time) ([]*models.Expense, error) {
	user, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Expenses(s.db).ListByUserInRange(ctx, user.ID, from, to)
}

// ListLastWeek returns the user's expenses recorded in the past seven days.
func (s *ExpenseService) ListLastWeek(ctx context.Context) ([]*models.Expense, error) {
	now := time.Now()
	return s.ListInRange(ctx, now.AddDate(0, 0, -7), now)
}

func (s *ExpenseService) Total(ctx context.Context) (float64, error) {
	user, err := principal(ctx)
	if err != nil {
		return 0, err
	}
	return s.repomanager.Expenses(s.db).TotalByUser(ctx, user.ID)
}

func (s *ExpenseService) TotalByCategory(ctx context.Context, category string) (float64, error) {
	user, err := principal(ctx)
	if err != nil {
		return 0, err
	}
	return s.repomanager.Expenses(s.db).TotalByUserAndCategory(ctx, user.ID, category)
}

func (s *ExpenseService) Update(ctx context.Context, id string, amount float64, description, category string) (*models.Expense, error) {
	user, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		ID:          id,
		UserID:      user.ID,
		Amount:      amount,
		Description: description,
		Category:    category,
	}

	repo := s.repomanager.Expenses(s.db)
	if err := repo.Update(ctx, expense); err != nil {
		return nil, err
	}
	return repo.GetByIDAndUser(ctx, id, user.ID)
}

// Delete removes the record after re-reading it inside one transaction, so a
// concurrent owner change or removal cannot slip between the check and the
// delete.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	user, err := principal(ctx)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Expenses(tx)
		if _, err := repo.GetByIDAndUser(ctx, id, user.ID); err != nil {
			return err
		}
		return repo.Delete(ctx, id, user.ID)
	})
}

// AttachReceipt records a fresh storage key on the expense and returns a
// presigned PUT URL for the client to upload the receipt image to.
func (s *ExpenseService) AttachReceipt(ctx context.Context, id string) (*ReceiptUpload, error) {
	user, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Expenses(s.db)
	if _, err := repo.GetByIDAndUser(ctx, id, user.ID); err != nil {
		return nil, err
	}

	key := GetRandomStorageKey()
	url, err := s.getPresignedPutURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}

	if err := repo.SetReceiptKey(ctx, id, user.ID, key); err != nil {
		return nil, err
	}

	return &ReceiptUpload{Key: key, URL: url}, nil
}

// ReceiptURL returns a presigned GET URL for the expense's stored receipt.
// Expenses without a receipt yield ErrorNotFound.
func (s *ExpenseService) ReceiptURL(ctx context.Context, id string) (string, error) {
	user, err := principal(ctx)
	if err != nil {
		return "", err
	}

	expense, err := s.repomanager.Expenses(s.db).GetByIDAndUser(ctx, id, user.ID)
	if err != nil {
		return "", err
	}
	if expense.ReceiptKey == "" {
		return "", common.ErrorNotFound
	}

	url, err := s.getPresignedGetURL(ctx, expense.ReceiptKey)
	if err != nil {
		return "", fmt.Errorf("error presigning download: %w", err)
	}
	return url, nil
}

func (s *ExpenseService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *ExpenseService) getPresignedPutURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (s *ExpenseService) getPresignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
