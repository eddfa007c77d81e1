package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Nitish-kumar777/storage-app/internal/model"
)

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.FileRecord, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

func (m *MockFileRepository) FindByUploadKey(ctx context.Context, ownerID, key string) (*model.FileRecord, error) {
	args := m.Called(ctx, ownerID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

func (m *MockFileRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.FileRecord, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FileRecord), args.Error(1)
}

func (m *MockFileRepository) SumSizeByOwner(ctx context.Context, ownerID string) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFileRepository) ExistsByObjectKey(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockFileRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

type MockUploadIntentRepository struct {
	mock.Mock
}

func (m *MockUploadIntentRepository) Begin(ctx context.Context, intent *model.UploadIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

func (m *MockUploadIntentRepository) Commit(ctx context.Context, intentID string, rec *model.FileRecord) (*model.FileRecord, error) {
	args := m.Called(ctx, intentID, rec)
	if f, ok := args.Get(0).(func(context.Context, string, *model.FileRecord) *model.FileRecord); ok {
		return f(ctx, intentID, rec), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

func (m *MockUploadIntentRepository) Abandon(ctx context.Context, intentID string) error {
	args := m.Called(ctx, intentID)
	return args.Error(0)
}

func (m *MockUploadIntentRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]model.UploadIntent, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UploadIntent), args.Error(1)
}
