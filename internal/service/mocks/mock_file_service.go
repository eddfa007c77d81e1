package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Nitish-kumar777/storage-app/internal/model"
	"github.com/Nitish-kumar777/storage-app/internal/service"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, in service.UploadInput) (*model.FileRecord, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

func (m *MockFileService) UploadBatch(ctx context.Context, ownerID string, inputs []service.UploadInput) ([]service.UploadResult, error) {
	args := m.Called(ctx, ownerID, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.UploadResult), args.Error(1)
}

func (m *MockFileService) Usage(ctx context.Context, ownerID string) (model.Usage, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(model.Usage), args.Error(1)
}

func (m *MockFileService) ListFiles(ctx context.Context, ownerID string) (*service.Listing, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Listing), args.Error(1)
}

func (m *MockFileService) ListRecords(ctx context.Context, ownerID string) (*service.RecordListing, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecordListing), args.Error(1)
}

func (m *MockFileService) ResolveDownload(ctx context.Context, ownerID, fileID string) (*model.DownloadTarget, error) {
	args := m.Called(ctx, ownerID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DownloadTarget), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, req service.DeleteRequest) (*service.DeleteResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DeleteResult), args.Error(1)
}
