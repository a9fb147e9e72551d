package mocks

import (
	"context"
	"io"

	"digilocker/internal/model"
	"digilocker/internal/service"
	"digilocker/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, id model.Identifier, files []model.FileHandle) (*service.UploadResult, error) {
	args := m.Called(ctx, id, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, id model.Identifier) ([]model.DocumentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentRecord), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id model.Identifier, recordID string) (*model.DocumentRecord, error) {
	args := m.Called(ctx, id, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockDocumentService) Link(ctx context.Context, id model.Identifier, recordID string) (*service.Link, error) {
	args := m.Called(ctx, id, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Link), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id model.Identifier, recordID string) error {
	args := m.Called(ctx, id, recordID)
	return args.Error(0)
}

func (m *MockDocumentService) Open(ctx context.Context, fileURL string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, fileURL)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}
