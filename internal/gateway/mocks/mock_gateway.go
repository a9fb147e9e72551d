package mocks

import (
	"context"
	"io"
	"time"

	"digilocker/internal/model"
	"digilocker/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Upload(ctx context.Context, id model.Identifier, file model.FileHandle) (*model.DocumentRecord, error) {
	args := m.Called(ctx, id, file.Name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockGateway) List(ctx context.Context, id model.Identifier) ([]model.DocumentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentRecord), args.Error(1)
}

func (m *MockGateway) Remove(ctx context.Context, recordID, fileURL string) error {
	args := m.Called(ctx, recordID, fileURL)
	return args.Error(0)
}

func (m *MockGateway) Get(ctx context.Context, recordID string) (*model.DocumentRecord, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentRecord), args.Error(1)
}

func (m *MockGateway) Open(ctx context.Context, fileURL string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, fileURL)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockGateway) SignedURL(ctx context.Context, fileURL string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, fileURL, expiry)
	return args.String(0), args.Error(1)
}
