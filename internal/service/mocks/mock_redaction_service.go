package mocks

import (
	"context"

	"redactapi/internal/model"
	"redactapi/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockRedactionService struct {
	mock.Mock
}

func (m *MockRedactionService) Create(ctx context.Context, documentID string, in service.CreateRedactionInput) (*model.Redaction, error) {
	args := m.Called(ctx, documentID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Redaction), args.Error(1)
}

func (m *MockRedactionService) List(ctx context.Context, documentID string) ([]model.Redaction, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Redaction), args.Error(1)
}

func (m *MockRedactionService) Render(ctx context.Context, documentID string) (*service.RenderedDocument, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RenderedDocument), args.Error(1)
}
