package mocks

import (
	"context"

	"redactapi/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockRedactionRepository struct {
	mock.Mock
}

func (m *MockRedactionRepository) Create(ctx context.Context, r *model.Redaction) (*model.Redaction, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Redaction), args.Error(1)
}

func (m *MockRedactionRepository) ListByDocument(ctx context.Context, documentID string) ([]model.Redaction, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Redaction), args.Error(1)
}
