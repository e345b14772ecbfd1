package crm

import (
	"context"
	"errors"
	"sync"
)

// ErrMockNotImplemented is returned when a MockClient method lacks an override.
var ErrMockNotImplemented = errors.New("crm.MockClient: method not implemented")

// MockClient is a test double for the CRM client interface.
type MockClient struct {
	ListPipelineFn      func(context.Context) (PipelineSnapshot, error)
	CreateDealFn        func(context.Context, CreateDealRequest) (Deal, error)
	UpdateDealFn        func(context.Context, string, UpdateDealRequest) (Deal, error)
	MoveDealFn          func(context.Context, string, string, int) (Deal, error)
	DeleteDealFn        func(context.Context, string) error
	ReplaceStagesFn     func(context.Context, []string) ([]string, error)
	LookupContactNameFn func(context.Context, string) (string, error)

	mu                         sync.Mutex
	ListPipelineCallCount      int
	CreateDealCallCount        int
	UpdateDealCallCount        int
	MoveDealCallCount          int
	DeleteDealCallCount        int
	ReplaceStagesCallCount     int
	LookupContactNameCallCount int
	CreateDealCallArgs         []CreateDealRequest
	UpdateDealCallArgs         []UpdateDealCallArg
	MoveDealCallArgs           []MoveDealCallArg
	DeleteDealCallArgs         []string
	ReplaceStagesCallArgs      [][]string
	LookupContactNameCallArgs  []string
}

// UpdateDealCallArg captures arguments passed to UpdateDeal.
type UpdateDealCallArg struct {
	ID      string
	Request UpdateDealRequest
}

// MoveDealCallArg captures arguments passed to MoveDeal.
type MoveDealCallArg struct {
	ID       string
	Stage    string
	Position int
}

// NewMockClient returns a MockClient with zeroed handlers.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// ListPipeline invokes the configured stub or returns ErrMockNotImplemented.
func (m *MockClient) ListPipeline(ctx context.Context) (PipelineSnapshot, error) {
	m.mu.Lock()
	m.ListPipelineCallCount++
	m.mu.Unlock()

	if m.ListPipelineFn == nil {
		return PipelineSnapshot{}, ErrMockNotImplemented
	}
	return m.ListPipelineFn(ctx)
}

// CreateDeal invokes the configured stub or echoes a mock record.
func (m *MockClient) CreateDeal(ctx context.Context, req CreateDealRequest) (Deal, error) {
	m.mu.Lock()
	m.CreateDealCallCount++
	m.CreateDealCallArgs = append(m.CreateDealCallArgs, req)
	m.mu.Unlock()

	if m.CreateDealFn == nil {
		return Deal{
			ID:       "dl-mock",
			Title:    req.Title,
			Value:    req.Value,
			Stage:    req.Stage,
			Priority: req.Priority,
			Position: req.Position,
		}, nil
	}
	return m.CreateDealFn(ctx, req)
}

// UpdateDeal invokes the configured stub or returns a minimal merged record.
func (m *MockClient) UpdateDeal(ctx context.Context, id string, req UpdateDealRequest) (Deal, error) {
	m.mu.Lock()
	m.UpdateDealCallCount++
	m.UpdateDealCallArgs = append(m.UpdateDealCallArgs, UpdateDealCallArg{ID: id, Request: req})
	m.mu.Unlock()

	if m.UpdateDealFn == nil {
		return req.ApplyTo(Deal{ID: id}), nil
	}
	return m.UpdateDealFn(ctx, id, req)
}

// MoveDeal invokes the configured stub or returns a minimal moved record.
func (m *MockClient) MoveDeal(ctx context.Context, id, stage string, position int) (Deal, error) {
	m.mu.Lock()
	m.MoveDealCallCount++
	m.MoveDealCallArgs = append(m.MoveDealCallArgs, MoveDealCallArg{ID: id, Stage: stage, Position: position})
	m.mu.Unlock()

	if m.MoveDealFn == nil {
		return Deal{ID: id, Stage: stage, Position: position}, nil
	}
	return m.MoveDealFn(ctx, id, stage, position)
}

// DeleteDeal invokes the configured stub or returns nil (no-op by default).
func (m *MockClient) DeleteDeal(ctx context.Context, id string) error {
	m.mu.Lock()
	m.DeleteDealCallCount++
	m.DeleteDealCallArgs = append(m.DeleteDealCallArgs, id)
	m.mu.Unlock()

	if m.DeleteDealFn == nil {
		return nil
	}
	return m.DeleteDealFn(ctx, id)
}

// ReplaceStages invokes the configured stub or echoes the input.
func (m *MockClient) ReplaceStages(ctx context.Context, stages []string) ([]string, error) {
	m.mu.Lock()
	m.ReplaceStagesCallCount++
	copied := append([]string{}, stages...)
	m.ReplaceStagesCallArgs = append(m.ReplaceStagesCallArgs, copied)
	m.mu.Unlock()

	if m.ReplaceStagesFn == nil {
		return copied, nil
	}
	return m.ReplaceStagesFn(ctx, stages)
}

// LookupContactName invokes the configured stub or returns "" (absent contact).
func (m *MockClient) LookupContactName(ctx context.Context, contactID string) (string, error) {
	m.mu.Lock()
	m.LookupContactNameCallCount++
	m.LookupContactNameCallArgs = append(m.LookupContactNameCallArgs, contactID)
	m.mu.Unlock()

	if m.LookupContactNameFn == nil {
		return "", nil
	}
	return m.LookupContactNameFn(ctx, contactID)
}

var _ Client = (*MockClient)(nil)
