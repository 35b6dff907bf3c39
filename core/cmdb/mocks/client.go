package mocks

import (
	"context"

	"cmdb-sync/core/cmdb"
	"cmdb-sync/core/state"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of cmdb.Client
type Client struct {
	mock.Mock
}

func (m *Client) Search(ctx context.Context, kind state.Kind, name string) (*cmdb.Record, error) {
	args := m.Called(ctx, kind, name)
	if rec, ok := args.Get(0).(*cmdb.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Create(ctx context.Context, kind state.Kind, payload map[string]any) (string, error) {
	args := m.Called(ctx, kind, payload)
	return args.String(0), args.Error(1)
}

func (m *Client) Update(ctx context.Context, kind state.Kind, id string, payload map[string]any) error {
	args := m.Called(ctx, kind, id, payload)
	return args.Error(0)
}

func (m *Client) List(ctx context.Context, kind state.Kind, typeFilter string) ([]cmdb.Record, error) {
	args := m.Called(ctx, kind, typeFilter)
	if recs, ok := args.Get(0).([]cmdb.Record); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) CreateRelationshipsBulk(ctx context.Context, rels []cmdb.RelationshipPayload) (string, error) {
	args := m.Called(ctx, rels)
	return args.String(0), args.Error(1)
}

func (m *Client) GetJob(ctx context.Context, jobID string) (*cmdb.Job, error) {
	args := m.Called(ctx, jobID)
	if job, ok := args.Get(0).(*cmdb.Job); ok {
		return job, args.Error(1)
	}
	return nil, args.Error(1)
}
