package queries

import (
	"context"
	"fmt"

	"github.com/proximalabs/proxima-go/internal/application/common"
)

// ListExperimentsQuery - Query for the registered experiments
type ListExperimentsQuery struct{}

// ListExperimentsResponse - Response carrying the experiment documents
type ListExperimentsResponse struct {
	Experiments []*common.ExperimentDocument
}

// ListExperimentsHandler - Handles experiment listing
type ListExperimentsHandler struct {
	documents common.DocumentRepository
}

// NewListExperimentsHandler creates a new list experiments handler
func NewListExperimentsHandler(documents common.DocumentRepository) *ListExperimentsHandler {
	return &ListExperimentsHandler{documents: documents}
}

// Handle executes the list experiments query
func (h *ListExperimentsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*ListExperimentsQuery); !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	experiments, err := h.documents.ListExperiments(ctx)
	if err != nil {
		return nil, err
	}
	return &ListExperimentsResponse{Experiments: experiments}, nil
}
