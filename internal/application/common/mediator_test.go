package common_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proximalabs/proxima-go/internal/application/common"
)

type pingRequest struct {
	Message string
}

type pingHandler struct{}

func (pingHandler) Handle(_ context.Context, request common.Request) (common.Response, error) {
	return "pong: " + request.(*pingRequest).Message, nil
}

func TestMediator_SendDispatchesByRequestType(t *testing.T) {
	// Arrange
	m := common.NewMediator()
	require.NoError(t, common.RegisterHandler[*pingRequest](m, pingHandler{}))

	// Act
	resp, err := m.Send(context.Background(), &pingRequest{Message: "hello"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "pong: hello", resp)
}

func TestMediator_UnregisteredRequestFails(t *testing.T) {
	// Arrange
	m := common.NewMediator()

	// Act
	_, err := m.Send(context.Background(), &pingRequest{})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler registered")
}

func TestMediator_DuplicateRegistrationFails(t *testing.T) {
	// Arrange
	m := common.NewMediator()
	require.NoError(t, common.RegisterHandler[*pingRequest](m, pingHandler{}))

	// Act
	err := common.RegisterHandler[*pingRequest](m, pingHandler{})

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestMediator_NilRequestFails(t *testing.T) {
	// Arrange
	m := common.NewMediator()

	// Act
	_, err := m.Send(context.Background(), nil)

	// Assert
	require.Error(t, err)
}
