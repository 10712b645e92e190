package flows_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jrsteele09/go-oauth-flows/flows"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesByKind(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", &flows.Error{Kind: flows.KindAuthServerError, Detail: "access_denied", Err: cause})

	require.ErrorIs(t, err, flows.ErrAuthServerError)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, flows.ErrStateMismatch)
	require.Equal(t, flows.KindAuthServerError, flows.KindOf(err))
	require.Equal(t, "outer: AUTH_SERVER_RETURNED_ERROR (access_denied): boom", err.Error())

	require.Equal(t, flows.Kind(""), flows.KindOf(cause))
	require.Equal(t, "INVALID_STATE", flows.ErrInvalidState.Error())
}

func TestSecurityRelevant(t *testing.T) {
	require.True(t, flows.KindStateMismatch.SecurityRelevant())
	require.True(t, flows.KindInvalidCorrelationRecord.SecurityRelevant())
	require.False(t, flows.KindAuthServerError.SecurityRelevant())
	require.False(t, flows.KindTokenRequestFailed.SecurityRelevant())
}
