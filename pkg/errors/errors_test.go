package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foldcore/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"lattice too large", errors.ErrCodeLatticeTooLarge, "side 7 exceeds 6"},
		{"length mismatch", errors.ErrCodeSequenceLength, "got 24 residues, want 25"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.Contains(t, ae.Stack, "errors_test.go")
		})
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	ae := errors.Newf(errors.ErrCodeUnknownResidue, "unknown residue %q at %d", 'X', 3)
	assert.Equal(t, `unknown residue 'X' at 3`, ae.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// Error()
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	ae := errors.New(errors.ErrCodeDecoyMalformed, "bad header")
	assert.Equal(t, "[DECOY_001] bad header", ae.Error())

	withDetail := ae.WithDetail("file=decoy_001.txt")
	assert.Equal(t, "[DECOY_001] bad header: file=decoy_001.txt", withDetail.Error())

	withCause := withDetail.WithCause(fmt.Errorf("EOF"))
	assert.Equal(t, "[DECOY_001] bad header: file=decoy_001.txt: EOF", withCause.Error())
}

func TestWithDetail_DoesNotMutateReceiver(t *testing.T) {
	ae := errors.New(errors.CodeInternal, "x")
	clone := ae.WithDetailf("id=%d", 7)
	assert.Empty(t, ae.Detail)
	assert.Equal(t, "id=7", clone.Detail)
}

func TestWithDetail_NilReceiver(t *testing.T) {
	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("y")))
}

// ─────────────────────────────────────────────────────────────────────────────
// Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "ignored"))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := stderrors.New("permission denied")
	ae := errors.Wrap(cause, errors.ErrCodeDecoyUnreadable, "open map")

	require.NotNil(t, ae)
	assert.True(t, stderrors.Is(ae, cause))
	assert.Equal(t, errors.ErrCodeDecoyUnreadable, ae.Code)
}

func TestWrap_UnknownCodeKeepsInnerCode(t *testing.T) {
	inner := errors.New(errors.ErrCodeLatticeTooLarge, "too big")
	outer := errors.Wrap(inner, errors.CodeUnknown, "build library")
	assert.Equal(t, errors.ErrCodeLatticeTooLarge, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_TraversesChain(t *testing.T) {
	inner := errors.New(errors.ErrCodeDecoyLengthMismatch, "length 299")
	wrapped := fmt.Errorf("loading: %w", errors.Wrap(inner, errors.ErrCodeLibraryEmpty, "no maps"))

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeLibraryEmpty))
	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeDecoyLengthMismatch))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeSequenceLength))
	assert.False(t, errors.IsCode(nil, errors.CodeInternal))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, errors.IsNotFound(errors.NotFound("x")))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeStructureNotFound, "id 9000")))
	assert.False(t, errors.IsNotFound(errors.Internal("x")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(fmt.Errorf("w: %w", errors.InvalidConfig("bad"))))
}

func TestAs(t *testing.T) {
	var ae *errors.AppError
	err := fmt.Errorf("w: %w", errors.InvalidParam("bad"))
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, errors.CodeInvalidParam, ae.Code)
}

//Personal.AI order the ending
