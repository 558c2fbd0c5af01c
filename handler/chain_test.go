package handler

import (
	"errors"
	"net"
	"testing"

	"github.com/dmitrymomot/httprelay/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubContext is a minimal in-package Context used only to exercise
// Chain.Execute and the SetUserData/GetUserData free functions. The
// userDataSetter/userDataGetter interfaces are unexported, so a fake
// implementing them must live in this package (Go only matches unexported
// interface methods within the same package).
type stubContext struct {
	open bool
	data any
}

func newStubContext() *stubContext { return &stubContext{open: true} }

func (s *stubContext) Send(wire.Message) {}
func (s *stubContext) Recv()             {}
func (s *stubContext) IsOpen() bool      { return s.open }
func (s *stubContext) Stream() net.Conn  { return nil }

func (s *stubContext) setUserData(v any)          { s.data = v }
func (s *stubContext) getUserData() (any, bool)   { return s.data, s.data != nil }

func TestNewChain_EmptyIsError(t *testing.T) {
	_, err := NewChain()
	assert.ErrorIs(t, err, ErrEmptyChain)
}

func TestNewChain_UnsupportedSignature(t *testing.T) {
	_, err := NewChain(func(int) {})
	assert.ErrorIs(t, err, ErrUnsupportedHandlerSignature)
}

func TestChain_ArityAdaptation_ContextOnly(t *testing.T) {
	called := false
	c, err := NewChain(func(ctx Context) {
		called = true
	})
	require.NoError(t, err)

	handled, err := c.Execute(newStubContext(), Request{}, Match{})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.True(t, called)
}

func TestChain_ArityAdaptation_BoolReturnShortCircuits(t *testing.T) {
	var order []int
	c, err := NewChain(
		func(ctx Context) bool { order = append(order, 1); return true },
		func(ctx Context) bool { order = append(order, 2); return false },
		func(ctx Context) bool { order = append(order, 3); return true },
	)
	require.NoError(t, err)

	handled, err := c.Execute(newStubContext(), Request{}, Match{})
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Equal(t, []int{1, 2}, order)
}

func TestChain_ErrorShortCircuits(t *testing.T) {
	boom := errors.New("boom")
	ran3 := false
	c, err := NewChain(
		func(ctx Context) error { return nil },
		func(ctx Context) error { return boom },
		func(ctx Context) { ran3 = true },
	)
	require.NoError(t, err)

	handled, err := c.Execute(newStubContext(), Request{}, Match{})
	assert.ErrorIs(t, err, boom)
	assert.False(t, handled)
	assert.False(t, ran3)
}

func TestChain_ThreeArityReceivesRequestAndMatch(t *testing.T) {
	var gotMethod Method
	var gotGroup string
	c, err := NewChain(func(ctx Context, req Request, m Match) bool {
		gotMethod = req.Method
		gotGroup = m.Group(1)
		return true
	})
	require.NoError(t, err)

	req := Request{Method: MethodGet, Target: "/users/42"}
	m := Match{Groups: []string{"/users/42", "42"}}
	handled, err := c.Execute(newStubContext(), req, m)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, MethodGet, gotMethod)
	assert.Equal(t, "42", gotGroup)
}

func TestChain_UserDataAcrossChain(t *testing.T) {
	// Mirrors scenario E2 from spec.md: three handlers accumulate
	// user-data across the same Context.
	ctx := newStubContext()

	c, err := NewChain(
		func(ctx Context) { SetUserData(ctx, "A") },
		func(ctx Context) {
			cur, _ := GetUserData[string](ctx)
			SetUserData(ctx, cur+"B")
		},
		func(ctx Context) bool {
			cur, ok := GetUserData[string](ctx)
			return ok && cur == "AB"
		},
	)
	require.NoError(t, err)

	handled, err := c.Execute(ctx, Request{}, Match{})
	require.NoError(t, err)
	assert.True(t, handled)
}

func TestGetUserData_MismatchedTypeFails(t *testing.T) {
	ctx := newStubContext()
	SetUserData(ctx, 42)

	_, ok := GetUserData[string](ctx)
	assert.False(t, ok)

	v, ok := GetUserData[int](ctx)
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestMethod_ParseAndString(t *testing.T) {
	cases := []struct {
		in   string
		want Method
	}{
		{"GET", MethodGet},
		{"get", MethodGet},
		{"POST", MethodPost},
		{"", MethodUnknown},
		{"bogus", MethodUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseMethod(tc.in), tc.in)
	}
	assert.Equal(t, "GET", MethodGet.String())
	assert.Equal(t, "", MethodUnknown.String())
}
