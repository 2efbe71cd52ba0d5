package core

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKindAndCause(t *testing.T) {
	err := IOError("pkg/app.js", "X.cache.js", "unable to copy resource", fs.ErrPermission)

	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.False(t, errors.Is(err, ErrResourceNotFound))
	assert.Equal(t,
		"i/o failure resource=pkg/app.js output=X.cache.js: unable to copy resource: permission denied",
		err.Error())
}

func TestError_Constructors(t *testing.T) {
	assert.ErrorIs(t, NotFoundf("a", "x"), ErrResourceNotFound)
	assert.ErrorIs(t, InvalidConfigf("bad %s", "value"), ErrInvalidConfiguration)
	assert.ErrorIs(t, Malformedf("method %s", "Logo"), ErrMalformedMetadata)
	assert.Equal(t, "malformed metadata: method Logo", Malformedf("method %s", "Logo").Error())
}

func TestError_ZeroKind(t *testing.T) {
	cause := errors.New("boom")
	for name, tc := range map[string]struct {
		err  *Error
		want string
	}{
		"message only": {&Error{Message: "something odd"}, "something odd"},
		"resource":     {&Error{Resource: "a.js", Cause: cause}, "resource=a.js: boom"},
		"empty":        {&Error{}, "cachebundle: unknown error"},
		"nil receiver": {nil, ""},
	} {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() { assert.Equal(t, tc.want, tc.err.Error()) })
		})
	}

	err := &Error{Message: "x", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.False(t, errors.Is(err, ErrIO))
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "text/css; charset=utf-8", MediaType("X.cache.css", nil))
	assert.Equal(t, "image/png", MediaType("logo.png", nil))
	assert.Equal(t, "", MediaTypeByName("X.cache.noext"))
	assert.Equal(t, "application/pdf", MediaType("X.cache.noext", []byte("%PDF-1.4\n")))
}
