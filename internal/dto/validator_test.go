package dto

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCustomTags(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Struct(RegisterRequest{Username: "alice_1", Email: "a@ubc.ca", Password: "x"}))

	err := v.Struct(RegisterRequest{Username: "al", Email: "a@ubc.ca", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "username must be 3-30 letters, digits or underscores", ValidationMessage(err))

	code := "CPSC2210"
	err = v.Struct(CreateCourseRequest{Code: code})
	require.Error(t, err)
	assert.Equal(t, "code must be 3-4 letters followed by 3 digits", ValidationMessage(err))
	require.NoError(t, v.Struct(CreateCourseRequest{Code: "math101"}))

	err = v.Struct(CreatePostRequest{Title: "t", Language: "rust"})
	require.Error(t, err)
	assert.Equal(t, "language must be one of javascript, python, cpp, java", ValidationMessage(err))
}

func TestValidatorRejectsNUL(t *testing.T) {
	v := NewValidator()

	err := v.Struct(CreatePostRequest{Title: "t", Language: "python", Code: "a\x00b"})
	require.Error(t, err)
	assert.Equal(t, "code must not contain NUL characters", ValidationMessage(err))

	err = v.Struct(CreatePostRequest{Title: "t", Language: "python", Tags: []string{"ok", "b\x00d"}})
	require.Error(t, err)
	assert.Contains(t, ValidationMessage(err), "must not contain NUL characters")

	err = v.Struct(CreateCommentRequest{PostID: 1, Content: "\x00"})
	require.Error(t, err)
	assert.Equal(t, "content must not contain NUL characters", ValidationMessage(err))

	require.NoError(t, v.Struct(CreatePostRequest{Title: "t", Language: "python", Code: "tab\tnewline\n"}))
}

func TestValidationMessageLengths(t *testing.T) {
	v := NewValidator()

	err := v.Struct(CreatePostRequest{Language: "python"})
	assert.Equal(t, "title is required", ValidationMessage(err))

	err = v.Struct(CreatePostRequest{Title: strings.Repeat("é", 201), Language: "python"})
	assert.Equal(t, "title must be at most 200 characters", ValidationMessage(err))

	require.NoError(t, v.Struct(CreatePostRequest{Title: strings.Repeat("é", 200), Language: "python"}))

	err = v.Struct(CreatePostRequest{Title: "t", Language: "python", Tags: make([]string, 11)})
	assert.Equal(t, "tags must have at most 10 items", ValidationMessage(err))

	assert.Equal(t, "invalid request payload", ValidationMessage(errors.New("boom")))
}
