package chat_dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendMessageRequest_Validation(t *testing.T) {
	validate := NewValidator()

	assert.NoError(t, validate.Struct(SendMessageRequest{Content: "hi"}))
	assert.Error(t, validate.Struct(SendMessageRequest{Content: ""}))
	assert.Error(t, validate.Struct(SendMessageRequest{Content: " \t\n"}))

	long := make([]byte, MaxContentLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, validate.Struct(SendMessageRequest{Content: string(long)}))
}

func TestPageQuery_Validation(t *testing.T) {
	validate := NewValidator()

	assert.NoError(t, validate.Struct(PageQuery{Page: 0, Size: 0}))
	assert.Error(t, validate.Struct(PageQuery{Page: -1}))
}
