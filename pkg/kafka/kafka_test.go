package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Query string `json:"query"`
	Hits  int    `json:"hits"`
}

func TestEncodeDecode(t *testing.T) {
	msgs, err := Encode([]Event{{Key: "search", Value: payload{Query: "cocoa", Hits: 3}}})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "search", string(msgs[0].Key))

	got, err := DecodeJSON[payload](msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, payload{Query: "cocoa", Hits: 3}, got)
}

func TestEncodeRejectsUnmarshalable(t *testing.T) {
	_, err := Encode([]Event{{Key: "bad", Value: make(chan int)}})
	assert.Error(t, err)
}

func TestDecodeJSONError(t *testing.T) {
	_, err := DecodeJSON[payload]([]byte("{"))
	assert.Error(t, err)
}
