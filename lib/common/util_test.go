package common

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUID(t *testing.T) {
	a := GenerateUUID()
	b := GenerateUUID()
	require.NotEqual(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestMustUnmarshalJSON(t *testing.T) {
	var m map[string]string
	MustUnmarshalJSON([]byte(`{"title":"showme"}`), &m)
	require.Equal(t, "showme", m["title"])

	require.Panics(t, func() {
		MustUnmarshalJSON([]byte(`{"title":`), &m)
	})
}
