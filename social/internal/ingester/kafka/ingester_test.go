package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek622/filmsocial/social/pkg/model"
)

func TestDecode(t *testing.T) {
	got, err := Decode([]byte(`{"userId":1,"targetId":10,"kind":"like","providerId":"imdb"}`))
	require.NoError(t, err)
	assert.Equal(t, model.GraphEvent{UserID: 1, TargetID: 10, Kind: model.GraphEventKindLike, ProviderID: "imdb"}, got)

	for name, payload := range map[string]string{
		"not json":     `{"userId":`,
		"unknown kind": `{"userId":1,"targetId":2,"kind":"poke"}`,
		"missing user": `{"targetId":2,"kind":"friend_request"}`,
		"negative id":  `{"userId":1,"targetId":-2,"kind":"unlike"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload))
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}
