package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek622/filmsocial/social/pkg/model"
)

type recordingProducer struct {
	messages []*kafka.Message
}

func (p *recordingProducer) Produce(msg *kafka.Message, _ chan kafka.Event) error {
	p.messages = append(p.messages, msg)
	return nil
}

func TestReadGraphEvents(t *testing.T) {
	events, err := readGraphEvents("graphevents.json")
	require.NoError(t, err)
	require.Len(t, events, 7)
	assert.Equal(t, model.GraphEvent{UserID: 1, TargetID: 1, Kind: model.GraphEventKindLike, ProviderID: "seed"}, events[0])
	assert.Equal(t, model.GraphEventKindFriendRequest, events[6].Kind)
}

func TestReadGraphEventsRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"userId":`), 0o600))
	_, err := readGraphEvents(path)
	assert.Error(t, err)
}

func TestProduceGraphEvents(t *testing.T) {
	p := &recordingProducer{}
	events := []model.GraphEvent{
		{UserID: 4, TargetID: 9, Kind: model.GraphEventKindUnlike, ProviderID: "test"},
	}
	require.NoError(t, produceGraphEvents("graph-events", p, events))
	require.Len(t, p.messages, 1)
	assert.Equal(t, "graph-events", *p.messages[0].TopicPartition.Topic)
	assert.Equal(t, []byte("4"), p.messages[0].Key)

	var got model.GraphEvent
	require.NoError(t, json.Unmarshal(p.messages[0].Value, &got))
	assert.Equal(t, events[0], got)
}
