package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/abhishek622/filmsocial/social/pkg/model"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var (
		addr     string
		topic    string
		fileName string
	)
	flag.StringVar(&addr, "addr", "localhost:9092", "Kafka bootstrap servers")
	flag.StringVar(&topic, "topic", "graph-events", "topic to produce to")
	flag.StringVar(&fileName, "file", "graphevents.json", "JSON file with graph events")
	flag.Parse()

	logger.Info("Creating a kafka producer", zap.String("addr", addr))
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": addr,
	})
	if err != nil {
		logger.Fatal("Cannot create producer", zap.Error(err))
	}
	defer producer.Close()

	go func() {
		for e := range producer.Events() {
			if ev, ok := e.(*kafka.Message); ok && ev.TopicPartition.Error != nil {
				logger.Warn("Delivery failed", zap.String("partition", ev.TopicPartition.String()), zap.Error(ev.TopicPartition.Error))
			}
		}
	}()

	logger.Info("Reading graph events", zap.String("file", fileName))
	events, err := readGraphEvents(fileName)
	if err != nil {
		logger.Fatal("Cannot read events", zap.Error(err))
	}
	if err := produceGraphEvents(topic, producer, events); err != nil {
		logger.Fatal("Cannot produce events", zap.Error(err))
	}

	if remaining := producer.Flush(10_000); remaining != 0 {
		logger.Fatal("Messages not delivered", zap.Int("remaining", remaining))
	}
	logger.Info("All events produced", zap.Int("count", len(events)))
}

func readGraphEvents(fileName string) ([]model.GraphEvent, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []model.GraphEvent
	if err := json.NewDecoder(f).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode %s: %w", fileName, err)
	}
	return events, nil
}

type messageProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

func produceGraphEvents(topic string, producer messageProducer, events []model.GraphEvent) error {
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := producer.Produce(&kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            []byte(fmt.Sprint(e.UserID)),
			Value:          payload,
		}, nil); err != nil {
			return err
		}
	}
	return nil
}
