// Package kafka provides a client for Kafka.
package kafka

import (
	"context"

	kafkaLib "github.com/segmentio/kafka-go"
)

// Topics
const (
	topicChallenge = "walletauth.messages.challenge"
	consumerGroup  = "walletauth-msgconsumer"
)

// Reader reads messages from a Kafka topic.
type Reader interface {
	ReadMessage(ctx context.Context) (kafkaLib.Message, error)
}

// Writer writes messages to a Kafka topic.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkaLib.Message) error
}

// Client contains a pair of Kafka reader and writers
// for every topic we are interested in.
type Client struct {
	ChallengeReader Reader
	ChallengeWriter Writer
}

// NewClient returns a new Client.
func NewClient(brokers []string) *Client {
	return &Client{
		ChallengeReader: newReader(brokers, topicChallenge),
		ChallengeWriter: newWriter(brokers, topicChallenge),
	}
}

func newReader(brokers []string, topic string) *kafkaLib.Reader {
	return kafkaLib.NewReader(kafkaLib.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  consumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

func newWriter(brokers []string, topic string) *kafkaLib.Writer {
	return &kafkaLib.Writer{
		Addr:     kafkaLib.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafkaLib.Hash{},
	}
}
