// Package kafka contains repositories backed by Kafka.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/linkedin/goavro/v2"
	kafkaLib "github.com/segmentio/kafka-go"

	auth "github.com/fmitra/walletauth"
)

// MessageRepository allows us to read and write to a challenge
// Kafka topic.
type MessageRepository struct {
	reader Reader
	writer Writer
	codec  *goavro.Codec
}

// NewMessageRepository returns a new implementation of auth.MessageRepository.
func NewMessageRepository(client *Client) (auth.MessageRepository, error) {
	codec, err := goavro.NewCodec(MessageSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}

	return &MessageRepository{
		reader: client.ChallengeReader,
		writer: client.ChallengeWriter,
		codec:  codec,
	}, nil
}

// Publish writes a message to topic `walletauth.messages.challenge`.
// Messages are keyed by address to keep deliveries to one recipient ordered.
func (r *MessageRepository) Publish(ctx context.Context, msg *auth.Message) error {
	native := map[string]interface{}{
		"delivery":          string(msg.Delivery),
		"address":           msg.Address,
		"subject":           msg.Subject,
		"content":           msg.Content,
		"expires_at":        msg.ExpiresAt.Truncate(time.Microsecond),
		"delivery_attempts": int32(msg.DeliveryAttempts),
	}

	b, err := r.codec.BinaryFromNative(nil, native)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	return r.writer.WriteMessages(ctx, kafkaLib.Message{
		Key:   []byte(msg.Address),
		Value: b,
	})
}

// Recent retrieves messages recently written to `walletauth.messages.challenge`.
func (r *MessageRepository) Recent(ctx context.Context) (<-chan *auth.Message, <-chan error) {
	errc := make(chan error, 1)
	msgc := make(chan *auth.Message)

	go func() {
		defer close(errc)
		defer close(msgc)

		for {
			kafkaMsg, err := r.reader.ReadMessage(ctx)
			if err != nil {
				errc <- fmt.Errorf("failed to read message: %w", err)
				return
			}

			msg, err := r.decode(kafkaMsg.Value)
			if err != nil {
				errc <- err
				return
			}

			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			case msgc <- msg:
				continue
			}
		}
	}()

	return msgc, errc
}

func (r *MessageRepository) decode(b []byte) (*auth.Message, error) {
	native, _, err := r.codec.NativeFromBinary(b)
	if err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}

	fields, ok := native.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected message type %T", native)
	}

	var msg auth.Message
	{
		delivery, _ := fields["delivery"].(string)
		msg.Delivery = auth.DeliveryMethod(delivery)
		msg.Address, _ = fields["address"].(string)
		msg.Subject, _ = fields["subject"].(string)
		msg.Content, _ = fields["content"].(string)
		msg.ExpiresAt, _ = fields["expires_at"].(time.Time)
		attempts, _ := fields["delivery_attempts"].(int32)
		msg.DeliveryAttempts = int(attempts)
	}

	return &msg, nil
}
