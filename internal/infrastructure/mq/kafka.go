package mq

import (
	"fmt"

	"tgwallet/internal/config"

	"github.com/IBM/sarama"
)

// Publisher sends one keyed message and returns once the broker acknowledged it.
type Publisher interface {
	SendMessage(topic, key, value string) error
}

type Producer struct {
	producer sarama.SyncProducer
}

var _ Publisher = (*Producer)(nil)

func NewProducerConfig() *sarama.Config {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Idempotent = false
	return kafkaConfig
}

func NewKafkaProducer(cfg *config.KafkaConfig) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewProducer(producer), nil
}

// NewProducer wraps an existing producer, which lets tests pass sarama's mocks.
func NewProducer(producer sarama.SyncProducer) *Producer {
	return &Producer{producer: producer}
}

func (p *Producer) SendMessage(topic, key, value string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}
	_, _, err := p.producer.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
