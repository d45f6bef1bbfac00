package kafka

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/logger"
)

// Client 任务事件与任务请求共用的 Kafka 客户端
type Client struct {
	brokers  []string
	clientID string
	dialer   *kafka.Dialer
	writers  sync.Map // topic -> *kafka.Writer
}

var (
	once      sync.Once
	singleton *Client
)

func DefaultClient() *Client {
	once.Do(func() {
		singleton = &Client{}
	})
	return singleton
}

// Open 按配置初始化，不会主动连接 broker
func (c *Client) Open(cfg config.KafkaConfig) {
	c.brokers = cfg.BootstrapServers
	c.clientID = cfg.ClientID
	c.dialer = &kafka.Dialer{
		Timeout:  10 * time.Second,
		ClientID: c.clientID,
	}
	logger.Infof("Kafka client opened brokers=%v client_id=%s", c.brokers, c.clientID)
}

// IsOpen 是否已完成初始化
func (c *Client) IsOpen() bool {
	return c.dialer != nil
}

func (c *Client) Close() {
	c.writers.Range(func(key, value interface{}) bool {
		if w, ok := value.(*kafka.Writer); ok {
			if err := w.Close(); err != nil {
				logger.Warnf("Close kafka writer failed topic=%v error=%v", key, err)
			}
		}
		c.writers.Delete(key)
		return true
	})
}

// Writer 每个 topic 一个 writer；按 key 哈希分区，同一任务的事件保持有序
func (c *Client) Writer(topic string) *kafka.Writer {
	if v, ok := c.writers.Load(topic); ok {
		return v.(*kafka.Writer)
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(c.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	actual, loaded := c.writers.LoadOrStore(topic, w)
	if loaded {
		_ = w.Close()
	}
	return actual.(*kafka.Writer)
}

// Produce 发送一条 JSON 消息
func (c *Client) Produce(ctx context.Context, topic string, key, value []byte) error {
	return c.Writer(topic).WriteMessages(ctx, c.message(key, value))
}

func (c *Client) message(key, value []byte) kafka.Message {
	return kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "producer", Value: []byte(c.clientID)},
		},
	}
}

func (c *Client) Reader(topic, groupID string) *kafka.Reader {
	logger.Infof("Kafka reader created topic=%s group=%s brokers=%v", topic, groupID, c.brokers)
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.brokers,
		GroupID:  groupID,
		Topic:    topic,
		Dialer:   c.dialer,
		MinBytes: 1,
		MaxBytes: 10 << 20,
	})
}

// EnsureTopics 创建缺失的 topic，空名称跳过
func (c *Client) EnsureTopics(topics ...string) error {
	configs := topicConfigs(topics)
	if len(c.brokers) == 0 || len(configs) == 0 {
		return nil
	}
	conn, err := c.dialer.Dial("tcp", c.brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	cc, err := c.dialer.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer cc.Close()
	return cc.CreateTopics(configs...)
}

func topicConfigs(topics []string) []kafka.TopicConfig {
	seen := make(map[string]bool, len(topics))
	var configs []kafka.TopicConfig
	for _, t := range topics {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		configs = append(configs, kafka.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}
	return configs
}
