package resource

import (
	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/kafka"
	"f2v2f-service/pkg/logger"
	"f2v2f-service/pkg/manager"
)

// KafkaResource 任务事件和任务请求 topic，未启用时不打开
type KafkaResource struct {
	opened bool
}

type KafkaResourcePlugin struct{}

func (p *KafkaResourcePlugin) Name() string { return "kafka" }

func (p *KafkaResourcePlugin) MustCreateResource() manager.Resource { return &KafkaResource{} }

func (r *KafkaResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil || !cfg.Kafka.Enabled {
		return
	}
	client := kafka.DefaultClient()
	client.Open(cfg.Kafka)
	r.opened = true

	topics := cfg.Kafka.Topics
	if err := client.EnsureTopics(topics.JobEvents, topics.JobRequests); err != nil {
		logger.Warnf("Ensure kafka topics failed events=%s requests=%s error=%v", topics.JobEvents, topics.JobRequests, err)
	}
}

func (r *KafkaResource) Close() {
	if r.opened {
		kafka.DefaultClient().Close()
		r.opened = false
	}
}
