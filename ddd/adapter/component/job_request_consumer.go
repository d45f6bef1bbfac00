package component

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	appsvc "f2v2f-service/ddd/application/app"
	"f2v2f-service/ddd/application/cqe"
	"f2v2f-service/ddd/application/dto"
	"f2v2f-service/pkg/config"
	pkgkafka "f2v2f-service/pkg/kafka"
	"f2v2f-service/pkg/logger"
	"f2v2f-service/pkg/manager"
)

// JobSubmitter 消费者只需要提交任务
type JobSubmitter interface {
	SubmitJob(ctx context.Context, req *cqe.SubmitJobReq) (*dto.SubmitJobDTO, error)
}

type JobRequestConsumerPlugin struct{}

func (p *JobRequestConsumerPlugin) Name() string { return "jobRequestConsumer" }

func (p *JobRequestConsumerPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := config.GetGlobalConfig()
	if deps != nil && deps.Config != nil {
		cfg = deps.Config
	}
	if cfg == nil || !cfg.Kafka.Enabled || cfg.Kafka.Topics.JobRequests == "" {
		return nil
	}
	var app JobSubmitter
	if deps != nil {
		if v, ok := deps.CodecApp.(JobSubmitter); ok {
			app = v
		}
	}
	if app == nil {
		app = appsvc.DefaultCodecApp()
	}
	group := cfg.Kafka.ConsumerGroup
	if group == "" {
		group = cfg.Kafka.ClientID + "-group"
	}
	return &jobRequestConsumer{app: app, topic: cfg.Kafka.Topics.JobRequests, group: group}
}

// jobRequestMessage 消息体，输入文件来自对象存储
type jobRequestMessage struct {
	Operation  string `json:"operation"`
	ObjectKey  string `json:"object_key"`
	FileName   string `json:"file_name"`
	OutputName string `json:"output_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FPS        int    `json:"fps"`
	ChunkSize  int    `json:"chunk_size"`
}

type jobRequestConsumer struct {
	app    JobSubmitter
	topic  string
	group  string
	ctx    context.Context
	cancel context.CancelFunc
}

func (c *jobRequestConsumer) Start() error {
	c.ctx, c.cancel = context.WithCancel(context.Background())
	reader := pkgkafka.DefaultClient().Reader(c.topic, c.group)
	go func() {
		defer reader.Close()
		logger.Infof("Kafka consumer started topic=%s group=%s", c.topic, c.group)
		for {
			msg, err := reader.ReadMessage(c.ctx)
			if err != nil {
				if c.ctx.Err() != nil {
					return
				}
				if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "EOF") {
					logger.Debug("Kafka reader EOF")
				} else {
					logger.Warnf("Kafka read error error=%s", err.Error())
				}
				continue
			}
			jobID, err := c.handle(c.ctx, msg.Value)
			if err != nil {
				logger.Warnf("Kafka job request rejected key=%s job_id=%s error=%s", string(msg.Key), jobID, err.Error())
				continue
			}
			logger.Infof("Kafka job request accepted job_id=%s offset=%d", jobID, msg.Offset)
		}
	}()
	return nil
}

// handle 解析一条请求并提交任务
func (c *jobRequestConsumer) handle(ctx context.Context, value []byte) (string, error) {
	var m jobRequestMessage
	if err := json.Unmarshal(value, &m); err != nil {
		return "", fmt.Errorf("unmarshal job request: %w", err)
	}
	if m.ObjectKey == "" {
		return "", fmt.Errorf("object_key is required")
	}
	name := m.FileName
	if name == "" {
		name = path.Base(m.ObjectKey)
	}
	resp, err := c.app.SubmitJob(ctx, &cqe.SubmitJobReq{
		Operation:  m.Operation,
		FileName:   name,
		ObjectKey:  m.ObjectKey,
		Width:      m.Width,
		Height:     m.Height,
		FPS:        m.FPS,
		ChunkSize:  m.ChunkSize,
		OutputName: m.OutputName,
	})
	if err != nil {
		if resp != nil {
			return resp.JobID, err
		}
		return "", err
	}
	return resp.JobID, nil
}

func (c *jobRequestConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *jobRequestConsumer) GetName() string { return "jobRequestConsumer" }
