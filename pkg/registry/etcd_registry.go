package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/logger"
)

// Instance 注册到 etcd 的实例信息
type Instance struct {
	ServiceName  string `json:"service_name"`
	ServiceID    string `json:"service_id"`
	HTTPAddr     string `json:"http_addr"`
	GRPCAddr     string `json:"grpc_addr,omitempty"`
	CodecVersion string `json:"codec_version"`
	StartedAt    int64  `json:"started_at"`
}

// ServiceRegistry registers the service instance into etcd under a lease.
type ServiceRegistry struct {
	client   *clientv3.Client
	instance Instance
	ttl      int64
	leaseID  clientv3.LeaseID
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewServiceRegistry creates a new ServiceRegistry instance.
func NewServiceRegistry(etcdCfg config.EtcdConfig, regCfg config.ServiceRegistryConfig, instance Instance) (*ServiceRegistry, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   etcdCfg.Endpoints,
		DialTimeout: etcdCfg.DialTimeout,
		Username:    etcdCfg.Username,
		Password:    etcdCfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ttl := int64(regCfg.TTL.Seconds())
	if ttl < 1 {
		ttl = 1
	}
	if instance.StartedAt == 0 {
		instance.StartedAt = time.Now().Unix()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ServiceRegistry{
		client:   client,
		instance: instance,
		ttl:      ttl,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Key etcd 中的注册路径
func (r *ServiceRegistry) Key() string {
	return InstanceKey(r.instance.ServiceName, r.instance.ServiceID)
}

// InstanceKey /services/<name>/<id>
func InstanceKey(serviceName, serviceID string) string {
	return fmt.Sprintf("/services/%s/%s", serviceName, serviceID)
}

// Register registers service instance.
func (r *ServiceRegistry) Register() error {
	leaseResp, err := r.client.Grant(r.ctx, r.ttl)
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}
	r.leaseID = leaseResp.ID

	value, err := json.Marshal(r.instance)
	if err != nil {
		return fmt.Errorf("marshal instance: %w", err)
	}
	if _, err := r.client.Put(r.ctx, r.Key(), string(value), clientv3.WithLease(r.leaseID)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	go r.keepAlive()

	logger.Infof("Service registered key=%s addr=%s", r.Key(), r.instance.HTTPAddr)
	return nil
}

func (r *ServiceRegistry) keepAlive() {
	ch, err := r.client.KeepAlive(r.ctx, r.leaseID)
	if err != nil {
		logger.Warnf("Failed to keep alive lease: %v", err)
		return
	}
	for {
		select {
		case <-r.ctx.Done():
			return
		case ka := <-ch:
			if ka == nil {
				logger.Warn("Keep alive channel closed")
				return
			}
		}
	}
}

// Deregister removes service registration.
func (r *ServiceRegistry) Deregister() error {
	r.cancel()
	if r.leaseID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := r.client.Revoke(ctx, r.leaseID); err != nil {
			logger.Warnf("Failed to revoke lease: %v", err)
		}
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close etcd client: %w", err)
	}
	logger.Infof("Service deregistered id=%s", r.instance.ServiceID)
	return nil
}
