package grpc

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"f2v2f-service/pkg/config"
	"f2v2f-service/pkg/logger"
	"f2v2f-service/pkg/manager"
)

// CodecServiceName gRPC 健康检查中的服务名
const CodecServiceName = "f2v2f.Codec"

func init() {
	manager.RegisterComponentPlugin(&CodecGrpcServerPlugin{})
}

type CodecGrpcServerPlugin struct{}

func (p *CodecGrpcServerPlugin) Name() string { return "codecGrpcServer" }

func (p *CodecGrpcServerPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := config.GetGlobalConfig()
	if deps != nil && deps.Config != nil {
		cfg = deps.Config
	}
	if cfg == nil || !cfg.GRPCServer.Enabled {
		return nil
	}
	return NewCodecGrpcServer(fmt.Sprintf("%s:%d", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
}

// CodecGrpcServer 只提供标准健康检查，供注册中心和负载均衡探活
type CodecGrpcServer struct {
	addr   string
	server *grpc.Server
	health *health.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewCodecGrpcServer 创建 gRPC 服务
func NewCodecGrpcServer(addr string) *CodecGrpcServer {
	s := &CodecGrpcServer{
		addr:   addr,
		server: grpc.NewServer(),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)
	return s
}

// Start 监听端口并在后台提供服务
func (s *CodecGrpcServer) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on grpc address %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(CodecServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		logger.Infof("gRPC server started address=%s", lis.Addr().String())
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Errorf("gRPC server encountered an error error=%v", err)
		}
	}()
	return nil
}

// Addr 实际监听地址，未启动时为空
func (s *CodecGrpcServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop 先把健康状态置为 NOT_SERVING 再优雅停止
func (s *CodecGrpcServer) Stop() error {
	s.health.Shutdown()
	s.server.GracefulStop()
	logger.Infof("gRPC server stopped address=%s", s.addr)
	return nil
}

func (s *CodecGrpcServer) GetName() string { return "codecGrpcServer" }
