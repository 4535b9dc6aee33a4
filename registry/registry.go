package registry

import (
	"fmt"
	"os"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// ServiceRegistry defines the interface for service registration.
type ServiceRegistry interface {
	// Register registers a specific service instance.
	// id: Unique identifier for this instance (e.g., serviceName + hostname + port).
	// name: Logical name of the service (e.g., "recipe-api-http").
	// check: Health check configuration.
	Register(id, name, address string, port int, tags []string, check *consulapi.AgentServiceCheck) error

	// Deregister removes a service instance using its unique ID.
	Deregister(id string) error
}

// SelfRegistration describes how this process announces itself.
type SelfRegistration struct {
	ServiceName string
	Host        string // Address advertised to clients and hit by health checks
	HTTPPort    int
	GRPCPort    int
	HealthPath  string
}

// Instance IDs include the hostname so replicas do not overwrite each other.
func instanceID(name, protocol string, port int) string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%s-%s-%d", name, protocol, hostname, port)
}

// RegisterSelf registers the HTTP API with an HTTP check and the gRPC server
// with a gRPC health check. The returned func deregisters whatever was
// registered; it is safe to call after a partial failure.
func RegisterSelf(reg ServiceRegistry, self SelfRegistration, logger *zap.SugaredLogger) (func(), error) {
	var registered []string
	deregister := func() {
		for _, id := range registered {
			if err := reg.Deregister(id); err != nil {
				logger.Warnw("Deregistration failed", "service_id", id, "error", err)
			}
		}
	}

	httpID := instanceID(self.ServiceName, "http", self.HTTPPort)
	httpCheck := CreateHTTPCheck(httpID, self.Host, self.HTTPPort, self.HealthPath, "10s", "2s")
	if err := reg.Register(httpID, self.ServiceName+"-http", self.Host, self.HTTPPort, []string{"http", "rest"}, httpCheck); err != nil {
		return deregister, err
	}
	registered = append(registered, httpID)

	grpcID := instanceID(self.ServiceName, "grpc", self.GRPCPort)
	grpcTarget := fmt.Sprintf("%s:%d/%s", self.Host, self.GRPCPort, self.ServiceName)
	grpcCheck := CreateGRPCSCheck(grpcID, grpcTarget, "10s", "2s", false)
	if err := reg.Register(grpcID, self.ServiceName+"-grpc", self.Host, self.GRPCPort, []string{"grpc"}, grpcCheck); err != nil {
		return deregister, err
	}
	registered = append(registered, grpcID)

	return deregister, nil
}
