package registry

import (
	"errors"
	"testing"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type registration struct {
	id, name string
	port     int
	check    *consulapi.AgentServiceCheck
}

type fakeRegistry struct {
	registered   []registration
	deregistered []string
	failOn       string
}

func (f *fakeRegistry) Register(id, name, _ string, port int, _ []string, check *consulapi.AgentServiceCheck) error {
	if name == f.failOn {
		return errors.New("agent unavailable")
	}
	f.registered = append(f.registered, registration{id: id, name: name, port: port, check: check})
	return nil
}

func (f *fakeRegistry) Deregister(id string) error {
	f.deregistered = append(f.deregistered, id)
	return nil
}

var self = SelfRegistration{ServiceName: "recipe-api", Host: "localhost", HTTPPort: 8080, GRPCPort: 50051, HealthPath: "/healthz"}

func TestRegisterSelf(t *testing.T) {
	reg := &fakeRegistry{}
	deregister, err := RegisterSelf(reg, self, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.Len(t, reg.registered, 2)

	httpReg, grpcReg := reg.registered[0], reg.registered[1]
	assert.Equal(t, "recipe-api-http", httpReg.name)
	assert.Equal(t, "http://localhost:8080/healthz", httpReg.check.HTTP)
	assert.Equal(t, "recipe-api-grpc", grpcReg.name)
	assert.Equal(t, "localhost:50051/recipe-api", grpcReg.check.GRPC)
	assert.NotEqual(t, httpReg.id, grpcReg.id)

	deregister()
	assert.Equal(t, []string{httpReg.id, grpcReg.id}, reg.deregistered)
}

func TestRegisterSelfPartialFailure(t *testing.T) {
	reg := &fakeRegistry{failOn: "recipe-api-grpc"}
	deregister, err := RegisterSelf(reg, self, zap.NewNop().Sugar())
	require.Error(t, err)

	deregister()
	require.Len(t, reg.deregistered, 1)
	assert.Equal(t, reg.registered[0].id, reg.deregistered[0])
}

func TestCheckProtocol(t *testing.T) {
	assert.Equal(t, "http", checkProtocol(CreateHTTPCheck("id", "localhost", 8080, "/healthz", "10s", "1s")))
	assert.Equal(t, "grpc", checkProtocol(CreateGRPCSCheck("id", "localhost:50051", "10s", "1s", false)))
	assert.Equal(t, "", checkProtocol(nil))
}
