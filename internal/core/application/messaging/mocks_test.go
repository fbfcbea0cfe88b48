package messaging_test

import (
	"context"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/outbox"
	"dispatch/internal/core/domain/model/unit"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

// MockDeliveryRepository is a mock implementation of ports.DeliveryRepository.
type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) Add(ctx context.Context, dlv *delivery.Delivery) error {
	args := m.Called(ctx, dlv)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Update(ctx context.Context, dlv *delivery.Delivery) error {
	args := m.Called(ctx, dlv)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) GetAllPending(ctx context.Context) ([]*delivery.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delivery.Delivery), args.Error(1)
}

// MockUnitRepository is a mock implementation of ports.UnitRepository.
type MockUnitRepository struct {
	mock.Mock
}

func (m *MockUnitRepository) Add(ctx context.Context, u *unit.Unit) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUnitRepository) Update(ctx context.Context, u *unit.Unit) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUnitRepository) Get(ctx context.Context, id string) (*unit.Unit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*unit.Unit), args.Error(1)
}

func (m *MockUnitRepository) GetAllAvailable(ctx context.Context) ([]*unit.Unit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*unit.Unit), args.Error(1)
}

func (m *MockUnitRepository) GetAllSilentSince(ctx context.Context, cutoff time.Time) ([]*unit.Unit, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*unit.Unit), args.Error(1)
}

// MockPendingAckRepository is a mock implementation of ports.PendingAckRepository.
type MockPendingAckRepository struct {
	mock.Mock
}

func (m *MockPendingAckRepository) Add(ctx context.Context, ack *outbox.PendingAck) error {
	args := m.Called(ctx, ack)
	return args.Error(0)
}

func (m *MockPendingAckRepository) Update(ctx context.Context, ack *outbox.PendingAck) error {
	args := m.Called(ctx, ack)
	return args.Error(0)
}

func (m *MockPendingAckRepository) Get(ctx context.Context, msgID string) (*outbox.PendingAck, error) {
	args := m.Called(ctx, msgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.PendingAck), args.Error(1)
}

func (m *MockPendingAckRepository) GetAllPending(ctx context.Context) ([]*outbox.PendingAck, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.PendingAck), args.Error(1)
}

// MockUnitOfWork is a mock implementation of ports.UnitOfWork.
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) DeliveryRepository() ports.DeliveryRepository {
	args := m.Called()
	return args.Get(0).(ports.DeliveryRepository)
}

func (m *MockUnitOfWork) UnitRepository() ports.UnitRepository {
	args := m.Called()
	return args.Get(0).(ports.UnitRepository)
}

func (m *MockUnitOfWork) PendingAckRepository() ports.PendingAckRepository {
	args := m.Called()
	return args.Get(0).(ports.PendingAckRepository)
}

// MockUnitOfWorkFactory is a mock implementation of ports.UnitOfWorkFactory.
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() ports.UnitOfWork {
	args := m.Called()
	return args.Get(0).(ports.UnitOfWork)
}

// MockTransport is a mock implementation of ports.Transport.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransport) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTransport) Send(ctx context.Context, destination string, payload []byte) error {
	args := m.Called(ctx, destination, payload)
	return args.Error(0)
}

func (m *MockTransport) SetHandler(handler func(payload []byte)) {
	m.Called(handler)
}

func (m *MockTransport) Subscribe(observer ports.ConnectionObserver) {
	m.Called(observer)
}

func (m *MockTransport) State() ports.ConnectionState {
	args := m.Called()
	return args.Get(0).(ports.ConnectionState)
}

// MockAckHandler is a mock implementation of the router's AckHandler.
type MockAckHandler struct {
	mock.Mock
}

func (m *MockAckHandler) HandleAck(ctx context.Context, ackID string) error {
	args := m.Called(ctx, ackID)
	return args.Error(0)
}

// MockReportHandler is a mock implementation of the router's ReportHandler.
type MockReportHandler struct {
	mock.Mock
}

func (m *MockReportHandler) Handle(ctx context.Context, cmd commands.RecordUnitReportCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}
