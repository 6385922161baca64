package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/domain/shared"
	"github.com/waterbill/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

var testTime = time.Date(2024, 5, 31, 10, 0, 0, 0, time.UTC)

func newTestTariffService(tariffs *MockTariffRepository, customers *MockCustomerRepository, assignments *MockAssignmentRepository, events *MockEventPublisher) *TariffService {
	var publisher shared.EventPublisher
	if events != nil {
		publisher = events
	}
	return NewTariffService(
		tariffs,
		billing.NewTariffResolver(customers, tariffs, assignments),
		billing.NewCalculator(valueobject.IDR, -1),
		NewAuthorizer(nil, nil, zap.NewNop()),
		publisher,
		zap.NewNop(),
	)
}

func TestTariffService_Create(t *testing.T) {
	tariffs := new(MockTariffRepository)
	tariffs.On("Create", mock.Anything, mock.AnythingOfType("*billing.Tariff")).Return(nil)
	svc := newTestTariffService(tariffs, nil, nil, nil)

	resp, err := svc.Create(context.Background(), staff(identity.RoleAdmin), CreateTariffInput{
		Name:         "Household R1",
		BaseFee:      decimal.NewFromInt(10000),
		RatePerCubic: decimal.NewFromInt(2500),
	})

	require.NoError(t, err)
	assert.Equal(t, "Household R1", resp.Name)
	tariffs.AssertExpectations(t)
}

func TestTariffService_Create_RejectsNegativeRate(t *testing.T) {
	tariffs := new(MockTariffRepository)
	svc := newTestTariffService(tariffs, nil, nil, nil)

	_, err := svc.Create(context.Background(), staff(identity.RoleAdmin), CreateTariffInput{
		Name:         "Broken",
		BaseFee:      decimal.NewFromInt(10000),
		RatePerCubic: decimal.NewFromInt(-1),
	})

	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	tariffs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTariffService_Update(t *testing.T) {
	t.Run("super admin updates and publishes", func(t *testing.T) {
		tariffs := new(MockTariffRepository)
		events := new(MockEventPublisher)
		tariff := testTariff(t)
		tariffs.On("FindByID", mock.Anything, tariff.ID).Return(tariff, nil)
		tariffs.On("Update", mock.Anything, tariff).Return(nil)
		events.On("Publish", mock.Anything, mock.MatchedBy(func(evts []shared.DomainEvent) bool {
			return len(evts) == 1 && evts[0].EventType() == billing.EventTypeTariffUpdated
		})).Return(nil)
		svc := newTestTariffService(tariffs, nil, nil, events)

		resp, err := svc.Update(context.Background(), staff(identity.RoleSuperAdmin), tariff.ID, UpdateTariffInput{
			Name:         "Household R1",
			BaseFee:      decimal.NewFromInt(12000),
			RatePerCubic: decimal.NewFromInt(3000),
		})

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(3000).Equal(resp.RatePerCubic))
		events.AssertExpectations(t)
	})

	t.Run("admin may not update", func(t *testing.T) {
		tariffs := new(MockTariffRepository)
		svc := newTestTariffService(tariffs, nil, nil, nil)

		_, err := svc.Update(context.Background(), staff(identity.RoleAdmin), uuid.New(), UpdateTariffInput{Name: "x"})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		tariffs.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestTariffService_Compute(t *testing.T) {
	tariffs := new(MockTariffRepository)
	tariff := testTariff(t)
	tariffs.On("FindByID", mock.Anything, tariff.ID).Return(tariff, nil)
	svc := newTestTariffService(tariffs, nil, nil, nil)

	cases := []struct {
		name     string
		previous int64
		current  int64
		want     int64
		wantErr  error
	}{
		{name: "metered usage", previous: 100, current: 115, want: 47500},
		{name: "zero usage owes base fee", previous: 100, current: 100, want: 10000},
		{name: "index went backwards", previous: 120, current: 100, wantErr: shared.ErrInvalidReading},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := svc.Compute(context.Background(), staff(identity.RoleMeterReader), ComputeInput{
				TariffID:      &tariff.ID,
				PreviousIndex: decimal.NewFromInt(tc.previous),
				CurrentIndex:  decimal.NewFromInt(tc.current),
			})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(tc.want).Equal(resp.Amount), "got %s", resp.Amount)
		})
	}
}

func TestTariffService_Resolve(t *testing.T) {
	tariffs := new(MockTariffRepository)
	customers := new(MockCustomerRepository)
	assignments := new(MockAssignmentRepository)
	current := testTariff(t)
	previous := testTariff(t)
	customer := testCustomer(t, current.ID)
	customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	assignments.On("FindEffective", mock.Anything, customer.ID, billing.BillingPeriod("2024-01")).
		Return(billing.NewTariffAssignment(customer.ID, previous.ID, "2023-06"), nil)
	tariffs.On("FindByID", mock.Anything, previous.ID).Return(previous, nil)
	svc := newTestTariffService(tariffs, customers, assignments, nil)

	resp, err := svc.Resolve(context.Background(), staff(identity.RoleTreasurer), customer.ID, "2024-01")

	require.NoError(t, err)
	assert.Equal(t, previous.ID, resp.ID)
}

func newTestCustomerService(customers *MockCustomerRepository, tariffs *MockTariffRepository, assignments *MockAssignmentRepository) *CustomerService {
	return NewCustomerService(customers, tariffs, assignments, NewAuthorizer(nil, nil, zap.NewNop()), zap.NewNop())
}

func TestCustomerService_Create(t *testing.T) {
	t.Run("creates on existing tariff", func(t *testing.T) {
		customers := new(MockCustomerRepository)
		tariffs := new(MockTariffRepository)
		tariff := testTariff(t)
		tariffs.On("FindByID", mock.Anything, tariff.ID).Return(tariff, nil)
		customers.On("Create", mock.Anything, mock.AnythingOfType("*billing.Customer")).Return(nil)

		resp, err := newTestCustomerService(customers, tariffs, nil).Create(context.Background(), staff(identity.RoleAdmin), CreateCustomerInput{
			MeterNumber: "MTR-0042",
			Name:        "Budi Santoso",
			Phone:       "0812",
			TariffID:    tariff.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, "ACTIVE", resp.Status)
		assert.Equal(t, "0812", resp.Phone)
	})

	t.Run("duplicate meter number", func(t *testing.T) {
		customers := new(MockCustomerRepository)
		tariffs := new(MockTariffRepository)
		tariff := testTariff(t)
		tariffs.On("FindByID", mock.Anything, tariff.ID).Return(tariff, nil)
		customers.On("Create", mock.Anything, mock.Anything).Return(shared.NewDomainError(shared.CodeAlreadyExists, "Meter number taken"))

		_, err := newTestCustomerService(customers, tariffs, nil).Create(context.Background(), staff(identity.RoleAdmin), CreateCustomerInput{
			MeterNumber: "MTR-0042",
			Name:        "Budi Santoso",
			TariffID:    tariff.ID,
		})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("unknown tariff", func(t *testing.T) {
		tariffs := new(MockTariffRepository)
		id := uuid.New()
		tariffs.On("FindByID", mock.Anything, id).Return(nil, nil)

		_, err := newTestCustomerService(new(MockCustomerRepository), tariffs, nil).Create(context.Background(), staff(identity.RoleAdmin), CreateCustomerInput{
			MeterNumber: "MTR-0042",
			Name:        "Budi Santoso",
			TariffID:    id,
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("meter reader forbidden", func(t *testing.T) {
		tariffs := new(MockTariffRepository)
		_, err := newTestCustomerService(new(MockCustomerRepository), tariffs, nil).Create(context.Background(), staff(identity.RoleMeterReader), CreateCustomerInput{})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		tariffs.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestCustomerService_DeactivateActivate(t *testing.T) {
	customers := new(MockCustomerRepository)
	customer := testCustomer(t, uuid.New())
	customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	customers.On("Update", mock.Anything, customer).Return(nil)
	svc := newTestCustomerService(customers, nil, nil)
	admin := staff(identity.RoleAdmin)

	resp, err := svc.Deactivate(context.Background(), admin, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "INACTIVE", resp.Status)

	_, err = svc.Deactivate(context.Background(), admin, customer.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	resp, err = svc.Activate(context.Background(), admin, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", resp.Status)
	customers.AssertNumberOfCalls(t, "Update", 2)
}

func TestCustomerService_AssignTariff(t *testing.T) {
	t.Run("first reassignment records the opening tariff", func(t *testing.T) {
		customers := new(MockCustomerRepository)
		tariffs := new(MockTariffRepository)
		assignments := new(MockAssignmentRepository)
		oldTariff := testTariff(t)
		newTariff := testTariff(t)
		customer := testCustomer(t, oldTariff.ID)
		customer.CreatedAt = time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)
		tariffs.On("FindByID", mock.Anything, newTariff.ID).Return(newTariff, nil)
		customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
		assignments.On("FindByCustomer", mock.Anything, customer.ID).Return([]*billing.TariffAssignment{}, nil)
		customers.On("SaveTariffAssignment", mock.Anything, customer, mock.MatchedBy(func(records []*billing.TariffAssignment) bool {
			return len(records) == 2 &&
				records[0].TariffID == oldTariff.ID && records[0].EffectiveFrom == "2023-03" &&
				records[1].TariffID == newTariff.ID && records[1].EffectiveFrom == "2024-06"
		})).Return(nil)

		resp, err := newTestCustomerService(customers, tariffs, assignments).AssignTariff(context.Background(), staff(identity.RoleAdmin), customer.ID, AssignTariffInput{
			TariffID:      newTariff.ID,
			EffectiveFrom: "2024-06",
		})

		require.NoError(t, err)
		assert.Equal(t, newTariff.ID, resp.TariffID)
		customers.AssertExpectations(t)
	})

	t.Run("later reassignment appends one record", func(t *testing.T) {
		customers := new(MockCustomerRepository)
		tariffs := new(MockTariffRepository)
		assignments := new(MockAssignmentRepository)
		newTariff := testTariff(t)
		customer := testCustomer(t, uuid.New())
		tariffs.On("FindByID", mock.Anything, newTariff.ID).Return(newTariff, nil)
		customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
		assignments.On("FindByCustomer", mock.Anything, customer.ID).
			Return([]*billing.TariffAssignment{billing.NewTariffAssignment(customer.ID, customer.TariffID, "2023-01")}, nil)
		customers.On("SaveTariffAssignment", mock.Anything, customer, mock.MatchedBy(func(records []*billing.TariffAssignment) bool {
			return len(records) == 1 && records[0].TariffID == newTariff.ID
		})).Return(nil)

		_, err := newTestCustomerService(customers, tariffs, assignments).AssignTariff(context.Background(), staff(identity.RoleSuperAdmin), customer.ID, AssignTariffInput{
			TariffID:      newTariff.ID,
			EffectiveFrom: "2024-06",
		})

		require.NoError(t, err)
		customers.AssertExpectations(t)
	})
}

func TestCustomerService_ReadsRequireStaff(t *testing.T) {
	customers := new(MockCustomerRepository)
	svc := newTestCustomerService(customers, nil, nil)

	_, err := svc.GetByID(context.Background(), customerActor(uuid.New()), uuid.New())
	assert.ErrorIs(t, err, shared.ErrForbidden)
	customers.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func newTestReadingService(customers *MockCustomerRepository, readings *MockReadingRepository) *ReadingService {
	return NewReadingService(customers, readings, NewAuthorizer(nil, nil, zap.NewNop()), zap.NewNop())
}

func TestReadingService_Record(t *testing.T) {
	t.Run("previous index defaults to last reading", func(t *testing.T) {
		customers := new(MockCustomerRepository)
		readings := new(MockReadingRepository)
		customer := testCustomer(t, uuid.New())
		customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
		readings.On("FindLatestBefore", mock.Anything, customer.ID, billing.BillingPeriod("2024-05")).
			Return(testReading(t, customer.ID, "2024-04", 80, 100), nil)
		readings.On("Create", mock.Anything, mock.AnythingOfType("*billing.Reading")).Return(nil)

		reader := staff(identity.RoleMeterReader)
		resp, err := newTestReadingService(customers, readings).Record(context.Background(), reader, RecordReadingInput{
			CustomerID:   customer.ID,
			Period:       "2024-05",
			CurrentIndex: decimal.NewFromInt(115),
			ReadAt:       testTime,
		})

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(resp.PreviousIndex))
		assert.True(t, decimal.NewFromInt(15).Equal(resp.Usage))
		readings.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(r *billing.Reading) bool {
			return r.RecordedBy != nil && *r.RecordedBy == reader.UserID
		}))
	})

	t.Run("first reading starts at zero", func(t *testing.T) {
		customers := new(MockCustomerRepository)
		readings := new(MockReadingRepository)
		customer := testCustomer(t, uuid.New())
		customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
		readings.On("FindLatestBefore", mock.Anything, customer.ID, mock.Anything).Return(nil, nil)
		readings.On("Create", mock.Anything, mock.Anything).Return(nil)

		resp, err := newTestReadingService(customers, readings).Record(context.Background(), staff(identity.RoleAdmin), RecordReadingInput{
			CustomerID:   customer.ID,
			Period:       "2024-05",
			CurrentIndex: decimal.NewFromInt(12),
		})

		require.NoError(t, err)
		assert.True(t, resp.PreviousIndex.IsZero())
	})

	t.Run("negative usage rejected", func(t *testing.T) {
		customers := new(MockCustomerRepository)
		readings := new(MockReadingRepository)
		customer := testCustomer(t, uuid.New())
		customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
		previous := decimal.NewFromInt(120)

		_, err := newTestReadingService(customers, readings).Record(context.Background(), staff(identity.RoleAdmin), RecordReadingInput{
			CustomerID:    customer.ID,
			Period:        "2024-05",
			PreviousIndex: &previous,
			CurrentIndex:  decimal.NewFromInt(100),
		})

		assert.ErrorIs(t, err, shared.ErrInvalidReading)
		readings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("treasurer forbidden", func(t *testing.T) {
		customers := new(MockCustomerRepository)
		_, err := newTestReadingService(customers, new(MockReadingRepository)).Record(context.Background(), staff(identity.RoleTreasurer), RecordReadingInput{})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		customers.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}
