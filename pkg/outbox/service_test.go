package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func TestEmitStoresEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, logger.Nop())

	orderID := uuid.New()
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data:          OrderCreatedEvent{OrderID: orderID, Cost: 2000},
		})
	})
	require.NoError(t, err)

	rows, err := repo.ListForAggregate(enums.AggregateOrder, orderID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventOrderCreated, rows[0].EventType)

	env, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, currentVersion, env.Version)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, enums.EventOrderCreated, env.EventType)
	assert.Equal(t, orderID, env.AggregateID)
	assert.JSONEq(t, `{"orderId":"`+orderID.String()+`","userId":"00000000-0000-0000-0000-000000000000","remoteOrderId":"","cost":2000,"gst":0,"shipping":0,"currency":"","lines":null}`, string(env.Data))
}

func TestEmitUsesClockAndIDSource(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	svc.now = func() time.Time { return fixed }
	svc.newID = func() string { return "evt-1" }

	orderID := uuid.New()
	require.NoError(t, svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Data:          map[string]string{"remoteOrderId": "sq-1"},
	}))

	rows, err := repo.ListForAggregate(enums.AggregateOrder, orderID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	env, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", env.EventID)
	assert.True(t, env.OccurredAt.Equal(fixed))
	assert.Equal(t, time.UTC, env.OccurredAt.Location())
}

func TestEmitRequiresTransactionAndValidEvent(t *testing.T) {
	svc := NewService(NewRepository(nil), logger.Nop())
	err := svc.Emit(context.Background(), nil, DomainEvent{})
	assert.True(t, errors.Is(err, ErrTxRequired))

	conn := dbtest.Open(t)
	err = svc.Emit(context.Background(), conn, DomainEvent{EventType: "order.shipped", AggregateType: enums.AggregateOrder, AggregateID: uuid.New()})
	assert.True(t, errors.Is(err, ErrInvalidEvent))
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)

	first := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: []byte(`{"eventId":"a"}`)}
	second := models.OutboxEvent{EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: []byte(`{"eventId":"b"}`)}
	require.NoError(t, repo.Insert(conn, first))
	require.NoError(t, repo.Insert(conn, second))

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublishedTx(conn, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(conn, rows[1].ID, errors.New("unavailable")))

	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].AttemptCount)
	assert.True(t, rows[0].Pending())
	require.NotNil(t, rows[0].LastError)
	assert.Equal(t, "unavailable", *rows[0].LastError)

	require.NoError(t, repo.MarkTerminalTx(conn, rows[0].ID, errors.New("bad payload"), 3))
	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecodeEnvelopeRejectsMissingID(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"version":1}`))
	assert.True(t, errors.Is(err, ErrMissingEventID))
	_, err = DecodeEnvelope([]byte(`not json`))
	assert.Error(t, err)
}
