package outboxrepo_test

import (
	"context"
	"testing"
	"time"

	"mfps/internal/adapters/out/postgres/outboxrepo"
	"mfps/internal/core/ports"
	"mfps/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OutboxRepositoryIntegrationTestSuite verifies outbox persistence behavior
// against a real PostgreSQL container.
type OutboxRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *outboxrepo.GormOutboxRepository
}

func (suite *OutboxRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&outboxrepo.OutboxRecordDTO{}))
}

func (suite *OutboxRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE outbox_records").Error)
	suite.repository = outboxrepo.NewGormOutboxRepository(suite.db)
}

func (suite *OutboxRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OutboxRepositoryIntegrationTestSuite) newRecord(messageID string, createdAt time.Time) ports.OutboxRecord {
	return ports.OutboxRecord{
		MessageID: messageID,
		Payload:   `{"messageId":"` + messageID + `","state":"SENDING"}`,
		Headers:   map[string]string{"Idempotency-Key": messageID},
		CreatedAt: createdAt,
	}
}

func (suite *OutboxRepositoryIntegrationTestSuite) TestSave_DuplicateMessageID_KeepsFirstRecord() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	original := suite.newRecord("msg-1", now)
	suite.Require().NoError(suite.repository.Save(ctx, original))

	replay := suite.newRecord("msg-1", now.Add(time.Minute))
	replay.Payload = "changed"
	suite.Require().NoError(suite.repository.Save(ctx, replay))

	pending, err := suite.repository.FindPending(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(pending, 1)
	suite.Equal(original.Payload, pending[0].Payload)
	suite.Equal("msg-1", pending[0].Headers["Idempotency-Key"])
}

func (suite *OutboxRepositoryIntegrationTestSuite) TestSave_MissingMessageID_Fails() {
	err := suite.repository.Save(context.Background(), ports.OutboxRecord{Payload: "x"})

	suite.Require().Error(err)
	suite.Require().ErrorIs(err, errs.ErrValueIsRequired)
}

func (suite *OutboxRepositoryIntegrationTestSuite) TestMarkDispatched_StampsOnce() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	suite.Require().NoError(suite.repository.Save(ctx, suite.newRecord("msg-1", now)))

	suite.Require().NoError(suite.repository.MarkDispatched(ctx, "msg-1"))

	var dto outboxrepo.OutboxRecordDTO
	suite.Require().NoError(suite.db.First(&dto, "message_id = ?", "msg-1").Error)
	suite.Require().NotNil(dto.DispatchedAt)
	first := *dto.DispatchedAt
	suite.WithinDuration(time.Now().UTC(), first, 5*time.Second)

	// Second stamp is a no-op, not an error, and keeps the first timestamp.
	suite.Require().NoError(suite.repository.MarkDispatched(ctx, "msg-1"))

	pending, err := suite.repository.FindPending(ctx, 10)
	suite.Require().NoError(err)
	suite.Empty(pending)

	suite.Require().NoError(suite.db.First(&dto, "message_id = ?", "msg-1").Error)
	suite.Require().NotNil(dto.DispatchedAt)
	suite.Equal(first, *dto.DispatchedAt)
}

func (suite *OutboxRepositoryIntegrationTestSuite) TestMarkDispatched_UnknownRecord_ReturnsNotFound() {
	err := suite.repository.MarkDispatched(context.Background(), "msg-missing")

	suite.Require().Error(err)

	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
}

func (suite *OutboxRepositoryIntegrationTestSuite) TestFindPending_OldestFirstWithLimit() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	suite.Require().NoError(suite.repository.Save(ctx, suite.newRecord("msg-newer", base.Add(2*time.Second))))
	suite.Require().NoError(suite.repository.Save(ctx, suite.newRecord("msg-oldest", base)))
	suite.Require().NoError(suite.repository.Save(ctx, suite.newRecord("msg-middle", base.Add(time.Second))))

	pending, err := suite.repository.FindPending(ctx, 2)
	suite.Require().NoError(err)
	suite.Require().Len(pending, 2)
	suite.Equal("msg-oldest", pending[0].MessageID)
	suite.Equal("msg-middle", pending[1].MessageID)
}

func (suite *OutboxRepositoryIntegrationTestSuite) TestFindPending_SkipsDispatchedRecords() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	suite.Require().NoError(suite.repository.Save(ctx, suite.newRecord("msg-1", now)))
	suite.Require().NoError(suite.repository.Save(ctx, suite.newRecord("msg-2", now.Add(time.Second))))
	suite.Require().NoError(suite.repository.MarkDispatched(ctx, "msg-1"))

	pending, err := suite.repository.FindPending(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(pending, 1)
	suite.Equal("msg-2", pending[0].MessageID)
}

func TestOutboxRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OutboxRepositoryIntegrationTestSuite))
}
