package verification

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type EngineTestSuite struct {
	suite.Suite
	db   *gorm.DB
	mock sqlmock.Sqlmock
	now  time.Time
}

func (s *EngineTestSuite) SetupTest() {
	conn, mock, err := sqlmock.New()
	s.Require().NoError(err)
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn: conn,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.db = gdb
	s.mock = mock
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *EngineTestSuite) engine() *Engine {
	return NewEngine(s.db, WithClock(func() time.Time { return s.now }))
}

func (s *EngineTestSuite) entryRows(payment types.PaymentStatus, pass types.PassStatus, expires time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "reference", "resident_name", "vendor_company", "address",
		"plate_number", "vehicle_type_id", "payment_status", "pass_status", "expires_at",
	}).AddRow(
		1, "VGC1234567", "Jane Obi", "Acme Ltd", "12 Palm Close",
		"ABC-123-DE", 2, string(payment), string(pass), expires,
	)
}

func (s *EngineTestSuite) vehicleTypeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "fee"}).AddRow(2, "Car/SUV", 1000)
}

func (s *EngineTestSuite) expectDecision(rows *sqlmock.Rows) {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT \* FROM "goods_entries"`).WillReturnRows(rows)
	s.mock.ExpectQuery(`SELECT \* FROM "vehicle_types"`).WillReturnRows(s.vehicleTypeRows())
}

func (s *EngineTestSuite) expectLogInsert() {
	s.mock.ExpectQuery(`INSERT INTO "verification_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
}

func (s *EngineTestSuite) TestVerifyAllowed() {
	s.expectDecision(s.entryRows(types.PAYMENT_PAID, types.PASS_VALID, s.now.Add(time.Hour)))
	s.mock.ExpectExec(`UPDATE "goods_entries" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.expectLogInsert()
	s.mock.ExpectCommit()

	verdict, err := s.engine().Verify(context.Background(), Request{
		Reference:     "VGC1234567",
		SecurityAgent: "security1",
	})
	s.NoError(err)
	s.True(verdict.Allowed)
	s.Equal(types.PASS_USED, verdict.Entry.PassStatus)
	s.Equal(types.VERIFICATION_ALLOWED, verdict.Log.Status)
	s.Equal("Entry granted", verdict.Log.Notes)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *EngineTestSuite) TestVerifyPaymentIncomplete() {
	s.expectDecision(s.entryRows(types.PAYMENT_PENDING, types.PASS_VALID, s.now.Add(time.Hour)))
	s.expectLogInsert()
	s.mock.ExpectCommit()

	verdict, err := s.engine().Verify(context.Background(), Request{
		Reference:     "VGC1234567",
		SecurityAgent: "security1",
	})
	s.NoError(err)
	s.False(verdict.Allowed)
	s.Equal(ReasonPaymentIncomplete, verdict.Reason)
	s.Equal(types.VERIFICATION_DENIED, verdict.Log.Status)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *EngineTestSuite) TestVerifyExpired() {
	s.expectDecision(s.entryRows(types.PAYMENT_PAID, types.PASS_VALID, s.now.Add(-time.Minute)))
	s.expectLogInsert()
	s.mock.ExpectCommit()

	verdict, err := s.engine().Verify(context.Background(), Request{
		Reference:     "VGC1234567",
		SecurityAgent: "security1",
	})
	s.NoError(err)
	s.False(verdict.Allowed)
	s.Equal(ReasonExpired, verdict.Reason)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *EngineTestSuite) TestVerifyAlreadyUsed() {
	s.expectDecision(s.entryRows(types.PAYMENT_PAID, types.PASS_USED, s.now.Add(time.Hour)))
	s.expectLogInsert()
	s.mock.ExpectCommit()

	verdict, err := s.engine().Verify(context.Background(), Request{
		Reference:     "VGC1234567",
		SecurityAgent: "security1",
	})
	s.NoError(err)
	s.False(verdict.Allowed)
	s.Equal(ReasonAlreadyUsed, verdict.Reason)
	s.NoError(s.mock.ExpectationsWereMet())
}

// An unexpired entry with incomplete payment must deny on payment first.
func (s *EngineTestSuite) TestVerifyPaymentCheckedBeforeExpiry() {
	s.expectDecision(s.entryRows(types.PAYMENT_PENDING, types.PASS_VALID, s.now.Add(-time.Hour)))
	s.expectLogInsert()
	s.mock.ExpectCommit()

	verdict, err := s.engine().Verify(context.Background(), Request{
		Reference:     "VGC1234567",
		SecurityAgent: "security1",
	})
	s.NoError(err)
	s.Equal(ReasonPaymentIncomplete, verdict.Reason)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *EngineTestSuite) TestVerifyForceRejectOverridesValidEntry() {
	s.expectDecision(s.entryRows(types.PAYMENT_PAID, types.PASS_VALID, s.now.Add(time.Hour)))
	s.expectLogInsert()
	s.mock.ExpectCommit()

	verdict, err := s.engine().Verify(context.Background(), Request{
		Reference:     "VGC1234567",
		SecurityAgent: "security1",
		ForceReject:   true,
		RejectionNote: "Plate does not match vehicle",
	})
	s.NoError(err)
	s.False(verdict.Allowed)
	s.Equal(ReasonManuallyRejected, verdict.Reason)
	s.Equal("Plate does not match vehicle", verdict.Log.Notes)
	s.Equal(types.PASS_VALID, verdict.Entry.PassStatus)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *EngineTestSuite) TestVerifyForceRejectDefaultNote() {
	s.expectDecision(s.entryRows(types.PAYMENT_PAID, types.PASS_VALID, s.now.Add(time.Hour)))
	s.expectLogInsert()
	s.mock.ExpectCommit()

	verdict, err := s.engine().Verify(context.Background(), Request{
		Reference:     "VGC1234567",
		SecurityAgent: "security1",
		ForceReject:   true,
	})
	s.NoError(err)
	s.Equal("Manually rejected by security - Wrong vehicle or mismatch", verdict.Log.Notes)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *EngineTestSuite) TestVerifyPreviewWritesNothing() {
	s.mock.ExpectQuery(`SELECT \* FROM "goods_entries"`).
		WillReturnRows(s.entryRows(types.PAYMENT_PAID, types.PASS_VALID, s.now.Add(time.Hour)))
	s.mock.ExpectQuery(`SELECT \* FROM "vehicle_types"`).
		WillReturnRows(s.vehicleTypeRows())

	verdict, err := s.engine().Verify(context.Background(), Request{
		Reference:     "VGC1234567",
		SecurityAgent: "security1",
		PreviewOnly:   true,
	})
	s.NoError(err)
	s.True(verdict.Preview)
	s.Nil(verdict.Log)
	s.Equal(types.PASS_VALID, verdict.Entry.PassStatus)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *EngineTestSuite) TestVerifyNotFound() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT \* FROM "goods_entries"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	s.mock.ExpectRollback()

	_, err := s.engine().Verify(context.Background(), Request{
		Reference:     "VGC0000000",
		SecurityAgent: "security1",
	})
	s.ErrorIs(err, ErrEntryNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *EngineTestSuite) TestVerifyAgentRequired() {
	_, err := s.engine().Verify(context.Background(), Request{Reference: "VGC1234567"})
	s.ErrorIs(err, ErrAgentRequired)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *EngineTestSuite) TestVerifyMultiUseSkipsUsedCheck() {
	s.expectDecision(s.entryRows(types.PAYMENT_PAID, types.PASS_USED, s.now.Add(time.Hour)))
	s.expectLogInsert()
	s.mock.ExpectCommit()

	engine := NewEngine(s.db, WithClock(func() time.Time { return s.now }), WithMultiUse())
	verdict, err := engine.Verify(context.Background(), Request{
		Reference:     "VGC1234567",
		SecurityAgent: "security1",
	})
	s.NoError(err)
	s.True(verdict.Allowed)
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
