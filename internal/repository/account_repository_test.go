package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/loyalty-rewards-system/internal/model"
	"github.com/fairyhunter13/loyalty-rewards-system/internal/service"
)

// mockRow implements pgx.Row for testing single-row queries.
type mockRow struct {
	scanFn func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.scanFn != nil {
		return m.scanFn(dest...)
	}
	return nil
}

// mockRows implements pgx.Rows for testing multi-row queries.
// Each element of scanFns fills one row.
type mockRows struct {
	scanFns []func(dest ...any) error
	idx     int
	err     error
}

func (m *mockRows) Close()                                       {}
func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) Next() bool {
	m.idx++
	return m.idx <= len(m.scanFns)
}
func (m *mockRows) Scan(dest ...any) error {
	return m.scanFns[m.idx-1](dest...)
}
func (m *mockRows) Values() ([]any, error) { return nil, nil }
func (m *mockRows) RawValues() [][]byte    { return nil }
func (m *mockRows) Conn() *pgx.Conn        { return nil }

// mockTxQuerier implements database.TxQuerier for testing transaction methods.
type mockTxQuerier struct {
	execFn     func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (m *mockTxQuerier) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, arguments...)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (m *mockTxQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return &mockRow{}
}

func (m *mockTxQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}
	return nil, nil
}

// mockAccountPool implements AccountPoolInterface for testing.
type mockAccountPool struct {
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *mockAccountPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return &mockRow{}
}

func TestAccountRepository_Insert_Success(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	mockTx := &mockTxQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = arguments
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}

	repo := NewAccountRepositoryWithPool(&mockAccountPool{})
	account := &model.Account{ID: uuid.New(), Balance: 0, Status: model.AccountActive}

	err := repo.Insert(context.Background(), mockTx, account)

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "INSERT INTO accounts")
	assert.Equal(t, account.ID, capturedArgs[0])
	assert.Equal(t, 0, capturedArgs[1])
	assert.Equal(t, model.AccountActive, capturedArgs[2])
}

func TestAccountRepository_Insert_DatabaseError(t *testing.T) {
	dbErr := errors.New("connection refused")
	mockTx := &mockTxQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, dbErr
		},
	}

	repo := NewAccountRepositoryWithPool(&mockAccountPool{})
	err := repo.Insert(context.Background(), mockTx, &model.Account{ID: uuid.New()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert account")
	assert.True(t, errors.Is(err, dbErr), "should wrap original error")
}

func TestAccountRepository_Get_Success(t *testing.T) {
	accountID := uuid.New()
	expectedTime := time.Now()
	mock := &mockAccountPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{
				scanFn: func(dest ...any) error {
					*(dest[0].(*uuid.UUID)) = accountID
					*(dest[1].(*int)) = 42
					*(dest[2].(*model.AccountStatus)) = model.AccountActive
					*(dest[3].(*time.Time)) = expectedTime
					return nil
				},
			}
		},
	}

	repo := NewAccountRepositoryWithPool(mock)
	account, err := repo.Get(context.Background(), accountID)

	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, accountID, account.ID)
	assert.Equal(t, 42, account.Balance)
	assert.Equal(t, model.AccountActive, account.Status)
	assert.Equal(t, expectedTime, account.CreatedAt)
}

func TestAccountRepository_Get_NotFound(t *testing.T) {
	mock := &mockAccountPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{
				scanFn: func(dest ...any) error {
					return pgx.ErrNoRows
				},
			}
		},
	}

	repo := NewAccountRepositoryWithPool(mock)
	account, err := repo.Get(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Nil(t, account, "Should return nil for not found")
}

func TestAccountRepository_Get_DatabaseError(t *testing.T) {
	dbErr := errors.New("database connection failed")
	mock := &mockAccountPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{
				scanFn: func(dest ...any) error {
					return dbErr
				},
			}
		},
	}

	repo := NewAccountRepositoryWithPool(mock)
	account, err := repo.Get(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Nil(t, account)
	assert.True(t, errors.Is(err, dbErr), "should wrap original error")
}

func TestAccountRepository_GetForUpdate_Success(t *testing.T) {
	accountID := uuid.New()
	mockTx := &mockTxQuerier{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			assert.Contains(t, sql, "FOR UPDATE", "Query must use FOR UPDATE for row locking")
			return &mockRow{
				scanFn: func(dest ...any) error {
					*(dest[0].(*uuid.UUID)) = accountID
					*(dest[1].(*int)) = 100
					*(dest[2].(*model.AccountStatus)) = model.AccountActive
					*(dest[3].(*time.Time)) = time.Now()
					return nil
				},
			}
		},
	}

	repo := NewAccountRepositoryWithPool(&mockAccountPool{})
	account, err := repo.GetForUpdate(context.Background(), mockTx, accountID)

	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, accountID, account.ID)
	assert.Equal(t, 100, account.Balance)
}

func TestAccountRepository_GetForUpdate_NotFound(t *testing.T) {
	mockTx := &mockTxQuerier{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{
				scanFn: func(dest ...any) error {
					return pgx.ErrNoRows
				},
			}
		},
	}

	repo := NewAccountRepositoryWithPool(&mockAccountPool{})
	account, err := repo.GetForUpdate(context.Background(), mockTx, uuid.New())

	require.Error(t, err)
	assert.Nil(t, account)
	assert.True(t, errors.Is(err, service.ErrAccountNotFound), "should return ErrAccountNotFound")
}

func TestAccountRepository_UpdateBalance_Success(t *testing.T) {
	accountID := uuid.New()
	var capturedSQL string
	var capturedArgs []any
	mockTx := &mockTxQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = arguments
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	repo := NewAccountRepositoryWithPool(&mockAccountPool{})
	err := repo.UpdateBalance(context.Background(), mockTx, accountID, 70)

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "UPDATE accounts SET balance")
	assert.Equal(t, accountID, capturedArgs[0])
	assert.Equal(t, 70, capturedArgs[1])
}

func TestAccountRepository_SetStatus_Success(t *testing.T) {
	var capturedArgs []any
	mockTx := &mockTxQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedArgs = arguments
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	repo := NewAccountRepositoryWithPool(&mockAccountPool{})
	err := repo.SetStatus(context.Background(), mockTx, uuid.New(), model.AccountDeactivated)

	require.NoError(t, err)
	assert.Equal(t, model.AccountDeactivated, capturedArgs[1])
}

func TestAccountRepository_SetStatus_NotFound(t *testing.T) {
	mockTx := &mockTxQuerier{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}

	repo := NewAccountRepositoryWithPool(&mockAccountPool{})
	err := repo.SetStatus(context.Background(), mockTx, uuid.New(), model.AccountDeactivated)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrAccountNotFound), "zero rows updated means the account is missing")
}

func TestNewAccountRepository_Production(t *testing.T) {
	repo := NewAccountRepository(nil)
	require.NotNil(t, repo, "NewAccountRepository should return a non-nil repository")
}
