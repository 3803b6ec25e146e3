package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/creasion/crm/internal/errs"
	"github.com/creasion/crm/internal/model"
)

func TestUserRepo_Create_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	u := &model.User{
		ID:          uuid.Must(uuid.NewV4()),
		Email:       "Op@Example.com",
		PwdHash:     []byte("hash"),
		SaltAuth:    []byte("salt"),
		VerifyToken: "tok",
	}

	mock.ExpectExec(`INSERT INTO users \(id, email, pwd_hash, salt_auth, verified, verify_token\)`).
		WithArgs(u.ID, u.Email, u.PwdHash, u.SaltAuth, u.Verified, u.VerifyToken).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Create(context.Background(), u))
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	u := &model.User{ID: uuid.Must(uuid.NewV4()), Email: "op@example.com"}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.Email, u.PwdHash, u.SaltAuth, u.Verified, u.VerifyToken).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	require.ErrorIs(t, r.Create(context.Background(), u), errs.ErrAlreadyExists)
}

func TestUserRepo_GetByEmail_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	id := uuid.Must(uuid.NewV4())
	ts := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, email, pwd_hash, salt_auth, verified, verify_token, created_at\s+FROM users WHERE email=lower\(\$1\)`).
		WithArgs("OP@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "pwd_hash", "salt_auth", "verified", "verify_token", "created_at"}).
			AddRow(id, "op@example.com", []byte("hash"), []byte("salt"), true, "", ts))

	u, err := r.GetByEmail(context.Background(), "OP@example.com")
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, "op@example.com", u.Email)
	require.True(t, u.Verified)
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	mock.ExpectQuery(`SELECT id, email, pwd_hash, salt_auth, verified, verify_token, created_at`).
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := r.GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_MarkVerified_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	mock.ExpectExec(`UPDATE users SET verified=true, verify_token=''`).
		WithArgs("tok123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.MarkVerified(context.Background(), "tok123"))
}

func TestUserRepo_MarkVerified_UnknownToken(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	mock.ExpectExec(`UPDATE users SET verified=true, verify_token=''`).
		WithArgs("bogus").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.ErrorIs(t, r.MarkVerified(context.Background(), "bogus"), errs.ErrNotFound)
}

func TestUserRepo_MarkVerified_ExecErr(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	mock.ExpectExec(`UPDATE users SET verified=true, verify_token=''`).
		WithArgs("tok").
		WillReturnError(errors.New("exec-fail"))

	require.Error(t, r.MarkVerified(context.Background(), "tok"))
}
