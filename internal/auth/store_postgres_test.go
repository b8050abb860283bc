package auth

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestNewPostgresUserStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS admin_users").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = NewPostgresUserStore(db)
	if err != nil {
		t.Fatalf("NewPostgresUserStore() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresUserStoreGetByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS admin_users").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := NewPostgresUserStore(db)
	if err != nil {
		t.Fatalf("NewPostgresUserStore() error: %v", err)
	}

	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role"}).
		AddRow("u1", "admin", "admin@example.com", "hash", "admin")
	mock.ExpectQuery("SELECT id, username, email, password_hash, role FROM admin_users WHERE username = \\$1").
		WithArgs("admin").
		WillReturnRows(rows)

	u, err := store.GetByUsername("admin")
	if err != nil {
		t.Fatalf("GetByUsername() error: %v", err)
	}
	if u.ID != "u1" || u.Role != "admin" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresUserStoreGetByUsernameNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS admin_users").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := NewPostgresUserStore(db)
	if err != nil {
		t.Fatalf("NewPostgresUserStore() error: %v", err)
	}

	mock.ExpectQuery("SELECT id, username, email, password_hash, role FROM admin_users WHERE username = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = store.GetByUsername("missing")
	if err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresUserStorePut(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS admin_users").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := NewPostgresUserStore(db)
	if err != nil {
		t.Fatalf("NewPostgresUserStore() error: %v", err)
	}

	mock.ExpectExec("INSERT INTO admin_users").
		WithArgs("u1", "admin", "admin@example.com", "hash", "admin").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Put(User{
		ID:           "u1",
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: "hash",
		Role:         "admin",
	}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
