package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ UserStore = (*PGStore)(nil)

// PGStore implements UserStore using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const userColumns = `id, first_name, last_name, age, phone, backup_phone, school_name,
	email, user_type, grade, school_code, password_hash, commercial_consent, created_at`

func (s *PGStore) Create(ctx context.Context, u *User) error {
	row := s.db.QueryRowContext(ctx,
		`insert into users(first_name, last_name, age, phone, backup_phone, school_name,
		   email, user_type, grade, school_code, password_hash, commercial_consent)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 returning id, created_at`,
		u.FirstName, u.LastName, u.Age, u.Phone, u.BackupPhone, u.SchoolName,
		u.Email, string(u.Role), u.Grade, u.SchoolCode, u.PasswordHash, u.CommercialConsent,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *PGStore) Find(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where lower(email)=lower($1)`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u    User
		role string
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Age, &u.Phone, &u.BackupPhone,
		&u.SchoolName, &u.Email, &role, &u.Grade, &u.SchoolCode, &u.PasswordHash,
		&u.CommercialConsent, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
