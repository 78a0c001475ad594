package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const userColumns = `id, email, password_hash, full_name, phone, address, date_of_birth,
	role, status, is_active, is_verified, verification_token, verified_at,
	password_changed_at, last_login_at, created_at, updated_at, deleted_at`

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Address, &u.DateOfBirth,
		&u.Role, &u.Status, &u.IsActive, &u.IsVerified, &u.VerificationToken, &u.VerifiedAt,
		&u.PasswordChangedAt, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	return u, err
}

type CreateUserParams struct {
	Email             string
	PasswordHash      string
	FullName          string
	Phone             *string
	VerificationToken string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, full_name, phone, verification_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		arg.Email, arg.PasswordHash, arg.FullName, arg.Phone, arg.VerificationToken)
	return scanUser(row)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (q *Queries) UpdateUserLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `UPDATE users SET last_login_at = now(), updated_at = now() WHERE id = $1`, id)
	return err
}

// VerifyUserByToken marks the matching user as verified and clears the token.
// Returns pgx.ErrNoRows when the token is unknown or already consumed.
func (q *Queries) VerifyUserByToken(ctx context.Context, token string) (User, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE users
		SET is_verified = TRUE, verification_token = NULL, verified_at = now(), updated_at = now()
		WHERE verification_token = $1
		RETURNING `+userColumns, token)
	return scanUser(row)
}

type UpdateUserProfileParams struct {
	ID       uuid.UUID
	FullName *string
	Phone    *string
	Address  *string
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE users
		SET full_name = COALESCE($2, full_name),
		    phone = COALESCE($3, phone),
		    address = COALESCE($4, address),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		arg.ID, arg.FullName, arg.Phone, arg.Address)
	return scanUser(row)
}

func (q *Queries) UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, password_changed_at = now(), updated_at = now()
		WHERE id = $1`, id, passwordHash)
	return err
}

type ListUsersParams struct {
	Role     *string
	Status   *string
	IsActive *bool
	Search   *string
	Limit    int32
	Offset   int32
}

// ListUsers returns a page of users matching the optional filters.
// Search matches email or full name, case-insensitively.
func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE ($1::text IS NULL OR role = $1)
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::boolean IS NULL OR is_active = $3)
		  AND ($4::text IS NULL OR email ILIKE '%' || $4 || '%' OR full_name ILIKE '%' || $4 || '%')
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`,
		arg.Role, arg.Status, arg.IsActive, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (q *Queries) CountUsers(ctx context.Context, arg ListUsersParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*)
		FROM users
		WHERE ($1::text IS NULL OR role = $1)
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::boolean IS NULL OR is_active = $3)
		  AND ($4::text IS NULL OR email ILIKE '%' || $4 || '%' OR full_name ILIKE '%' || $4 || '%')`,
		arg.Role, arg.Status, arg.IsActive, arg.Search).Scan(&count)
	return count, err
}

// SetUserActive toggles the login flag used by the user service admin API.
func (q *Queries) SetUserActive(ctx context.Context, id uuid.UUID, isActive bool) (User, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE users
		SET is_active = $2,
		    deleted_at = CASE WHEN $2 THEN NULL ELSE now() END,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, isActive)
	return scanUser(row)
}

// SetUserStatus sets the moderation status (active, suspended, banned) used
// by the admin service.
func (q *Queries) SetUserStatus(ctx context.Context, id uuid.UUID, status string) (User, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE users
		SET status = $2,
		    is_active = ($2 = 'active'),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, status)
	return scanUser(row)
}

func (q *Queries) SetUserRole(ctx context.Context, id uuid.UUID, role string) (User, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE users SET role = $2, updated_at = now() WHERE id = $1
		RETURNING `+userColumns, id, role)
	return scanUser(row)
}

type CreateSessionParams struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	DeviceInfo *string
	IPAddress  *string
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	var s Session
	err := q.db.QueryRow(ctx, `
		INSERT INTO sessions (id, user_id, device_info, ip_address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, device_info, ip_address, is_active, created_at`,
		arg.ID, arg.UserID, arg.DeviceInfo, arg.IPAddress).Scan(
		&s.ID, &s.UserID, &s.DeviceInfo, &s.IPAddress, &s.IsActive, &s.CreatedAt)
	return s, err
}

func (q *Queries) DeactivateSession(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `UPDATE sessions SET is_active = FALSE WHERE id = $1`, id)
	return err
}

func (q *Queries) ListUserSessions(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, device_info, ip_address, is_active, created_at
		FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.DeviceInfo, &s.IPAddress, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// CountUsersSince supports the admin analytics overview.
func (q *Queries) CountUsersSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE created_at >= $1`, since).Scan(&count)
	return count, err
}

// CountUsersByRole supports the admin analytics overview.
func (q *Queries) CountUsersByRole(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.Query(ctx, `SELECT role, count(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var role string
		var count int64
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		counts[role] = count
	}
	return counts, rows.Err()
}
