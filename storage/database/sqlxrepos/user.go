package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

const userColumns = "id, name, email, role, created_at"

type userRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) boil(usr user.User) userRow {
	return userRow{
		ID:        usr.ID,
		Name:      usr.Name,
		Email:     usr.Email,
		Role:      usr.Role,
		CreatedAt: usr.CreatedAt.UTC(),
	}
}

func (repo userRepository) unboil(row userRow) user.User {
	return user.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Role:      row.Role,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (repo userRepository) unboilSlice(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unboil(row))
	}
	return users
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.boil(usr)
	q := `INSERT INTO directory_user (` + userColumns + `) VALUES (:id, :name, :email, :role, :created_at)`
	if _, err := repo.exec.NamedExecContext(ctx, q, row); err != nil {
		return user.User{}, core.NewStorageError("inserting user", err)
	}
	return repo.unboil(row), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM directory_user WHERE id = $1`
	if err := repo.exec.GetContext(ctx, &row, q, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM directory_user WHERE email = $1`
	if err := repo.exec.GetContext(ctx, &row, q, email); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by email")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) ResolveMany(ctx context.Context, ids []string) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}
	var rows []userRow
	q := `SELECT ` + userColumns + ` FROM directory_user WHERE id = ANY($1) ORDER BY name, id`
	if err := repo.exec.SelectContext(ctx, &rows, q, pq.Array(ids)); err != nil {
		return nil, core.NewStorageError("resolving users", err)
	}
	return repo.unboilSlice(rows), nil
}

func (repo userRepository) QueryByRole(ctx context.Context, role string) ([]user.User, error) {
	var rows []userRow
	q := `SELECT ` + userColumns + ` FROM directory_user WHERE role = $1 ORDER BY name, id`
	if err := repo.exec.SelectContext(ctx, &rows, q, role); err != nil {
		return nil, core.NewStorageError("querying users by role", err)
	}
	return repo.unboilSlice(rows), nil
}
