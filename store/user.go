package store

import (
	"embed"
	gerrors "errors"
	"time"

	"github.com/soffa-projects/go-webstack/ids"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

type User struct {
	Id          string       `gorm:"primaryKey" json:"id"`
	Email       string       `gorm:"uniqueIndex" json:"email"`
	GoogleId    *string      `gorm:"uniqueIndex" json:"-"`
	Name        string       `json:"name"`
	Avatar      string       `json:"avatar"`
	Bio         string       `json:"bio"`
	Role        string       `json:"role"`
	Permissions []Permission `gorm:"foreignKey:UserId" json:"permissions"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type Permission struct {
	Id     string `gorm:"primaryKey" json:"id"`
	UserId string `json:"-"`
	Name   string `json:"name"`
}

func (u *User) PermissionNames() []string {
	names := make([]string, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		names = append(names, p.Name)
	}
	return names
}

// Migrate applies the embedded schema migrations.
func Migrate(db DataSource) error {
	return db.Migrate(migrationsFS, "migrations", DefaultMigrationsTable)
}

// UserRepo owns user records and their permission grants.
type UserRepo struct {
	db DataSource
}

func NewUserRepo(db DataSource) UserRepo {
	return UserRepo{db: db}
}

// FindByIdentity matches a user by email or provider subject id. Either match
// links the account, so a user who first signed up by email is recognized when
// they later arrive through OAuth with the same address.
func (r UserRepo) FindByIdentity(email string, googleId string) (*User, error) {
	return r.firstBy(Query{
		W:       "email = ? OR google_id = ?",
		Args:    []any{email, googleId},
		Preload: []string{"Permissions"},
	})
}

func (r UserRepo) FindById(id string) (*User, error) {
	return r.firstBy(Query{
		W:       "id = ?",
		Args:    []any{id},
		Preload: []string{"Permissions"},
	})
}

func (r UserRepo) Create(user *User) error {
	if user.Id == "" {
		user.Id = ids.NewId("usr")
	}
	if user.Role == "" {
		user.Role = RoleCustomer
	}
	for i := range user.Permissions {
		if user.Permissions[i].Id == "" {
			user.Permissions[i].Id = ids.NewId("prm")
		}
		user.Permissions[i].UserId = user.Id
	}
	return r.db.Create(user)
}

func (r UserRepo) Save(user *User) error {
	return r.db.Save(user)
}

func (r UserRepo) Count() (int64, error) {
	return r.db.Count(&User{}, Query{})
}

func (r UserRepo) ExistsByEmail(email string) (bool, error) {
	return r.db.Exists(&User{}, Query{W: "email = ?", Args: []any{email}})
}

func (r UserRepo) List(page int, limit int) ([]User, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	var users []User
	err := r.db.Find(&users, Query{
		Sort:    "created_at",
		Preload: []string{"Permissions"},
		Offset:  int64((page - 1) * limit),
		Limit:   int64(limit),
	})
	return users, err
}

func (r UserRepo) firstBy(q Query) (*User, error) {
	var user User
	err := r.db.First(&user, q)
	if err != nil {
		if gerrors.Is(err, ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
