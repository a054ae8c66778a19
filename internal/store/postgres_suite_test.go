//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/VJYGOUR/auth-system/internal/apperr"
	"github.com/VJYGOUR/auth-system/internal/database"
	"github.com/VJYGOUR/auth-system/internal/models"
	"github.com/VJYGOUR/auth-system/internal/store"
)

func TestPostgresStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PostgreSQL Store Integration Suite")
}

type testEnv struct {
	ctx       context.Context
	container testcontainers.Container
	db        *database.DB
	users     *store.UserStore
	events    *store.EventStore
}

var env *testEnv

var _ = BeforeSuite(func() {
	var err error
	env, err = setupTestEnv()
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if env != nil {
		env.cleanup()
	}
})

func setupTestEnv() (*testEnv, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("authgate_test"),
		postgres.WithUsername("authgate"),
		postgres.WithPassword("authgate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	db, err := database.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &testEnv{
		ctx:       ctx,
		container: container,
		db:        db,
		users:     store.NewUserStore(db),
		events:    store.NewEventStore(db),
	}, nil
}

func (e *testEnv) cleanup() {
	if e.db != nil {
		e.db.Close()
	}
	if e.container != nil {
		_ = e.container.Terminate(e.ctx)
	}
}

func (e *testEnv) reset() {
	_, err := e.db.ExecContext(e.ctx, "TRUNCATE auth_events, users")
	Expect(err).NotTo(HaveOccurred())
}

var _ = Describe("UserStore on PostgreSQL", func() {
	BeforeEach(func() { env.reset() })

	user := models.User{
		ID:           "0b6f2c1e-5d0a-4f5e-9a43-7c1d2b3e4f50",
		Name:         "Ann",
		Email:        "ann@example.com",
		PasswordHash: "$2a$12$hash",
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	It("round-trips a user by email and id", func() {
		Expect(env.users.Insert(env.ctx, user)).To(Succeed())

		byEmail, err := env.users.FindByEmail(env.ctx, "ann@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.ID).To(Equal(user.ID))
		Expect(byEmail.CreatedAt.Equal(user.CreatedAt)).To(BeTrue())

		byID, err := env.users.FindByID(env.ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Email).To(Equal(user.Email))
	})

	It("reports a duplicate email as a conflict", func() {
		Expect(env.users.Insert(env.ctx, user)).To(Succeed())

		dup := user
		dup.ID = "7d3c4b5a-6978-4a1b-8c2d-3e4f5a6b7c8d"
		err := env.users.Insert(env.ctx, dup)
		Expect(err).To(MatchError(apperr.ErrConflict))
	})

	It("returns not found for unknown users", func() {
		_, err := env.users.FindByEmail(env.ctx, "nobody@example.com")
		Expect(err).To(MatchError(apperr.ErrNotFound))
	})

	It("updates the password hash", func() {
		Expect(env.users.Insert(env.ctx, user)).To(Succeed())
		Expect(env.users.UpdatePasswordHash(env.ctx, user.ID, "$argon2id$new")).To(Succeed())

		got, err := env.users.FindByID(env.ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.PasswordHash).To(Equal("$argon2id$new"))
	})
})

var _ = Describe("EventStore on PostgreSQL", func() {
	BeforeEach(func() { env.reset() })

	It("lists a user's events newest first and prunes old ones", func() {
		userID := "0b6f2c1e-5d0a-4f5e-9a43-7c1d2b3e4f50"
		Expect(env.users.Insert(env.ctx, models.User{
			ID: userID, Name: "Ann", Email: "ann@example.com", PasswordHash: "h",
			CreatedAt: time.Now().UTC(),
		})).To(Succeed())

		base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		for i, typ := range []string{models.EventSignup, models.EventLoginSuccess, models.EventLogout} {
			Expect(env.events.Insert(env.ctx, models.Event{
				ID:         fmt.Sprintf("a1b2c3d4-0000-4000-8000-%012d", i+1),
				Type:       typ,
				UserID:     &userID,
				RemoteAddr: "10.0.0.1",
				CreatedAt:  base.Add(time.Duration(i) * time.Hour),
			})).To(Succeed())
		}

		recent, err := env.events.RecentForUser(env.ctx, userID, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(recent).To(HaveLen(2))
		Expect(recent[0].Type).To(Equal(models.EventLogout))

		deleted, err := env.events.DeleteBefore(env.ctx, base.Add(90*time.Minute))
		Expect(err).NotTo(HaveOccurred())
		Expect(deleted).To(Equal(int64(2)))
	})
})
