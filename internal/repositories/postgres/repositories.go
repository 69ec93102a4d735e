package postgres

import (
	"context"

	"github.com/evalytics-ai/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

// Repos implements repositories.Repositories over one gorm connection,
// which may be a transaction.
type Repos struct {
	db *gorm.DB
}

func NewRepositories(db *gorm.DB) *Repos {
	return &Repos{db: db}
}

func (r *Repos) Assessments() repositories.AssessmentRepository {
	return NewAssessmentPostgreSQL(r.db)
}

func (r *Repos) Sessions() repositories.SessionRepository {
	return NewSessionPostgreSQL(r.db)
}

func (r *Repos) Results() repositories.ResultRepository {
	return NewResultPostgreSQL(r.db)
}

func (r *Repos) Users() repositories.UserRepository {
	return NewUserPostgreSQL(r.db)
}

func (r *Repos) Interviews() repositories.InterviewRepository {
	return NewInterviewPostgreSQL(r.db)
}

// WithTransaction runs fn against repositories bound to one transaction,
// rolling back on error.
func (r *Repos) WithTransaction(ctx context.Context, fn func(repos repositories.Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
