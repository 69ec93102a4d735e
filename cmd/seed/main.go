// Command seed loads a small set of sample assessments, interviews and an
// admin account into an empty database for local development.
package main

import (
	"log/slog"
	"os"

	"github.com/evalytics-ai/assessment-service/internal/config"
	"github.com/evalytics-ai/assessment-service/internal/models"
	"github.com/evalytics-ai/assessment-service/pkg"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("configuration load failed", "error", err)
		os.Exit(1)
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		logger.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	if err := seed(db); err != nil {
		logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed data loaded")
}

func seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		admin, err := adminUser()
		if err != nil {
			return err
		}
		if err := tx.Create(admin).Error; err != nil {
			return err
		}
		for _, a := range sampleAssessments() {
			if err := tx.Create(a).Error; err != nil {
				return err
			}
		}
		for _, iv := range sampleInterviews() {
			if err := tx.Create(iv).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func adminUser() (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &models.User{
		FirstName:    "Eval",
		LastName:     "Admin",
		Email:        "admin@evalytics.local",
		Username:     "evaladmin",
		PasswordHash: string(hash),
		PhoneNumber:  "+11234567890",
		Role:         models.RoleAdmin,
		IsActive:     true,
	}, nil
}

func sampleAssessments() []*models.Assessment {
	return []*models.Assessment{
		{
			Title:           "Go Fundamentals",
			Description:     strPtr("Core language questions plus two short coding tasks."),
			Kind:            models.KindTest,
			DurationMinutes: 30,
			PassCriteria:    80,
			Language:        "go",
			Difficulty:      models.DifficultyEasy,
			Tags:            datatypes.JSON(`["go","basics"]`),
			Questions: []models.Question{
				{
					Position:      0,
					Type:          models.MultipleChoice,
					Text:          "Which keyword declares a new variable with inferred type?",
					Options:       datatypes.JSON(`[":=","var","let","new"]`),
					CorrectAnswer: strPtr(":="),
					Difficulty:    models.DifficultyEasy,
				},
				{
					Position:      1,
					Type:          models.MultipleChoice,
					Text:          "What is the zero value of a slice?",
					Options:       datatypes.JSON(`["nil","an empty slice","0","undefined"]`),
					CorrectAnswer: strPtr("nil"),
					Difficulty:    models.DifficultyEasy,
				},
				{
					Position:    2,
					Type:        models.Coding,
					Text:        "Read an integer n from stdin and print the sum 1+2+...+n.",
					StarterCode: strPtr("package main\n\nfunc main() {\n\t// your code here\n}\n"),
					Difficulty:  models.DifficultyEasy,
					TestCases: []models.TestCase{
						{Input: "3", ExpectedOutput: "6"},
						{Input: "10", ExpectedOutput: "55", Hidden: true},
						{Input: "100", ExpectedOutput: "5050", Hidden: true},
					},
				},
			},
		},
		{
			Title:           "Python Algorithms Exam",
			Description:     strPtr("Timed exam covering sorting, searching and complexity."),
			Kind:            models.KindExam,
			DurationMinutes: 60,
			PassCriteria:    70,
			Language:        "python",
			Difficulty:      models.DifficultyMedium,
			Tags:            datatypes.JSON(`["python","algorithms"]`),
			Questions: []models.Question{
				{
					Position:      0,
					Type:          models.MultipleChoice,
					Text:          "What is the average time complexity of binary search?",
					Options:       datatypes.JSON(`["O(log n)","O(n)","O(n log n)","O(1)"]`),
					CorrectAnswer: strPtr("O(log n)"),
					Difficulty:    models.DifficultyMedium,
				},
				{
					Position:    1,
					Type:        models.Coding,
					Text:        "Read a line of space separated integers and print them sorted ascending, space separated.",
					StarterCode: strPtr("# read from stdin, print to stdout\n"),
					Difficulty:  models.DifficultyMedium,
					TestCases: []models.TestCase{
						{Input: "3 1 2", ExpectedOutput: "1 2 3"},
						{Input: "5 5 1", ExpectedOutput: "1 5 5", Hidden: true},
					},
				},
			},
		},
		{
			Title:           "JavaScript Practice Set",
			Description:     strPtr("Untimed practice questions. No certification."),
			Kind:            models.KindPractice,
			DurationMinutes: 0,
			Language:        "javascript",
			Difficulty:      models.DifficultyEasy,
			Tags:            datatypes.JSON(`["javascript","practice"]`),
			Questions: []models.Question{
				{
					Position:      0,
					Type:          models.MultipleChoice,
					Text:          "Which operator checks equality without type coercion?",
					Options:       datatypes.JSON(`["===","==","=","!=="]`),
					CorrectAnswer: strPtr("==="),
					Difficulty:    models.DifficultyEasy,
				},
			},
		},
	}
}

func sampleInterviews() []*models.Interview {
	return []*models.Interview{
		{
			Title:        "Backend Engineer Screen",
			Description:  strPtr("Short verbal screen on API and database design."),
			Role:         "Backend Engineer",
			PassCriteria: 60,
			Questions: []models.InterviewQuestion{
				{
					Position:       0,
					Text:           "Explain what an index does in a relational database and when you would add one.",
					ExpectedAnswer: "An index is a data structure that speeds up lookups on a column at the cost of slower writes and extra storage. Add one for columns used in frequent filters or joins.",
					Category:       "databases",
					TimeLimit:      180,
				},
				{
					Position:       1,
					Text:           "What does idempotency mean for an HTTP endpoint and why does it matter for retries?",
					ExpectedAnswer: "An idempotent endpoint produces the same result no matter how many times the same request is applied, so clients and proxies can safely retry after timeouts without duplicating effects.",
					Category:       "api design",
					TimeLimit:      180,
				},
			},
		},
	}
}

func strPtr(s string) *string { return &s }
