package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	m "JobMatch-backend/internal/model"
	"JobMatch-backend/internal/utilities"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context) error

// Exported test users
var (
	TestAdminUser      m.User
	TestCandidate1     m.User
	TestCandidate2     m.User
	TestCandidate3     m.User
	TestRecruiterUser1 m.User
	TestRecruiterUser2 m.User

	// TestSeedPassword is the plain password of every seeded user
	TestSeedPassword = "SeedPass123!"

	// Seeded jobs, TestJob3 is inactive
	TestJob1 m.Job
	TestJob2 m.Job
	TestJob3 m.Job
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context) error, *DBinstanceStruct, error) {

	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		useConstr: true,
		Constr:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts candidates, recruiters, an admin and three jobs.
func seedTestData(db *DBinstanceStruct) error {
	var userCount int64
	if err := db.Model(&m.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return loadTestData(db)
	}

	userSpecs := []struct {
		username string
		name     string
		email    string
		role     string
	}{
		{"candidate_1", "Alice Nguyen", "alice@example.com", m.RoleCandidate},
		{"candidate_2", "Bob Somsak", "bob@example.com", m.RoleCandidate},
		{"candidate_3", "Carol Tan", "carol@example.com", m.RoleCandidate},
		{"recruiter_1", "Rita Recruiter", "rita@technova.example", m.RoleRecruiter},
		{"recruiter_2", "Ravi Recruiter", "ravi@dataforge.example", m.RoleRecruiter},
		{"admin_user", "Admin", "admin@example.com", m.RoleAdmin},
	}

	hashedPwd, errHash := utilities.HashPassword(TestSeedPassword)
	if errHash != nil {
		return errHash
	}

	users := make([]m.User, 0, len(userSpecs))
	for _, s := range userSpecs {
		users = append(users, m.User{
			ID:       uuid.New(),
			Username: s.username,
			Name:     s.name,
			Email:    ptr(s.email),
			Role:     s.role,
			Password: hashedPwd,
		})
	}

	if err := db.Create(&users).Error; err != nil {
		return err
	}
	assignUsers(users)

	exp := time.Now().AddDate(0, 1, 0)
	jobs := []m.Job{
		{
			RecruiterID: TestRecruiterUser1.ID,
			EditableJobInfo: m.EditableJobInfo{
				Title:             "Backend Engineer",
				Company:           "TechNova",
				Location:          "Bangkok (Hybrid)",
				Description:       "Build Go services and database layers.",
				Requirements:      "Go, SQL, REST APIs",
				JobType:           "Full-time",
				ExperienceLevel:   "Mid",
				YearsOfExperience: 3,
				ShortlistSize:     2,
				Tags:              pq.StringArray{"go", "backend"},
				Expiring:          &exp,
			},
		},
		{
			RecruiterID: TestRecruiterUser1.ID,
			EditableJobInfo: m.EditableJobInfo{
				Title:             "Frontend Developer",
				Company:           "TechNova",
				Location:          "Remote",
				Description:       "Build the component library in React.",
				Requirements:      "TypeScript, React",
				JobType:           "Contract",
				ExperienceLevel:   "Junior",
				IsRemote:          true,
				YearsOfExperience: 1,
				Tags:              pq.StringArray{"react", "typescript"},
			},
		},
		{
			RecruiterID: TestRecruiterUser2.ID,
			EditableJobInfo: m.EditableJobInfo{
				Title:             "Data Analyst",
				Company:           "DataForge",
				Location:          "Chiang Mai",
				Description:       "Clean data and build dashboards.",
				Requirements:      "SQL, statistics",
				JobType:           "Full-time",
				ExperienceLevel:   "Junior",
				YearsOfExperience: 1,
				Tags:              pq.StringArray{"data", "sql"},
			},
		},
	}
	if err := db.Create(&jobs).Error; err != nil {
		return err
	}
	// IsActive has a database default of true, so false must be written explicitly
	if err := db.Model(&jobs[2]).Update("is_active", false).Error; err != nil {
		return err
	}
	jobs[2].IsActive = false

	TestJob1, TestJob2, TestJob3 = jobs[0], jobs[1], jobs[2]
	return nil
}

// loadTestData populates exported variables when records already exist.
func loadTestData(db *DBinstanceStruct) error {
	var users []m.User
	if err := db.Order("username").Find(&users).Error; err != nil {
		return err
	}
	assignUsers(users)

	var jobs []m.Job
	if err := db.Order("id ASC").Limit(3).Find(&jobs).Error; err != nil {
		return err
	}
	if len(jobs) > 0 {
		TestJob1 = jobs[0]
	}
	if len(jobs) > 1 {
		TestJob2 = jobs[1]
	}
	if len(jobs) > 2 {
		TestJob3 = jobs[2]
	}
	return nil
}

func assignUsers(users []m.User) {
	for _, u := range users {
		switch u.Username {
		case "candidate_1":
			TestCandidate1 = u
		case "candidate_2":
			TestCandidate2 = u
		case "candidate_3":
			TestCandidate3 = u
		case "recruiter_1":
			TestRecruiterUser1 = u
		case "recruiter_2":
			TestRecruiterUser2 = u
		case "admin_user":
			TestAdminUser = u
		}
	}
}

// ptr helper
func ptr[T any](v T) *T { return &v }
