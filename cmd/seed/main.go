package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"microcred/internal/dto"
	"microcred/internal/models"
	"microcred/internal/repository"
	"microcred/internal/scoring"
	"microcred/internal/service"
	"microcred/pkg/auth"
	"microcred/pkg/config"
	"microcred/pkg/logger"
	"microcred/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type seedUser struct {
	email    string
	password string
	name     string
	phone    string
	address  string
	dob      string
	loan     dto.LoanApplicationRequest
}

var seedUsers = []seedUser{
	{
		email: "john@example.com", password: "password123", name: "John Doe",
		phone: "+91 9876543210", address: "Mumbai, Maharashtra", dob: "1990-01-15",
		loan: dto.LoanApplicationRequest{MonthlyIncome: 25000, ExistingDebt: 15000, LoanPurpose: "business", RequestedAmount: 50000},
	},
	{
		email: "jane@example.com", password: "demo123", name: "Jane Smith",
		phone: "+91 9876543211", address: "Delhi, Delhi", dob: "1992-03-20",
		loan: dto.LoanApplicationRequest{MonthlyIncome: 35000, ExistingDebt: 8000, LoanPurpose: "education", RequestedAmount: 75000},
	},
	{
		email: "demo@test.com", password: "demo", name: "Demo User",
		phone: "+91 9876543212", address: "Bangalore, Karnataka", dob: "1988-07-10",
		loan: dto.LoanApplicationRequest{MonthlyIncome: 45000, ExistingDebt: 20000, LoanPurpose: "business", RequestedAmount: 100000},
	},
}

var providers = map[models.TransactionKind][]string{
	models.KindElectricity: {"BSES", "Tata Power", "MSEB", "KSEB"},
	models.KindMobile:      {"Airtel", "Jio", "Vi", "BSNL"},
	models.KindSalary:      {"TechCorp Ltd", "InfoSys", "Wipro", "Freelance"},
	models.KindBNPL:        {"Paytm Postpaid", "Amazon Pay Later", "Flipkart Pay Later"},
	models.KindPayLater:    {"LazyPay", "Simpl", "ZestMoney", "KreditBee"},
}

var transactionKinds = []models.TransactionKind{
	models.KindElectricity, models.KindMobile, models.KindSalary, models.KindBNPL, models.KindPayLater,
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db, appLogger); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)
	historyRepo := repository.NewScoreHistoryRepository(db, appLogger)
	loanRepo := repository.NewLoanRepository(db, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	calculator := scoring.NewCalculator(scoring.DefaultConfig())
	scoringService := service.NewScoringService(db, txRepo, historyRepo, calculator, appLogger)
	loanService := service.NewLoanService(db, loanRepo, userRepo, appLogger)

	appLogger.Info("Starting database seeding...")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, seed := range seedUsers {
		userID, err := ensureUser(ctx, authService, userRepo, seed)
		if err != nil {
			appLogger.Fatal("Failed to seed user", zap.String("email", seed.email), zap.Error(err))
		}

		if _, err := loanService.Apply(ctx, userID, &seed.loan); err != nil {
			appLogger.Fatal("Failed to seed loan application", zap.String("email", seed.email), zap.Error(err))
		}

		count, err := seedTransactions(ctx, txRepo, userID, rng)
		if err != nil {
			appLogger.Fatal("Failed to seed transactions", zap.String("email", seed.email), zap.Error(err))
		}

		score, err := scoringService.GetScore(ctx, userID)
		if err != nil {
			appLogger.Fatal("Failed to score seeded user", zap.String("email", seed.email), zap.Error(err))
		}

		appLogger.Info("Seeded user",
			zap.String("email", seed.email),
			zap.Int("transactions", count),
			zap.Int("score", score.Score),
			zap.String("grade", score.Grade),
		)
	}

	appLogger.Info("Database seeding completed successfully!")
}

// ensureUser registers the demo user, falling back to lookup when it already
// exists so reseeding is idempotent.
func ensureUser(ctx context.Context, authService *service.AuthService, userRepo *repository.UserRepository, seed seedUser) (uuid.UUID, error) {
	resp, err := authService.Register(ctx, &dto.RegisterRequest{
		Email:       seed.email,
		Password:    seed.password,
		Name:        seed.name,
		Phone:       seed.phone,
		Address:     seed.address,
		DateOfBirth: seed.dob,
	})
	if err == nil {
		return uuid.Parse(resp.User.ID)
	}
	if !errors.Is(err, service.ErrUserExists) {
		return uuid.Nil, err
	}

	user, err := userRepo.GetByEmail(ctx, seed.email)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}

// seedTransactions writes 30-50 historical events spread over six months.
// They go straight to the store: the score history ledger only records live
// ingestion, so backfilled data produces no ledger entries.
func seedTransactions(ctx context.Context, txRepo *repository.TransactionRepository, userID uuid.UUID, rng *rand.Rand) (int, error) {
	baseDate := time.Now().AddDate(0, 0, -180)
	count := 30 + rng.Intn(21)
	titler := cases.Title(language.English)

	for i := 0; i < count; i++ {
		kind := transactionKinds[rng.Intn(len(transactionKinds))]
		pool := providers[kind]
		provider := pool[rng.Intn(len(pool))]

		// Stepped cadences per kind, wrapped to stay inside the window.
		var amount float64
		var dueDate time.Time
		switch kind {
		case models.KindElectricity:
			amount = float64(800 + rng.Intn(2701))
			dueDate = baseDate.AddDate(0, 0, (i*5)%180)
		case models.KindMobile:
			amount = float64(199 + rng.Intn(801))
			dueDate = baseDate.AddDate(0, 0, (i*3)%180)
		case models.KindSalary:
			amount = float64(25000 + rng.Intn(55001))
			dueDate = baseDate.AddDate(0, 0, (i*30)%180)
		default: // bnpl, paylater
			amount = float64(500 + rng.Intn(14501))
			dueDate = baseDate.AddDate(0, 0, (i*7)%180)
		}

		// 80% on time, 15% late, 5% failed.
		var status models.TransactionStatus
		var paidDate *time.Time
		var daysLate int
		switch roll := rng.Float64(); {
		case roll < 0.80:
			status = models.StatusPaidOnTime
			paid := dueDate.AddDate(0, 0, -rng.Intn(3))
			paidDate = &paid
		case roll < 0.95:
			status = models.StatusPaidLate
			daysLate = 1 + rng.Intn(15)
			paid := dueDate.AddDate(0, 0, daysLate)
			paidDate = &paid
		default:
			status = models.StatusFailed
			daysLate = 15 + rng.Intn(31)
		}

		tx := &models.Transaction{
			ID:          uuid.New(),
			UserID:      userID,
			Kind:        kind,
			Amount:      amount,
			Status:      status,
			DueDate:     &dueDate,
			PaidDate:    paidDate,
			DaysLate:    daysLate,
			Provider:    provider,
			Description: fmt.Sprintf("%s - %s Payment", provider, titler.String(string(kind))),
			OccurredAt:  dueDate,
			CreatedAt:   time.Now(),
		}
		if err := txRepo.Create(ctx, tx); err != nil {
			return i, err
		}
	}

	return count, nil
}
