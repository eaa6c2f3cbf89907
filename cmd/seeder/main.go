package main

import (
	"fmt"
	"log"
	"time"

	"classbank/internal/config"
	"classbank/internal/database"
	"classbank/internal/models"
	"classbank/internal/repositories"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	teacherCount      = 2
	classesPerTeacher = 2
	studentsPerClass  = 8
	itemsPerTeacher   = 5
)

// Seeds a development database with teachers, classes, enrolled students,
// their account pairs, some opening deposits and a small store catalog.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		log.Fatalf("Failed to inspect database: %v", err)
	}
	if userCount > 0 {
		log.Printf("Database already has %d users. Skipping seed.", userCount)
		return
	}

	gofakeit.Seed(time.Now().UnixNano())

	accountRepo := repositories.NewAccountRepository(db)

	for t := 0; t < teacherCount; t++ {
		teacher := &models.User{
			Email:     gofakeit.Email(),
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
			Role:      models.RoleTeacher,
		}
		if err := db.Create(teacher).Error; err != nil {
			log.Fatalf("Failed to create teacher: %v", err)
		}

		for cl := 0; cl < classesPerTeacher; cl++ {
			class := &models.Class{
				TeacherID: teacher.ID,
				Name:      fmt.Sprintf("%s %d", gofakeit.RandomString([]string{"Math", "Science", "History", "Economics"}), gofakeit.Number(1, 8)),
				Period:    fmt.Sprintf("Period %d", cl+1),
			}
			if err := db.Create(class).Error; err != nil {
				log.Fatalf("Failed to create class: %v", err)
			}

			for s := 0; s < studentsPerClass; s++ {
				student := &models.User{
					Email:     gofakeit.Email(),
					FirstName: gofakeit.FirstName(),
					LastName:  gofakeit.LastName(),
					Role:      models.RoleStudent,
				}
				if err := db.Create(student).Error; err != nil {
					log.Fatalf("Failed to create student: %v", err)
				}

				enrollment := &models.Enrollment{
					ClassID:   class.ID,
					StudentID: student.ID,
					Status:    models.EnrollmentStatusActive,
				}
				if err := db.Create(enrollment).Error; err != nil {
					log.Fatalf("Failed to enroll student: %v", err)
				}

				accounts, err := accountRepo.CreateAccountsForStudent(student.ID)
				if err != nil {
					log.Fatalf("Failed to create accounts: %v", err)
				}

				// Opening deposit into checking
				for _, account := range accounts {
					if account.AccountType != models.AccountTypeChecking {
						continue
					}
					amount := decimal.NewFromInt(int64(gofakeit.Number(10, 100)))
					if _, err := accountRepo.ExecuteAtomicDeposit(account.ID, amount, "Opening deposit", time.Now()); err != nil {
						log.Fatalf("Failed to seed deposit: %v", err)
					}
				}
			}
		}

		classes := []models.Class{}
		if err := db.Where("teacher_id = ?", teacher.ID).Find(&classes).Error; err != nil {
			log.Fatalf("Failed to load classes: %v", err)
		}

		for i := 0; i < itemsPerTeacher; i++ {
			item := &models.StoreItem{
				TeacherID:   teacher.ID,
				Name:        gofakeit.RandomString([]string{"Homework Pass", "Extra Credit", "Snack Coupon", "Pencil Pack", "Sticker Sheet", "Front Row Seat"}),
				Emoji:       gofakeit.RandomString([]string{"🎟️", "⭐", "🍿", "✏️", "🏅"}),
				Description: gofakeit.Sentence(6),
				Price:       decimal.NewFromInt(int64(gofakeit.Number(1, 25))),
				Quantity:    gofakeit.Number(5, 50),
				IsAvailable: true,
				Classes:     classes,
			}
			if err := db.Create(item).Error; err != nil {
				log.Fatalf("Failed to create store item: %v", err)
			}
		}
	}

	log.Println("Seed complete.")
}
