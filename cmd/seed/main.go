package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medpro/clinic-scheduling/internal/db"
	"github.com/medpro/clinic-scheduling/internal/directory"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedDoctors(context.Background(), pool, 50); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d doctors", count)

	specialties := []directory.Specialty{
		directory.SpecialtyOrthopedics,
		directory.SpecialtyCardiology,
		directory.SpecialtyGynecology,
		directory.SpecialtyDermatology,
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		email := gofakeit.Email()
		crm := fmt.Sprintf("%06d", 100000+i)
		phone := gofakeit.Phone()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (name, email, crm, phone, specialty, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, true, now(), now())
		`, name, email, crm, phone, spec)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("doctors seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			name := gofakeit.Name()
			email := gofakeit.Email()
			cpf := fmt.Sprintf("%011d", gofakeit.Number(10000000000, 99999999999))
			phone := gofakeit.Phone()
			addr := gofakeit.Address()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (name, email, cpf, phone,
					street, number, complement, district, city, state, zip,
					active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, NULL, $7, $8, $9, $10, true, now(), now())
			`, name, email, cpf, phone,
				addr.Street, fmt.Sprint(gofakeit.Number(1, 9999)), gofakeit.City(),
				addr.City, addr.State, addr.Zip)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}
