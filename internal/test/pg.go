package test

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"time"

	// Postgres driver
	_ "github.com/lib/pq"

	auth "github.com/fmitra/walletauth"
)

// PGClient provides a test database.
type PGClient struct {
	DB     *sql.DB
	dbName string
}

// NewPGDB returns a new database for testing. Database
// names are randomly generated to avoid race conditions with
// tear down and set up methods with tests.
func NewPGDB() (*PGClient, error) {
	testDBName := randomDB()

	sysDB, err := sql.Open("postgres", connString("postgres"))
	if err != nil {
		return nil, fmt.Errorf("system db connect failed: %w", err)
	}
	defer sysDB.Close()

	_, err = sysDB.Exec("DROP DATABASE IF EXISTS " + testDBName)
	if err != nil {
		return nil, fmt.Errorf("test DB drop failed: %w", err)
	}

	_, err = sysDB.Exec("CREATE DATABASE " + testDBName)
	if err != nil {
		return nil, fmt.Errorf("cannot create test DB: %w", err)
	}

	db, err := sql.Open("postgres", connString(testDBName))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to test DB: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("no response to ping: %w", err)
	}

	_, err = db.Exec(auth.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PGClient{
		DB:     db,
		dbName: testDBName,
	}, nil
}

// DropDB removes a recently created test database.
func (c *PGClient) DropDB() error {
	c.DB.Close()

	sysDB, err := sql.Open("postgres", connString("postgres"))
	if err != nil {
		return err
	}
	defer sysDB.Close()

	_, err = sysDB.Exec("DROP DATABASE IF EXISTS " + c.dbName)
	return err
}

func connString(dbName string) string {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}

	return fmt.Sprintf(
		"user=auth password=swordfish host=%s port=5432 dbname=%s connect_timeout=3 sslmode=disable",
		host, dbName,
	)
}

// randomDB creates a random test database name.
func randomDB() string {
	// nolint:gosec // crypto/rand not applicable for test package
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	length := 10
	b := make([]rune, length)
	opts := []rune("abcdefghijklmnopqrstuvwxyz")
	for i := range b {
		b[i] = opts[r.Intn(len(opts))]
	}

	return fmt.Sprintf("walletauth_test_%s", string(b))
}
