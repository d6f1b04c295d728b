// Package testutils contains helpers for tests that need a real postgres
// database, tests are expected to bail out gracefully when no database is
// reachable so the pure logic tests can still run anywhere.
package testutils

import (
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	// postgres driver
	_ "github.com/lib/pq"
)

// ConnectPQ connects to a postgres database for testing purposes
func ConnectPQ() (*sqlx.DB, error) {
	host := os.Getenv("CRYPTOBOT_TEST_PQ_HOST")
	if host == "" {
		host = "localhost"
	}
	user := os.Getenv("CRYPTOBOT_TEST_PQ_USER")
	if user == "" {
		user = "cryptobot_test"
	}

	dbPassword := os.Getenv("CRYPTOBOT_TEST_PQ_PASSWORD")
	sslMode := os.Getenv("CRYPTOBOT_TEST_PQ_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dbName := os.Getenv("CRYPTOBOT_TEST_PQ_DB")
	if dbName == "" {
		dbName = "cryptobot_test"
	}

	if !strings.Contains(dbName, "test") {
		panic("Test database name has to contain 'test', this is a safety measure to protect against running tests on production systems.")
	}

	connStr := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=%s password='%s'", host, user, dbName, sslMode, dbPassword)

	return sqlx.Connect("postgres", connStr)
}

// InitTables drops the provided tables and applies the init queries
func InitTables(db *sqlx.DB, dropTables []string, initQueries []string) error {
	for _, v := range dropTables {
		_, err := db.Exec("DROP TABLE IF EXISTS " + v)
		if err != nil {
			return err
		}
	}

	for _, v := range initQueries {
		_, err := db.Exec(v)
		if err != nil {
			return err
		}
	}

	return nil
}

// InitPQ is a helper that calls both ConnectPQ and InitTables
func InitPQ(dropTables []string, initQueries []string) (*sqlx.DB, error) {
	db, err := ConnectPQ()
	if err != nil {
		return nil, err
	}

	err = InitTables(db, dropTables, initQueries)
	return db, err
}

// ClearTables deletes all rows from the given tables, panicking on error,
// useful in defers for test cleanup
func ClearTables(db *sqlx.DB, tables ...string) {
	for _, v := range tables {
		_, err := db.Exec("DELETE FROM " + v + ";")
		if err != nil {
			panic(err)
		}
	}
}
