package repository

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

type TokenRepoMysql struct {
	db *sql.DB
}

func NewTokenRepoMysql(user, password, host, dbname string) (*TokenRepoMysql, error) {
	connectionString := fmt.Sprintf("%s:%s@tcp(%s)/%s", user, password, host, dbname)
	db, err := sql.Open("mysql", connectionString)
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(time.Minute * 5)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(time.Minute * 3)

	return &TokenRepoMysql{db: db}, nil
}

func (t *TokenRepoMysql) Migrate() error {
	statement := `CREATE TABLE IF NOT EXISTS session_tokens (
					session_id VARCHAR(36) NOT NULL PRIMARY KEY,
					token TEXT NOT NULL,
					updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
				)`
	_, err := t.db.Exec(statement)
	return err
}

func (t *TokenRepoMysql) Get(key string) (string, bool, error) {
	statement := "SELECT token FROM session_tokens WHERE session_id = ?"
	var token string
	err := t.db.QueryRow(statement, key).Scan(&token)
	switch {
	case err == sql.ErrNoRows:
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return token, true, nil
}

func (t *TokenRepoMysql) Set(key, token string) error {
	statement := `INSERT INTO session_tokens(session_id, token) VALUES(?, ?)
					ON DUPLICATE KEY UPDATE token = VALUES(token)`
	_, err := t.db.Exec(statement, key, token)
	return err
}

// Delete is idempotent: deleting a missing slot is not an error.
func (t *TokenRepoMysql) Delete(key string) error {
	statement := "DELETE FROM session_tokens WHERE session_id = ?"
	_, err := t.db.Exec(statement, key)
	return err
}

func (t *TokenRepoMysql) Close() error {
	return t.db.Close()
}
