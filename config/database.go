package config

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"go-cropadvisor/logger"
)

// 支持的数据库驱动
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DataSourceName 返回连接串
func (d DatabaseConfig) DataSourceName() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4", d.Username, d.Password, d.Host, d.Name)
}

// ConnectDB 连接数据库
func ConnectDB(d DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(d.Driver, d.DataSourceName())
	if err != nil {
		return nil, err
	}
	if d.Driver == DriverSQLite {
		// 内存库每个连接都是独立的数据库
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// InitDB 连接数据库并执行迁移
func InitDB(d DatabaseConfig, log *logger.Logger) (*sqlx.DB, error) {
	db, err := ConnectDB(d)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db, d.Driver, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Migrate 自动迁移数据库
func Migrate(db *sqlx.DB, driver string, log *logger.Logger) error {
	// 创建 migrations 表用于跟踪迁移状态
	if err := createMigrationsTable(db, driver); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, migration := range getMigrations() {
		if err := runMigrationIfNotExists(db, driver, migration, log); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", migration.Name, err)
		}
	}
	return nil
}

// Migration 迁移结构，按方言分别给出SQL
type Migration struct {
	Name   string
	MySQL  []string
	SQLite []string
}

func (m Migration) statements(driver string) []string {
	if driver == DriverSQLite {
		return m.SQLite
	}
	return m.MySQL
}

// createMigrationsTable 创建迁移表
func createMigrationsTable(db *sqlx.DB, driver string) error {
	createSQL := `
	CREATE TABLE IF NOT EXISTS migrations (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)
	`
	if driver == DriverSQLite {
		createSQL = `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
		`
	}
	_, err := db.Exec(createSQL)
	return err
}

// getMigrations 获取所有迁移
func getMigrations() []Migration {
	return []Migration{
		{
			Name: "001_create_users_table",
			MySQL: []string{`
			CREATE TABLE IF NOT EXISTS users (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				username VARCHAR(150) NOT NULL UNIQUE,
				email VARCHAR(255) NOT NULL UNIQUE,
				password VARCHAR(255) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT FALSE,
				verification_token VARCHAR(64) NULL,
				created_at DATETIME(6) NOT NULL,
				INDEX idx_verification_token (verification_token)
			)
			`},
			SQLite: []string{`
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL UNIQUE,
				password TEXT NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT 0,
				verification_token TEXT NULL,
				created_at DATETIME NOT NULL
			)
			`,
				`CREATE INDEX IF NOT EXISTS idx_verification_token ON users (verification_token)`,
			},
		},
		{
			Name: "002_create_predictions_table",
			MySQL: []string{`
			CREATE TABLE IF NOT EXISTS predictions (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_id BIGINT NOT NULL,
				nitrogen DOUBLE NOT NULL,
				phosphorus DOUBLE NOT NULL,
				potassium DOUBLE NOT NULL,
				temperature DOUBLE NOT NULL,
				humidity DOUBLE NOT NULL,
				rainfall DOUBLE NOT NULL,
				ph DOUBLE NOT NULL,
				result JSON NOT NULL,
				created_at DATETIME(6) NOT NULL,
				INDEX idx_user_created (user_id, created_at),
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)
			`},
			SQLite: []string{`
			CREATE TABLE IF NOT EXISTS predictions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				nitrogen REAL NOT NULL,
				phosphorus REAL NOT NULL,
				potassium REAL NOT NULL,
				temperature REAL NOT NULL,
				humidity REAL NOT NULL,
				rainfall REAL NOT NULL,
				ph REAL NOT NULL,
				result TEXT NOT NULL,
				created_at DATETIME NOT NULL
			)
			`,
				`CREATE INDEX IF NOT EXISTS idx_user_created ON predictions (user_id, created_at)`,
			},
		},
	}
}

// runMigrationIfNotExists 如果迁移不存在则运行
func runMigrationIfNotExists(db *sqlx.DB, driver string, migration Migration, log *logger.Logger) error {
	// 检查迁移是否已执行
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM migrations WHERE name = ?", migration.Name); err != nil {
		return err
	}

	if count > 0 {
		log.Debug("Migration already executed, skipping", "migration", migration.Name)
		return nil
	}

	// 执行迁移
	log.Info("Running migration", "migration", migration.Name)
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	for _, stmt := range migration.statements(driver) {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return err
		}
	}

	// 记录迁移已执行
	if _, err := tx.Exec("INSERT INTO migrations (name) VALUES (?)", migration.Name); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
