package repository

import (
	"database/sql"
	"fmt"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
)

// SettingsRepository stores global key/value settings such as the reward policy
type SettingsRepository struct {
	db database.Querier
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db database.Querier) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *SettingsRepository) WithTx(tx *database.Tx) *SettingsRepository {
	return &SettingsRepository{db: tx}
}

// GetSetting retrieves a setting value by key. ok is false when unset.
func (r *SettingsRepository) GetSetting(key string) (value string, ok bool, err error) {
	err = r.db.QueryRow("SELECT setting_value FROM settings WHERE setting_key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// GetSettings returns every stored setting
func (r *SettingsRepository) GetSettings() (map[string]string, error) {
	rows, err := r.db.Query("SELECT setting_key, setting_value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// SetSetting updates or inserts a setting
func (r *SettingsRepository) SetSetting(key, value string) error {
	query := r.db.GetDialect().UpsertSettingQuery()
	if _, err := r.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}
