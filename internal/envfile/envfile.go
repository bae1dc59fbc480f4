// Package envfile обновляет строку подключения в .env.
package envfile

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	zlog "github.com/rs/zerolog/log"
)

const (
	DBURLKey  = "NEON_DB_URL"
	DefaultDB = "gtrykdb"
	fileMode  = 0o600
)

// FormatDBURL строка NEON_DB_URL для хоста ветки.
func FormatDBURL(host, db string) string {
	if db == "" {
		db = DefaultDB
	}
	return fmt.Sprintf("jdbc:postgresql://%s/%s?sslmode=require", host, db)
}

// Rewrite заменяет или дописывает NEON_DB_URL. Остальные непустые строки
// сохраняются в исходном порядке, пустые удаляются.
func Rewrite(content, host, db string) string {
	line := DBURLKey + "=" + FormatDBURL(host, db)

	var out []string
	found := false
	for _, l := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(l, DBURLKey+"="):
			out = append(out, line)
			found = true
		case strings.TrimSpace(l) != "":
			out = append(out, strings.TrimRight(l, "\r"))
		}
	}
	if !found {
		out = append(out, line)
	}
	return strings.Join(out, "\n") + "\n"
}

// UpdateDBURL переписывает файл path. Отсутствующий файл создается.
func UpdateDBURL(path, host, db string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", path, err)
		}
		zlog.Warn().Str("path", path).Msg("No .env file found. Creating new one.")
	}

	if err := os.WriteFile(path, []byte(Rewrite(string(content), host, db)), fileMode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// PostgresDSN переводит JDBC-адрес в DSN для pgx. Пустые user и password не добавляются.
func PostgresDSN(jdbcURL, user, password string) (string, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(jdbcURL), "jdbc:")
	if !strings.HasPrefix(raw, "postgresql://") && !strings.HasPrefix(raw, "postgres://") {
		return "", fmt.Errorf("%s %q is not a postgresql url", DBURLKey, jdbcURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", DBURLKey, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%s %q has no host", DBURLKey, jdbcURL)
	}
	u.Scheme = "postgres"
	switch {
	case user != "" && password != "":
		u.User = url.UserPassword(user, password)
	case user != "":
		u.User = url.User(user)
	}
	if u.Query().Get("sslmode") == "" {
		q := u.Query()
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
