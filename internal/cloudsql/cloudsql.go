// Package cloudsql resolves the PostgreSQL connection string for both
// plain deployments and Cloud Run with a Cloud SQL sidecar socket.
package cloudsql

import (
	"fmt"
	"os"
	"strings"
)

// ResolveDatabaseURL returns the connection string the statistics
// backend should use.
//
// DATABASE_URL wins when set (local development, plain VMs). Otherwise
// INSTANCE_CONNECTION_NAME together with DB_USER, DB_PASSWORD and
// DB_NAME selects the Unix socket Cloud Run mounts under /cloudsql.
func ResolveDatabaseURL() (string, error) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return dbURL, nil
	}

	instance := os.Getenv("INSTANCE_CONNECTION_NAME")
	if instance == "" {
		return "", fmt.Errorf("neither DATABASE_URL nor INSTANCE_CONNECTION_NAME is set")
	}

	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_NAME")
	if user == "" || name == "" {
		return "", fmt.Errorf("DB_USER and DB_NAME must be set when using INSTANCE_CONNECTION_NAME")
	}

	socketPath := fmt.Sprintf("/cloudsql/%s", instance)

	if password := os.Getenv("DB_PASSWORD"); password != "" {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
			socketPath, user, password, name), nil
	}

	// IAM database authentication needs no password.
	return fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable",
		socketPath, user, name), nil
}

// ConnectionInfo describes the resolved connection for startup logging,
// with credentials redacted.
func ConnectionInfo() map[string]string {
	info := make(map[string]string)

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		info["connection_type"] = "direct"
		info["database_url"] = redactPassword(dbURL)
		return info
	}

	if instance := os.Getenv("INSTANCE_CONNECTION_NAME"); instance != "" {
		info["connection_type"] = "cloud_sql"
		info["instance"] = instance
		info["user"] = os.Getenv("DB_USER")
		info["database"] = os.Getenv("DB_NAME")
		info["socket_path"] = fmt.Sprintf("/cloudsql/%s", instance)
		return info
	}

	info["connection_type"] = "none"
	info["error"] = "no database configuration found"
	return info
}

func redactPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgresql://") || strings.HasPrefix(connStr, "postgres://") {
		parts := strings.SplitN(connStr, "@", 2)
		if len(parts) == 2 {
			userParts := strings.Split(parts[0], ":")
			if len(userParts) >= 3 {
				return userParts[0] + "://" + userParts[1] + ":***@" + parts[1]
			}
		}
	}
	return connStr
}
