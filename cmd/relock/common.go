package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/viper"

	"github.com/stokaro/relock/authz"
	"github.com/stokaro/relock/core/composer"
	"github.com/stokaro/relock/lockdb"
)

const (
	dbURLFlag        = "db-url"
	baseKindFlag     = "base-kind"
	idsFlag          = "ids"
	authzModelFlag   = "authz-model"
	authzPolicyFlag  = "authz-policy"
	authzSubjectFlag = "authz-subject"
)

// connectionFlags returns the flag set shared by every database-touching
// command.
func connectionFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		dbURLFlag: &cobraflags.StringFlag{
			Name:  dbURLFlag,
			Value: "",
			Usage: "Database URL (postgres:// or mysql://); defaults to RELOCK_DB_URL",
		},
		authzModelFlag: &cobraflags.StringFlag{
			Name:  authzModelFlag,
			Value: "",
			Usage: "Casbin model file enabling permission checks (optional)",
		},
		authzPolicyFlag: &cobraflags.StringFlag{
			Name:  authzPolicyFlag,
			Value: "",
			Usage: "Casbin policy file enabling permission checks (optional)",
		},
		authzSubjectFlag: &cobraflags.StringFlag{
			Name:  authzSubjectFlag,
			Value: "",
			Usage: "Subject the permission checks run as",
		},
	}
}

// openConnection opens the database named by --db-url, falling back to the
// RELOCK_DB_URL environment variable.
func openConnection(flags map[string]cobraflags.Flag) (*lockdb.Connection, error) {
	dbURL := flags[dbURLFlag].GetString()
	if dbURL == "" {
		dbURL = viper.GetString("db_url")
	}
	if dbURL == "" {
		return nil, fmt.Errorf("no database URL given (use --db-url or RELOCK_DB_URL)")
	}
	return lockdb.Open(dbURL)
}

// buildPermissioner wires the casbin permission layer when both authz files
// are given, and allows everything otherwise.
func buildPermissioner(flags map[string]cobraflags.Flag) (authz.Permissioner, error) {
	modelPath := flags[authzModelFlag].GetString()
	policyPath := flags[authzPolicyFlag].GetString()
	if modelPath == "" && policyPath == "" {
		return authz.AllowAll{}, nil
	}
	if modelPath == "" || policyPath == "" {
		return nil, fmt.Errorf("--%s and --%s must be given together", authzModelFlag, authzPolicyFlag)
	}
	return authz.NewEnforcer(modelPath, policyPath, flags[authzSubjectFlag].GetString())
}

func newComposer(conn *lockdb.Connection) *composer.Composer {
	return composer.New(conn.Dialect())
}

// cmdContext is the context bulk and resolve commands run under.
func cmdContext() context.Context {
	return context.Background()
}

// parseID parses one entity id.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

// parseIDs parses a comma-separated id list.
func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("no ids given")
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// splitList parses a comma-separated name list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
