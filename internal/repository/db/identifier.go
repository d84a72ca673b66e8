package db

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/zzenonn/ratepart/internal/errors"
)

// identifierPattern is the allow-list for table names. Anything that reaches
// SQL text as an identifier must match it.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidateIdentifier rejects names that cannot be used as table names.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidIdentifier, name)
	}
	return nil
}

// quoteIdentifier validates and double-quotes name. Both postgres and sqlite
// accept double-quoted identifiers.
func quoteIdentifier(name string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", err
	}
	return `"` + name + `"`, nil
}

// likePrefix builds a LIKE pattern matching names that start with prefix.
// The pattern must be used with ESCAPE '\'.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
