package migrate

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

const (
	annotationUp    = "-- +goose Up"
	annotationDown  = "-- +goose Down"
	annotationBegin = "-- +goose StatementBegin"
	annotationEnd   = "-- +goose StatementEnd"
)

// ValidateDir checks every .sql file in dir: the name must carry a unique
// 14 digit version and the body needs exactly one Up and one Down section
// with balanced statement blocks. All problems are reported together.
func ValidateDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var errs error
	versions := make(map[string]string, len(names))
	for _, name := range names {
		m := migrationFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if prev, dup := versions[m[1]]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, m[1], prev))
			continue
		}
		versions[m[1]] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err := checkAnnotations(body); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errs
}

func checkAnnotations(body []byte) error {
	var ups, downs, open int
	sawDown := false
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		switch strings.TrimSpace(scanner.Text()) {
		case annotationUp:
			if sawDown {
				return fmt.Errorf("line %d: Up section after Down", lineNo)
			}
			ups++
		case annotationDown:
			if open > 0 {
				return fmt.Errorf("line %d: Down inside an open statement block", lineNo)
			}
			sawDown = true
			downs++
		case annotationBegin:
			if open > 0 {
				return fmt.Errorf("line %d: nested StatementBegin", lineNo)
			}
			open++
		case annotationEnd:
			if open == 0 {
				return fmt.Errorf("line %d: StatementEnd without StatementBegin", lineNo)
			}
			open--
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	switch {
	case ups != 1:
		return fmt.Errorf("want exactly one %q, found %d", annotationUp, ups)
	case downs != 1:
		return fmt.Errorf("want exactly one %q, found %d", annotationDown, downs)
	case open != 0:
		return fmt.Errorf("unterminated StatementBegin")
	}
	return nil
}
