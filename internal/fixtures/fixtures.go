// Package fixtures stores the golden end-to-end scenario corpus (spec
// §8) in a small embedded SQLite database, and a YAML manifest loader
// for adding scenarios without touching Go source.
package fixtures

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
	"gopkg.in/yaml.v3"
)

// Scenario is one golden end-to-end case: source text, and the stdout
// and terminal status an unmodified engine must produce.
type Scenario struct {
	Name           string `yaml:"name"`
	Source         string `yaml:"source"`
	ExpectedStdout string `yaml:"expected_stdout"`
	ExpectedStatus string `yaml:"expected_status"` // "ok", "compile_error", or "runtime_error"
}

// Store persists a scenario corpus in a SQLite database file (":memory:"
// is valid for ephemeral use in tests).
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS scenarios (
	name            TEXT PRIMARY KEY,
	source          TEXT NOT NULL,
	expected_stdout TEXT NOT NULL,
	expected_status TEXT NOT NULL
);`

// Open creates or attaches to a scenario database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening fixture store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing fixture schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Put upserts a scenario.
func (s *Store) Put(ctx context.Context, sc Scenario) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scenarios (name, source, expected_stdout, expected_status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			source = excluded.source,
			expected_stdout = excluded.expected_stdout,
			expected_status = excluded.expected_status`,
		sc.Name, sc.Source, sc.ExpectedStdout, sc.ExpectedStatus)
	return err
}

// Get fetches a scenario by name.
func (s *Store) Get(ctx context.Context, name string) (Scenario, error) {
	var sc Scenario
	row := s.db.QueryRowContext(ctx,
		`SELECT name, source, expected_stdout, expected_status FROM scenarios WHERE name = ?`, name)
	if err := row.Scan(&sc.Name, &sc.Source, &sc.ExpectedStdout, &sc.ExpectedStatus); err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: %w", name, err)
	}
	return sc, nil
}

// All returns every stored scenario, ordered by name.
func (s *Store) All(ctx context.Context) ([]Scenario, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, source, expected_stdout, expected_status FROM scenarios ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Scenario
	for rows.Next() {
		var sc Scenario
		if err := rows.Scan(&sc.Name, &sc.Source, &sc.ExpectedStdout, &sc.ExpectedStatus); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Seed upserts every scenario in scenarios into the store.
func Seed(ctx context.Context, s *Store, scenarios []Scenario) error {
	for _, sc := range scenarios {
		if err := s.Put(ctx, sc); err != nil {
			return fmt.Errorf("seeding %q: %w", sc.Name, err)
		}
	}
	return nil
}

// LoadManifest parses a YAML file containing a top-level list of
// scenarios, for extending the corpus without touching Go source.
func LoadManifest(data []byte) ([]Scenario, error) {
	var scenarios []Scenario
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("parsing scenario manifest: %w", err)
	}
	return scenarios, nil
}

// DefaultScenarios returns the golden end-to-end scenario corpus:
// closures, recursion, lists, string interning, undefined-global
// failure, and per-iteration for-loop variable capture.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			Name:           "closures-counter",
			Source:         `fun makeCounter(){var c=0; fun inc(){c=c+1; return c;} return inc;} var f=makeCounter(); print f(); print f(); print f();`,
			ExpectedStdout: "1\n2\n3\n",
			ExpectedStatus: "ok",
		},
		{
			Name:           "fibonacci",
			Source:         `fun fib(n){if (n<2) return n; return fib(n-1)+fib(n-2);} print fib(10);`,
			ExpectedStdout: "55\n",
			ExpectedStatus: "ok",
		},
		{
			Name:           "list-append-index",
			Source:         `var xs=[1,2,3]; append(xs,4); xs[0]=9; print xs; print xs[3];`,
			ExpectedStdout: "[9, 2, 3, 4]\n4\n",
			ExpectedStatus: "ok",
		},
		{
			Name:           "string-interning",
			Source:         `var a="foo"; var b="f"+"oo"; print a==b;`,
			ExpectedStdout: "true\n",
			ExpectedStatus: "ok",
		},
		{
			Name:           "undefined-global",
			Source:         `print xyz;`,
			ExpectedStdout: "",
			ExpectedStatus: "runtime_error",
		},
		{
			Name:           "for-loop-shadowing",
			Source:         `for (var i=0; i<3; i=i+1) { fun p(){print i;} p(); }`,
			ExpectedStdout: "0\n1\n2\n",
			ExpectedStatus: "ok",
		},
	}
}
