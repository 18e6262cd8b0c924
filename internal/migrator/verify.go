package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"

	"github.com/eleven-am/tasknest/internal/generator"
	"github.com/eleven-am/tasknest/internal/logger"
)

// Drift is one difference between a live database and the model schema.
type Drift struct {
	Table   string `json:"table"`
	Object  string `json:"object,omitempty"`
	Problem string `json:"problem"`
}

func (d Drift) String() string {
	if d.Object == "" {
		return fmt.Sprintf("%s: %s", d.Table, d.Problem)
	}
	return fmt.Sprintf("%s.%s: %s", d.Table, d.Object, d.Problem)
}

// InspectLive reads a schema from the connected database. An empty name
// inspects the connection's current schema.
func InspectLive(ctx context.Context, db *sql.DB, name string) (*schema.Schema, error) {
	driver, err := postgres.Open(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create atlas driver: %w", err)
	}

	live, err := driver.InspectSchema(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect schema: %w", err)
	}
	return live, nil
}

// Verify inspects db and compares it against want. Tables named in ignore,
// such as the migrations table, are not reported as unexpected.
func Verify(ctx context.Context, db *sql.DB, want *generator.DatabaseSchema, ignore ...string) ([]Drift, error) {
	log := logger.Atlas()

	live, err := InspectLive(ctx, db, "")
	if err != nil {
		return nil, err
	}

	drifts := Compare(live, want, ignore...)
	log.Debug("schema inspected", "tables", len(live.Tables), "drifts", len(drifts))
	return drifts, nil
}

// Compare reports every way live differs from want, ordered by table then
// object.
func Compare(live *schema.Schema, want *generator.DatabaseSchema, ignore ...string) []Drift {
	var drifts []Drift

	for _, name := range want.Order {
		table := want.Tables[name]
		liveTable, ok := live.Table(name)
		if !ok {
			drifts = append(drifts, Drift{Table: name, Problem: "table missing"})
			continue
		}
		drifts = append(drifts, compareTable(liveTable, table)...)
	}

	skip := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		skip[name] = true
	}
	for _, t := range live.Tables {
		if !skip[t.Name] && !want.HasTable(t.Name) {
			drifts = append(drifts, Drift{Table: t.Name, Problem: "unexpected table"})
		}
	}

	return drifts
}

func compareTable(live *schema.Table, want generator.SchemaTable) []Drift {
	var drifts []Drift
	add := func(object, format string, args ...interface{}) {
		drifts = append(drifts, Drift{Table: want.Name, Object: object, Problem: fmt.Sprintf(format, args...)})
	}

	for _, col := range want.Columns {
		liveCol, ok := live.Column(col.Name)
		if !ok {
			add(col.Name, "column missing")
			continue
		}

		if liveCol.Type != nil {
			if liveCol.Type.Null != col.IsNullable {
				add(col.Name, "nullable is %t, want %t", liveCol.Type.Null, col.IsNullable)
			}
			if problem := compareType(liveCol.Type.Type, col.Type); problem != "" {
				add(col.Name, "%s", problem)
			}
		}

		if col.ForeignKey != nil {
			if problem := compareForeignKey(live, col); problem != "" {
				add(col.Name, "%s", problem)
			}
		}
	}

	for _, liveCol := range live.Columns {
		if _, ok := want.Column(liveCol.Name); !ok {
			add(liveCol.Name, "unexpected column")
		}
	}

	if pk := want.PrimaryKey(); len(pk) > 0 {
		var got []string
		if live.PrimaryKey != nil {
			got = partNames(live.PrimaryKey)
		}
		if !slices.Equal(got, pk) {
			add("", "primary key is (%s), want (%s)", strings.Join(got, ", "), strings.Join(pk, ", "))
		}
	}

	for _, idx := range want.Indexes {
		liveIdx, ok := live.Index(idx.Name)
		if !ok {
			add(idx.Name, "index missing")
			continue
		}
		if liveIdx.Unique != idx.IsUnique {
			add(idx.Name, "unique is %t, want %t", liveIdx.Unique, idx.IsUnique)
		}
		if got := partNames(liveIdx); !slices.Equal(got, idx.Columns) {
			add(idx.Name, "covers (%s), want (%s)", strings.Join(got, ", "), strings.Join(idx.Columns, ", "))
		}
	}

	checks := liveChecks(live)
	for _, constraint := range want.Constraints {
		switch constraint.Type {
		case "UNIQUE":
			liveIdx, ok := live.Index(constraint.Name)
			if !ok || !liveIdx.Unique {
				add(constraint.Name, "unique constraint missing")
				continue
			}
			if got := partNames(liveIdx); !slices.Equal(got, constraint.Columns) {
				add(constraint.Name, "covers (%s), want (%s)", strings.Join(got, ", "), strings.Join(constraint.Columns, ", "))
			}
		case "CHECK":
			if !checks[constraint.Name] {
				add(constraint.Name, "check constraint missing")
			}
		}
	}

	sort.SliceStable(drifts, func(i, j int) bool {
		return drifts[i].Object < drifts[j].Object
	})
	return drifts
}

func compareForeignKey(live *schema.Table, col generator.SchemaColumn) string {
	want := col.ForeignKey
	for _, fk := range live.ForeignKeys {
		if len(fk.Columns) != 1 || fk.Columns[0].Name != col.Name {
			continue
		}
		if fk.RefTable == nil || fk.RefTable.Name != want.ReferencedTable ||
			len(fk.RefColumns) != 1 || fk.RefColumns[0].Name != want.ReferencedColumn {
			return fmt.Sprintf("foreign key %s does not reference %s(%s)", fk.Symbol, want.ReferencedTable, want.ReferencedColumn)
		}

		onDelete := string(fk.OnDelete)
		if onDelete == "" {
			onDelete = string(schema.NoAction)
		}
		if !strings.EqualFold(onDelete, want.OnDelete) {
			return fmt.Sprintf("foreign key %s on delete is %s, want %s", fk.Symbol, onDelete, want.OnDelete)
		}
		return ""
	}
	return fmt.Sprintf("foreign key to %s(%s) missing", want.ReferencedTable, want.ReferencedColumn)
}

var sizedType = regexp.MustCompile(`^([A-Z ]+?)\s*(?:\((\d+)\))?$`)

// compareType checks the type family and, for sized strings, the length.
// Types outside the known families are not compared.
func compareType(live schema.Type, want string) string {
	m := sizedType.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(want)))
	if m == nil {
		return ""
	}
	wantFamily := typeFamily(m[1])
	if wantFamily == "" {
		return ""
	}

	var gotFamily string
	var gotSize int
	switch t := live.(type) {
	case *schema.StringType:
		gotFamily, gotSize = "string", t.Size
	case *schema.IntegerType, *postgres.SerialType:
		gotFamily = "integer"
	case *schema.TimeType:
		gotFamily = "time"
	case *schema.BoolType:
		gotFamily = "bool"
	default:
		return ""
	}

	if gotFamily != wantFamily {
		return fmt.Sprintf("type is %s, want %s", gotFamily, strings.ToLower(want))
	}
	if m[2] != "" && gotFamily == "string" {
		wantSize, _ := strconv.Atoi(m[2])
		if gotSize != wantSize {
			return fmt.Sprintf("length is %d, want %d", gotSize, wantSize)
		}
	}
	return ""
}

func typeFamily(base string) string {
	switch strings.TrimSpace(base) {
	case "VARCHAR", "CHARACTER VARYING", "TEXT", "CHAR", "CHARACTER":
		return "string"
	case "SERIAL", "BIGSERIAL", "SMALLSERIAL", "INTEGER", "INT", "BIGINT", "SMALLINT":
		return "integer"
	case "TIMESTAMPTZ", "TIMESTAMP", "DATE":
		return "time"
	case "BOOLEAN", "BOOL":
		return "bool"
	}
	return ""
}

func liveChecks(t *schema.Table) map[string]bool {
	checks := make(map[string]bool)
	for _, attr := range t.Attrs {
		if check, ok := attr.(*schema.Check); ok {
			checks[check.Name] = true
		}
	}
	return checks
}

func partNames(idx *schema.Index) []string {
	names := make([]string, 0, len(idx.Parts))
	for _, part := range idx.Parts {
		if part.C != nil {
			names = append(names, part.C.Name)
		}
	}
	return names
}
