package gen

import (
	"context"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"go.uber.org/zap"

	"github.com/syssam/schemaflow/schema"
)

// DDL renders the PostgreSQL statements creating s: enum types first, then
// tables in dependency order with their primary keys, foreign keys and
// unique indexes. Columns are named by their database name. An Int primary
// key becomes a serial column. Columns of unknown type and defaults
// computed in application code are skipped.
func DDL(s *schema.Schema, opts ...Option) (string, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return "", err
	}
	ns := atlas.New("public")
	enums := make(map[string]*atlas.EnumType, len(s.Enums))
	var changes []atlas.Change
	for _, e := range s.Enums {
		key := TypeName(e.Name)
		if _, ok := enums[key]; ok || len(e.Values) == 0 {
			continue
		}
		et := &atlas.EnumType{T: e.Name, Values: e.Values, Schema: ns}
		enums[key] = et
		changes = append(changes, &atlas.AddObject{O: et})
	}

	tables := make(map[string]*atlas.Table, len(s.Tables))
	var order []*atlas.Table
	for _, t := range s.Tables {
		if _, ok := tables[t.Name]; ok {
			continue
		}
		at := ddlTable(t, enums, cfg.Logger)
		ns.AddTables(at)
		tables[t.Name] = at
		order = append(order, at)
	}
	seen := make(map[string]bool)
	for _, r := range s.Relations {
		from, to := tables[r.FromTable], tables[r.ToTable]
		if from == nil || to == nil {
			continue
		}
		fc, ok1 := from.Column(sqlName(s.Table(r.FromTable), r.FromColumn))
		tc, ok2 := to.Column(sqlName(s.Table(r.ToTable), r.ToColumn))
		if !ok1 || !ok2 {
			continue
		}
		symbol := r.FromTable + "_" + fc.Name + "_fkey"
		if seen[symbol] {
			continue
		}
		seen[symbol] = true
		from.AddForeignKeys(atlas.NewForeignKey(symbol).
			SetTable(from).
			AddColumns(fc).
			SetRefTable(to).
			AddRefColumns(tc))
	}
	for _, t := range order {
		changes = append(changes, &atlas.AddTable{T: t})
	}

	plan, err := postgres.DefaultPlan.PlanChanges(context.Background(), "schemaflow", changes, func(o *migrate.PlanOptions) {
		unqualified := ""
		o.SchemaQualifier = &unqualified
		o.Indent = cfg.Indent
	})
	if err != nil {
		return "", NewGenerationError("", "", "plan DDL", err)
	}
	var b strings.Builder
	for _, c := range plan.Changes {
		b.WriteString(c.Cmd)
		b.WriteString(";\n")
	}
	return b.String(), nil
}

func ddlTable(t *schema.Table, enums map[string]*atlas.EnumType, log *zap.Logger) *atlas.Table {
	at := atlas.NewTable(t.Name)
	var pk []*atlas.Column
	for _, c := range t.Columns {
		typ := ddlType(c, enums)
		if typ == nil {
			log.Debug("column skipped in DDL", zap.String("table", t.Name), zap.String("column", c.Name), zap.String("type", c.Type))
			continue
		}
		col := atlas.NewColumn(c.SQLName()).SetType(typ).SetNull(c.Nullable && !c.PrimaryKey)
		if x := ddlDefault(c.Default); x != nil {
			col.SetDefault(x)
		}
		at.AddColumns(col)
		if c.PrimaryKey {
			pk = append(pk, col)
		}
		if c.Unique && !c.PrimaryKey {
			at.AddIndexes(atlas.NewUniqueIndex(t.Name + "_" + col.Name + "_key").AddColumns(col))
		}
	}
	if len(pk) > 0 {
		at.SetPrimaryKey(atlas.NewPrimaryKey(pk...))
	}
	return at
}

func ddlType(c *schema.Column, enums map[string]*atlas.EnumType) atlas.Type {
	switch c.Type {
	case schema.TypeInt:
		if c.PrimaryKey {
			return &postgres.SerialType{T: postgres.TypeSerial}
		}
		return &atlas.IntegerType{T: postgres.TypeInteger}
	case schema.TypeString:
		return &atlas.StringType{T: postgres.TypeText}
	case schema.TypeBoolean:
		return &atlas.BoolType{T: postgres.TypeBoolean}
	case schema.TypeDateTime:
		return &atlas.TimeType{T: postgres.TypeTimestamp}
	case schema.TypeUnknown, "":
		return nil
	}
	name := c.Enum
	if name == "" {
		name = c.Type
	}
	if e, ok := enums[TypeName(name)]; ok {
		return e
	}
	return &postgres.UserDefinedType{T: c.Type}
}

// sqlName returns the database name of the column t declares under key.
func sqlName(t *schema.Table, key string) string {
	if t == nil {
		return key
	}
	if c := t.Column(key); c != nil {
		return c.SQLName()
	}
	return key
}

func ddlDefault(d *schema.DefaultValue) atlas.Expr {
	if d == nil {
		return nil
	}
	switch d.Kind {
	case schema.DefaultString:
		return &atlas.Literal{V: "'" + strings.ReplaceAll(d.Value, "'", "''") + "'"}
	case schema.DefaultBool, schema.DefaultNumber:
		return &atlas.Literal{V: d.Value}
	case schema.DefaultNull:
		return nil
	}
	// Only sql`...` templates carry SQL. Other expressions are evaluated
	// by the application.
	if x, ok := strings.CutPrefix(d.Value, "sql`"); ok && strings.HasSuffix(x, "`") {
		return &atlas.RawExpr{X: strings.TrimSuffix(x, "`")}
	}
	return nil
}
