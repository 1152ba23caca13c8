package gen

import (
	"fmt"
	"strings"

	"github.com/syssam/schemaflow/schema"
)

// Mermaid renders s as a Mermaid erDiagram. Attributes carry the database
// column names. Relations point from the referenced table to the
// referencing one and are labeled with the foreign-key column.
func Mermaid(s *schema.Schema) string {
	var sb strings.Builder
	sb.WriteString("erDiagram\n")

	seen := make(map[string]bool)
	for _, r := range s.Relations {
		if s.Table(r.FromTable) == nil || s.Table(r.ToTable) == nil {
			continue
		}
		key := fmt.Sprintf("%s:%s:%s:%s", r.ToTable, r.FromTable, r.FromColumn, r.Kind)
		if seen[key] {
			continue
		}
		seen[key] = true
		fmt.Fprintf(&sb, "    %s %s %s : %q\n", r.ToTable, cardinality(r.Kind), r.FromTable, sqlName(s.Table(r.FromTable), r.FromColumn))
	}
	if len(seen) > 0 {
		sb.WriteString("\n")
	}

	for _, t := range s.Tables {
		fmt.Fprintf(&sb, "    %s {\n", t.Name)
		for _, c := range t.Columns {
			var keys []string
			if c.PrimaryKey {
				keys = append(keys, "PK")
			}
			if s.IsForeignKey(t.Name, c.Name) {
				keys = append(keys, "FK")
			}
			if c.Unique && !c.PrimaryKey {
				keys = append(keys, "UK")
			}
			fmt.Fprintf(&sb, "        %s %s", c.Type, c.SQLName())
			if len(keys) > 0 {
				sb.WriteString(" " + strings.Join(keys, ", "))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("    }\n")
	}
	return sb.String()
}

func cardinality(k schema.RelationKind) string {
	if k == schema.OneToOne {
		return "||--||"
	}
	return "||--o{"
}
