package analyst

import (
	"fmt"
	"strings"

	"github.com/skylark-bi/boardpulse/internal/aggregate"
	"github.com/skylark-bi/boardpulse/internal/model"
	"github.com/skylark-bi/boardpulse/internal/schema"
)

// sampleSize is how many records per board are serialized verbatim
// into the context. The stats block covers the full record set, so a
// small sample is enough for the model to see the data's shape.
const sampleSize = 5

// BuildContext serializes snapshots into the data-context block
// injected into the model's prompt: per board, a head sample of
// normalized records plus full-set numeric stats. Missing values
// render as an em dash so the model reads them as "no data", not zero.
func BuildContext(snapshots []model.Snapshot, rs *schema.RoleSet) string {
	var b strings.Builder
	for _, snap := range snapshots {
		fmt.Fprintf(&b, "## BOARD: %s (%d records)\n", snap.BoardName, len(snap.Records))
		writeSample(&b, snap.Records, rs)
		writeStats(&b, snap.Records, rs)
		b.WriteByte('\n')
	}
	return b.String()
}

func writeSample(b *strings.Builder, records []model.Record, rs *schema.RoleSet) {
	roles := rs.Roles()

	b.WriteString("SAMPLE:\n")
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	b.WriteString(strings.Join(names, " | "))
	b.WriteByte('\n')

	n := min(sampleSize, len(records))
	for _, rec := range records[:n] {
		cells := make([]string, len(roles))
		for i, role := range roles {
			cells[i] = rec[role].String()
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteByte('\n')
	}
}

func writeStats(b *strings.Builder, records []model.Record, rs *schema.RoleSet) {
	b.WriteString("STATS:\n")
	for _, s := range aggregate.Describe(records, rs) {
		if s.Summary.Count == 0 {
			fmt.Fprintf(b, "%s: data unavailable\n", s.Role)
			continue
		}
		fmt.Fprintf(b, "%s: count=%d sum=%s mean=%s min=%s max=%s\n",
			s.Role,
			s.Summary.Count,
			s.Summary.Sum,
			s.Summary.Mean,
			s.Summary.Min,
			s.Summary.Max,
		)
	}
}
