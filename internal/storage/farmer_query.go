package storage

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const farmerColumns = "xrpl_address"

// MembershipQuery is a parameterized lookup of addresses in the farmer table.
type MembershipQuery struct {
	SQL  string
	Args []any
}

// BuildMembershipQuery builds a lookup of addresses against table.
// One distinct address produces an equality filter, several produce an IN list.
// Address values are only ever passed as bind parameters. The table name comes
// from configuration and is quoted as an identifier; "schema.table" is accepted.
func BuildMembershipQuery(table string, addresses []string) (MembershipQuery, error) {
	if strings.TrimSpace(table) == "" {
		return MembershipQuery{}, fmt.Errorf("farmer table name is empty")
	}

	distinct := uniqueAddresses(addresses)
	if len(distinct) == 0 {
		return MembershipQuery{}, fmt.Errorf("at least one address is required")
	}

	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	args := make([]any, len(distinct))
	for i, addr := range distinct {
		args[i] = addr
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s WHERE xrpl_address ", farmerColumns, ident)
	if len(distinct) == 1 {
		sb.WriteString("= $1")
	} else {
		sb.WriteString("IN (")
		for i := range distinct {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i+1)
		}
		sb.WriteString(")")
	}

	return MembershipQuery{SQL: sb.String(), Args: args}, nil
}

// uniqueAddresses drops repeated values, keeping first-seen order
func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
