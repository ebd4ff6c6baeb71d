package venue

import "github.com/ABSFinance/colloseum-monorepo/internal/domain"

// buildAddressTable collects every address an operation set references, in
// first-seen order with duplicates removed. The transport uses the table to
// compress submitted payloads under its size limit, so adapters must list
// auxiliary addresses (sub-accounts, reserves) that appear only inside
// calldata as extras.
func buildAddressTable(ops []domain.Operation, extras ...string) []string {
	seen := make(map[string]struct{}, len(ops)+len(extras))
	table := make([]string, 0, len(ops)+len(extras))

	add := func(addr string) {
		if addr == "" {
			return
		}
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		table = append(table, addr)
	}

	for _, op := range ops {
		add(op.To)
	}
	for _, e := range extras {
		add(e)
	}
	return table
}
