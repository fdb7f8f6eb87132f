package wallet

import (
	"sort"

	"wallet-sync/internal/chain/types"
)

// MergeStats counts what a merge did to the history.
type MergeStats struct {
	Inserted  int
	Updated   int
	Unchanged int
}

func (m MergeStats) Changed() bool {
	return m.Inserted+m.Updated > 0
}

// Merge folds incoming ledger transactions into an existing history and returns the new history,
// sorted by timestamp descending with ties broken by id descending. existing is not modified.
//
// An id that is absent is inserted. A pending transaction moves to the incoming status when it
// differs; confirmed and failed transactions are never changed. Merging the same batch twice
// yields the same history.
func Merge(existing, incoming []types.Transaction) ([]types.Transaction, MergeStats) {
	var stats MergeStats

	merged := make([]types.Transaction, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	index := make(map[string]int, len(merged)+len(incoming))
	for i, tx := range merged {
		index[tx.ID] = i
	}

	for _, tx := range incoming {
		if tx.ID == "" {
			log.Warnf("Merge: skipping transaction without id (counterparty %s)", tx.Counterparty)
			continue
		}

		i, ok := index[tx.ID]
		if !ok {
			index[tx.ID] = len(merged)
			merged = append(merged, tx)
			stats.Inserted++
			continue
		}

		current := &merged[i]
		switch {
		case current.Status == types.TxPending && tx.Status != types.TxPending:
			current.Status = tx.Status
			if tx.BlockID != "" {
				current.BlockID = tx.BlockID
			}
			stats.Updated++
		case current.Status == tx.Status && current.BlockID == "" && tx.BlockID != "":
			current.BlockID = tx.BlockID
			stats.Updated++
		default:
			if current.Status.Terminal() && current.Status != tx.Status {
				log.Debugf("Merge: ignoring %s -> %s for terminal transaction %s", current.Status, tx.Status, tx.ID)
			}
			stats.Unchanged++
		}
	}

	SortHistory(merged)
	return merged, stats
}

// SortHistory orders transactions most recent first, higher id first on equal timestamps.
func SortHistory(txs []types.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].Timestamp.After(txs[j].Timestamp)
		}
		return txs[i].ID > txs[j].ID
	})
}
