package topology

import (
	"log/slog"

	"github.com/snowviz/snowviz-backend/internal/models"
)

// PoolServices is the result of one pool-scoped service listing. Err marks a
// listing that failed; the pool then contributes nothing and reconciliation
// proceeds without it.
type PoolServices struct {
	Pool     string
	Services []models.Service
	Err      error
}

// ReconcileServices merges the global service listing with the per-pool
// listings into one authoritative set with no duplicate identities.
//
// Baseline entries are inserted first, keyed by fully qualified name. Each
// pool's entries then overwrite by key: the pool-scoped record's compute-pool
// attribution is authoritative because it comes from the targeted,
// non-ambiguous source. A service can belong to only one pool at
// reconciliation time, so the final set is independent of pool order; if two
// pool listings ever disagree about the same name, the later pool in listing
// order wins (a known upstream ambiguity, not resolved further).
//
// A nil/empty baseline (e.g. the global listing failed) is not an error:
// reconciliation proceeds with pool-scoped data only.
func ReconcileServices(baseline []models.Service, pools []PoolServices, log *slog.Logger) []models.Service {
	byFQN := make(map[string]int) // FQN -> index into result
	result := make([]models.Service, 0, len(baseline))

	for _, svc := range baseline {
		fqn := svc.FQN()
		if _, exists := byFQN[fqn]; exists {
			continue
		}
		byFQN[fqn] = len(result)
		result = append(result, svc)
	}

	for _, ps := range pools {
		if ps.Err != nil {
			log.Warn("pool-scoped service listing failed, pool contributes nothing",
				"pool", ps.Pool, "error", ps.Err)
			continue
		}
		for _, svc := range ps.Services {
			fqn := svc.FQN()
			if i, exists := byFQN[fqn]; exists {
				result[i] = svc
				continue
			}
			byFQN[fqn] = len(result)
			result = append(result, svc)
		}
	}

	return result
}
