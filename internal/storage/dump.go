package storage

import (
	"github.com/fystack/crown-clash/pkg/kvstore"
)

// Keyspaces are the key prefixes the store writes under.
var Keyspaces = []string{"accounts/", "balances/", "tokens/", roundsPrefix}

// Dump returns the raw pairs under prefix, or under every keyspace when
// prefix is empty.
func (s *Store) Dump(prefix string) ([]*kvstore.KVPair, error) {
	prefixes := Keyspaces
	if prefix != "" {
		prefixes = []string{prefix}
	}
	var out []*kvstore.KVPair
	for _, p := range prefixes {
		pairs, err := s.kv.List(p)
		if err != nil {
			return nil, err
		}
		out = append(out, pairs...)
	}
	return out, nil
}
