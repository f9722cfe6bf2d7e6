package rules // import "github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

// Hash returns a stable hash of the rule's type and condition tree.
// The id is left out so a rule that only moved position hashes the same.
func Hash(r Rule) (uint64, error) {
	cond, err := json.Marshal(r.Condition)
	if err != nil {
		return 0, fmt.Errorf("encoding condition of rule %d: %w", r.ID, err)
	}
	d := xxhash.New()
	_, _ = d.WriteString(string(r.Type))
	_, _ = d.Write([]byte{':'})
	_, _ = d.Write(cond)
	return d.Sum64(), nil
}
