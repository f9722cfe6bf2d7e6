package changelog // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/changelog"

import (
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
)

// Fingerprint summarises a rule set as the sampling value of each rule, keyed by the hash of
// the rule's type and condition. Two rule sets with equal fingerprints are logged only once.
type Fingerprint map[uint64]rules.SamplingValue

func NewFingerprint(rs []rules.Rule) (Fingerprint, error) {
	fp := make(Fingerprint, len(rs))
	for _, r := range rs {
		h, err := rules.Hash(r)
		if err != nil {
			return nil, err
		}
		fp[h] = r.SamplingValue
	}
	return fp, nil
}

func (f Fingerprint) Equal(other Fingerprint) bool {
	if len(f) != len(other) {
		return false
	}
	for h, v := range f {
		if ov, ok := other[h]; !ok || ov != v {
			return false
		}
	}
	return true
}
