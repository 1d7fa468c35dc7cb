package qualitygate

import (
	"fmt"
	"strings"
)

// Profile holds the thresholds the gate judges against.
type Profile struct {
	Name string
	// OriginalApprovalScore is the minimum N/10 score for reusing the source image.
	OriginalApprovalScore int
	// MaxCandidates is how many external candidates are offered to the oracle.
	MaxCandidates int
}

var (
	// ProductionProfile only reuses source images scored 8/10 or better.
	ProductionProfile = Profile{Name: "production", OriginalApprovalScore: 8, MaxCandidates: 3}
	// TestingProfile is looser so short test runs still exercise image reuse.
	TestingProfile = Profile{Name: "testing", OriginalApprovalScore: 6, MaxCandidates: 3}
)

// ProfileByName resolves a named profile.
func ProfileByName(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProductionProfile.Name:
		return ProductionProfile, nil
	case TestingProfile.Name, "test":
		return TestingProfile, nil
	default:
		return Profile{}, fmt.Errorf("unknown quality gate profile %q", name)
	}
}
