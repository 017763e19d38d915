package core

import "sort"

var tierFeatures = map[Tier][]string{
	TierFree:       {"Budget overview", "Event calendar", "Task board"},
	TierPremium:    {"Budget overview", "Event calendar", "Task board", "Notification feed", "Sheets export"},
	TierEnterprise: {"Budget overview", "Event calendar", "Task board", "Notification feed", "Sheets export", "Multi-chapter reporting"},
}

// TierFeatures lists what the tier unlocks. Unknown tiers get the free set.
func TierFeatures(t Tier) []string {
	f, ok := tierFeatures[t]
	if !ok {
		f = tierFeatures[TierFree]
	}
	return append([]string(nil), f...)
}

type PermissionRow struct {
	Resource string
	Actions  []string
}

// OnboardingSummary is the welcome card shown after sign-up.
type OnboardingSummary struct {
	UserName       string
	Email          string
	Tier           Tier
	Features       []string
	SchoolName     string
	FraternityName string
	ChapterCode    string
	RoleName       string
	Permissions    []PermissionRow
}

// BuildOnboardingSummary composes the summary from an identity. It returns
// false, without error, when user, chapter or role is not loaded yet.
func BuildOnboardingSummary(id Identity) (OnboardingSummary, bool) {
	if !id.Complete() {
		return OnboardingSummary{}, false
	}

	tier := id.User.Tier
	if !tier.Valid() {
		tier = TierFree
	}

	s := OnboardingSummary{
		UserName:       id.User.Name,
		Email:          id.User.Email,
		Tier:           tier,
		Features:       TierFeatures(tier),
		SchoolName:     id.Chapter.SchoolName,
		FraternityName: id.Chapter.FraternityName,
		ChapterCode:    id.Chapter.ChapterCode,
		RoleName:       id.Role.Name,
	}

	resources := make([]string, 0, len(id.Role.Permissions))
	for r := range id.Role.Permissions {
		resources = append(resources, r)
	}
	sort.Strings(resources)
	for _, r := range resources {
		actions := append([]string(nil), id.Role.Permissions[r]...)
		sort.Strings(actions)
		s.Permissions = append(s.Permissions, PermissionRow{Resource: r, Actions: actions})
	}
	return s, true
}
