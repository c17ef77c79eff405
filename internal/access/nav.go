package access

// Section identifies a navigable screen.
type Section string

const (
	SectionDashboard     Section = "/"
	SectionResidents     Section = "/residents"
	SectionRotation      Section = "/rota"
	SectionIssues        Section = "/issues"
	SectionAnnouncements Section = "/announcements"
	SectionHistory       Section = "/history"
	SectionLogs          Section = "/logs"
	SectionSettings      Section = "/settings"
	SectionPalettes      Section = "/palettes"
)

// NavItem is one row of the navigation table.
type NavItem struct {
	Path  Section
	Label string
	Roles RoleSet
	Color string
}

// NavItems is the sidebar table in display order.
var NavItems = []NavItem{
	{Path: SectionDashboard, Label: "Dashboard", Roles: allRoles, Color: "#0EA5E9"},
	{Path: SectionResidents, Label: "Residents", Roles: allRoles, Color: "#22C55E"},
	{Path: SectionRotation, Label: "Rotation", Roles: allRoles, Color: "#F59E0B"},
	{Path: SectionIssues, Label: "Issue Tracker", Roles: allRoles, Color: "#EF4444"},
	{Path: SectionAnnouncements, Label: "Announcements", Roles: operatorRoles, Color: "#6366F1"},
	{Path: SectionHistory, Label: "History", Roles: operatorRoles, Color: "#A855F7"},
	{Path: SectionLogs, Label: "Logs", Roles: allRoles, Color: "#64748B"},
	{Path: SectionPalettes, Label: "Palettes", Roles: allRoles, Color: "#14B8A6"},
	{Path: SectionSettings, Label: "Settings", Roles: adminRoles, Color: "#EC4899"},
}

// bottomNav is the compact subset, in its own order.
var bottomNav = []Section{
	SectionDashboard,
	SectionResidents,
	SectionRotation,
	SectionIssues,
	SectionAnnouncements,
}

// VisibleNav filters the table for role. Entries the role may not open are
// omitted entirely.
func VisibleNav(role Role) []NavItem {
	var items []NavItem
	for _, item := range NavItems {
		if item.Roles.Contains(role) {
			items = append(items, item)
		}
	}
	return items
}

// CompactNav returns the bottom-bar subset for role, ordered by bottomNav.
func CompactNav(role Role) []NavItem {
	visible := map[Section]NavItem{}
	for _, item := range VisibleNav(role) {
		visible[item.Path] = item
	}
	var items []NavItem
	for _, path := range bottomNav {
		if item, ok := visible[path]; ok {
			items = append(items, item)
		}
	}
	return items
}

// CanOpen reports whether role may open section.
func CanOpen(role Role, section Section) bool {
	for _, item := range NavItems {
		if item.Path == section {
			return item.Roles.Contains(role)
		}
	}
	return false
}
