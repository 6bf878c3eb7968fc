package pkg

import "strings"

// Group is a coarse package classification derived from the category.
type Group string

const (
	GroupAccessibility   Group = "accessibility"
	GroupAdminTools      Group = "admin-tools"
	GroupDesktopGnome    Group = "desktop-gnome"
	GroupDesktopKDE      Group = "desktop-kde"
	GroupDesktopOther    Group = "desktop-other"
	GroupDesktopXfce     Group = "desktop-xfce"
	GroupElectronics     Group = "electronics"
	GroupFonts           Group = "fonts"
	GroupGames           Group = "games"
	GroupGraphics        Group = "graphics"
	GroupNetwork         Group = "network"
	GroupOffice          Group = "office"
	GroupOther           Group = "other"
	GroupPowerManagement Group = "power-management"
	GroupProgramming     Group = "programming"
	GroupScience         Group = "science"
	GroupSecurity        Group = "security"
	GroupSystem          Group = "system"
	GroupUnknown         Group = "unknown"
)

// categoryGroups lists categories that do not follow their prefix rule.
var categoryGroups = map[string]Group{
	"app-accessibility": GroupAccessibility,
	"app-admin":         GroupAdminTools,
	"app-antivirus":     GroupSystem,
	"app-office":        GroupOffice,
	"gnome-base":        GroupDesktopGnome,
	"gnome-extra":       GroupDesktopGnome,
	"kde-base":          GroupDesktopKDE,
	"kde-misc":          GroupDesktopKDE,
	"lxde-base":         GroupDesktopOther,
	"rox-base":          GroupDesktopOther,
	"rox-extra":         GroupDesktopOther,
	"xfce-base":         GroupDesktopXfce,
	"xfce-extra":        GroupDesktopXfce,
	"media-fonts":       GroupFonts,
	"media-gfx":         GroupGraphics,
	"sci-electronics":   GroupElectronics,
	"sec-policy":        GroupSecurity,
	"sys-power":         GroupPowerManagement,
	"virtual":           GroupOther,
}

// prefixGroups maps a category prefix to its group. Categories with an
// unlisted prefix but a known family (app-, media-, net-, x11- ...) are
// GroupOther.
var prefixGroups = []struct {
	prefix string
	group  Group
}{
	{"dev-", GroupProgramming},
	{"games-", GroupGames},
	{"sci-", GroupScience},
	{"sys-", GroupSystem},
	{"mail-", GroupNetwork},
	{"www-", GroupNetwork},
	{"app-", GroupOther},
	{"gnustep-", GroupOther},
	{"gpe-", GroupOther},
	{"java-", GroupOther},
	{"media-", GroupOther},
	{"net-", GroupOther},
	{"perl-", GroupOther},
	{"x11-", GroupOther},
}

// GroupOf returns the group of a logical package name or cpv.
func GroupOf(name string) Group {
	cat := Category(name)
	if g, ok := categoryGroups[cat]; ok {
		return g
	}
	for _, p := range prefixGroups {
		if strings.HasPrefix(cat, p.prefix) {
			return p.group
		}
	}
	return GroupUnknown
}
